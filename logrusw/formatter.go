package logrusw

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// wireLevels are the numeric levels written on the wire, increasing with
// severity so the forwarder can map them by range.
var wireLevels = map[logrus.Level]int{
	logrus.TraceLevel: 10,
	logrus.DebugLevel: 20,
	logrus.InfoLevel:  30,
	logrus.WarnLevel:  40,
	logrus.ErrorLevel: 50,
	logrus.FatalLevel: 60,
	logrus.PanicLevel: 60,
}

// wireFormatter serializes one entry per line: numeric level, msg, the
// time/pid/hostname bookkeeping trio, then the entry's own fields.
type wireFormatter struct {
	pid      int
	hostname string
}

func newWireFormatter() *wireFormatter {
	hostname, _ := os.Hostname()
	return &wireFormatter{pid: os.Getpid(), hostname: hostname}
}

func (f *wireFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	record := make(map[string]interface{}, len(entry.Data)+5)
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			record[k] = err.Error()
			continue
		}
		record[k] = v
	}
	record["level"] = wireLevels[entry.Level]
	record["msg"] = entry.Message
	record["time"] = entry.Time.UnixMilli()
	record["pid"] = f.pid
	record["hostname"] = f.hostname

	line, err := json.Marshal(record)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return append(line, '\n'), nil
}
