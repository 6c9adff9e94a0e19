// Package gclogw writes structured entries in the format the Cloud
// Logging agent expects: one JSON object per line with "severity" and
// "message" special fields, everything else carried as jsonPayload.
package gclogw

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

type Severity string

const (
	SeverityDefault   Severity = "DEFAULT"
	SeverityDebug     Severity = "DEBUG"
	SeverityInfo      Severity = "INFO"
	SeverityNotice    Severity = "NOTICE"
	SeverityWarning   Severity = "WARNING"
	SeverityError     Severity = "ERROR"
	SeverityCritical  Severity = "CRITICAL"
	SeverityAlert     Severity = "ALERT"
	SeverityEmergency Severity = "EMERGENCY"
)

// SeverityForLevel maps a numeric log level to a severity tier using
// half-open ranges, so custom levels between or beyond the standard
// values still land on a tier: below 30 DEBUG, [30,40) INFO,
// [40,50) WARNING, [50,60) ERROR, 60 and up CRITICAL.
func SeverityForLevel(level int) Severity {
	switch {
	case level >= 60:
		return SeverityCritical
	case level >= 50:
		return SeverityError
	case level >= 40:
		return SeverityWarning
	case level >= 30:
		return SeverityInfo
	default:
		return SeverityDebug
	}
}

// Entry is one structured record. Message is always written, empty or not.
type Entry struct {
	Severity Severity
	Message  string
	Fields   map[string]interface{}
}

type Writer interface {
	Write(entry Entry)
}

type streamWriter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewStdoutWriter returns the default writer. On Cloud Functions the
// logging agent picks structured entries up from stdout.
func NewStdoutWriter() Writer {
	return NewStreamWriter(os.Stdout)
}

func NewStreamWriter(out io.Writer) Writer {
	return &streamWriter{out: out}
}

func (w *streamWriter) Write(entry Entry) {
	record := make(map[string]interface{}, len(entry.Fields)+2)
	for k, v := range entry.Fields {
		record[k] = v
	}
	severity := entry.Severity
	if severity == "" {
		severity = SeverityDefault
	}
	record["severity"] = severity
	record["message"] = entry.Message

	line, err := json.Marshal(record)
	if err != nil {
		// a field value the encoder cannot handle; keep the entry anyway
		line, _ = json.Marshal(map[string]interface{}{
			"severity": severity,
			"message":  fmt.Sprintf("%s (unencodable fields: %v)", entry.Message, err),
		})
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = w.out.Write(append(line, '\n'))
}
