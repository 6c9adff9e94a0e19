package logrusw

import (
	"bytes"

	"github.com/valyala/fastjson"

	"github.com/valian-ca/firebase-functions/gclogw"
)

// forwardWriter receives serialized log lines and re-emits each one as a
// single structured entry. It never returns an error and never drops a
// line: input that does not parse is forwarded raw at ERROR severity.
type forwardWriter struct {
	cloud   gclogw.Writer
	parsers fastjson.ParserPool
}

func (w *forwardWriter) Write(line []byte) (int, error) {
	w.forward(bytes.TrimRight(line, "\n"))
	return len(line), nil
}

func (w *forwardWriter) forward(line []byte) {
	parser := w.parsers.Get()
	defer w.parsers.Put(parser)

	value, err := parser.ParseBytes(line)
	if err != nil || value.Type() != fastjson.TypeObject {
		w.cloud.Write(gclogw.Entry{
			Severity: gclogw.SeverityError,
			Message:  string(line),
		})
		return
	}

	level := value.GetInt("level")
	message := string(value.GetStringBytes("msg"))

	var fields map[string]interface{}
	value.GetObject().Visit(func(key []byte, item *fastjson.Value) {
		switch string(key) {
		case "level", "msg", "time", "pid", "hostname":
			return
		}
		if fields == nil {
			fields = make(map[string]interface{})
		}
		fields[string(key)] = decodeValue(item)
	})

	w.cloud.Write(gclogw.Entry{
		Severity: gclogw.SeverityForLevel(level),
		Message:  message,
		Fields:   fields,
	})
}

func decodeValue(value *fastjson.Value) interface{} {
	switch value.Type() {
	case fastjson.TypeObject:
		obj := make(map[string]interface{})
		value.GetObject().Visit(func(key []byte, item *fastjson.Value) {
			obj[string(key)] = decodeValue(item)
		})
		return obj
	case fastjson.TypeArray:
		items := value.GetArray()
		arr := make([]interface{}, 0, len(items))
		for _, item := range items {
			arr = append(arr, decodeValue(item))
		}
		return arr
	case fastjson.TypeString:
		return string(value.GetStringBytes())
	case fastjson.TypeNumber:
		return value.GetFloat64()
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	default:
		return nil
	}
}
