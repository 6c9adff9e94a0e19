package loggerw

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/valian-ca/firebase-functions/configw"
	"github.com/valian-ca/firebase-functions/gclogw"
)

// Level is the numeric severity used for filtering in development mode.
type Level int

const (
	LevelAll   Level = 0
	LevelDebug Level = 2
	LevelInfo  Level = 3
	LevelWarn  Level = 4
	LevelError Level = 5
)

// ParseLevel maps a LOG_LEVEL name to a minimum level. Unrecognized
// values, the empty string included, mean no minimum: everything logs.
func ParseLevel(name string) Level {
	switch strings.ToLower(name) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelAll
	}
}

type (
	// Logger is the facade handler code logs through. Log is an alias of
	// Info. Arguments may be plain values, maps of structured fields, or
	// errors; each method interprets them the same way.
	Logger interface {
		Debug(args ...interface{})
		Log(args ...interface{})
		Info(args ...interface{})
		Warn(args ...interface{})
		Error(args ...interface{})
		Debugf(format string, args ...interface{})
		Infof(format string, args ...interface{})
		Warnf(format string, args ...interface{})
		Errorf(format string, args ...interface{})
	}

	Option struct {
		Runtime configw.Runtime

		// Output is the development console stream. Defaults to stderr.
		Output io.Writer

		// Cloud is the production target. Defaults to the stdout
		// structured writer.
		Cloud gclogw.Writer
	}
)

// New selects the backend once, from the runtime mode: a human console
// logger under the emulator or in test/development environments, the
// cloud structured writer otherwise.
func New(option *Option) (Logger, error) {
	if option == nil {
		option = &Option{}
	}

	if option.Runtime.Mode() == configw.ModeDevelopment {
		return newConsoleLogger(option), nil
	}

	cloud := option.Cloud
	if cloud == nil {
		cloud = gclogw.NewStdoutWriter()
	}
	return &cloudLogger{cloud: cloud}, nil
}

// Default builds a logger from the process environment.
func Default() (Logger, error) {
	rt, err := configw.Load()
	if err != nil {
		return nil, err
	}
	return New(&Option{Runtime: rt})
}

// formatArgs splits a variadic argument list into a space-joined message,
// structured fields, and error values.
func formatArgs(args []interface{}) (string, map[string]interface{}, []error) {
	var (
		parts  []string
		fields map[string]interface{}
		errs   []error
	)
	for _, arg := range args {
		switch v := arg.(type) {
		case map[string]interface{}:
			if fields == nil {
				fields = make(map[string]interface{}, len(v))
			}
			for k, val := range v {
				fields[k] = val
			}
		case error:
			errs = append(errs, v)
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return strings.Join(parts, " "), fields, errs
}

// ---- development backend ----

type consoleLogger struct {
	z        zerolog.Logger
	minLevel Level
}

func newConsoleLogger(option *Option) *consoleLogger {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	out := option.Output
	if out == nil {
		out = os.Stderr
	}
	console := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.000"}

	var sink io.Writer = console
	if option.Runtime.DebugLogFile != "" {
		// emulator sessions keep a structured copy on disk, rotated
		sink = zerolog.MultiLevelWriter(console, &lumberjack.Logger{
			Filename:   option.Runtime.DebugLogFile,
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
			LocalTime:  true,
			Compress:   true,
		})
	}

	// skip the facade frames so the caller annotation points at handler code
	z := zerolog.New(sink).With().Timestamp().CallerWithSkipFrameCount(4).Logger()
	return &consoleLogger{z: z, minLevel: ParseLevel(option.Runtime.LogLevel)}
}

func (l *consoleLogger) emit(level Level, zlevel zerolog.Level, args []interface{}) {
	if level < l.minLevel {
		return
	}
	msg, fields, errs := formatArgs(args)
	evt := l.z.WithLevel(zlevel)
	if len(fields) > 0 {
		evt = evt.Fields(fields)
	}
	if len(errs) == 1 {
		evt = evt.Stack().Err(errs[0])
	} else if len(errs) > 1 {
		evt = evt.Stack().Errs("errors", errs)
	}
	evt.Msg(msg)
}

func (l *consoleLogger) emitf(level Level, zlevel zerolog.Level, format string, args []interface{}) {
	if level < l.minLevel {
		return
	}
	l.z.WithLevel(zlevel).Msgf(format, args...)
}

func (l *consoleLogger) Debug(args ...interface{}) { l.emit(LevelDebug, zerolog.DebugLevel, args) }
func (l *consoleLogger) Log(args ...interface{})   { l.emit(LevelInfo, zerolog.InfoLevel, args) }
func (l *consoleLogger) Info(args ...interface{})  { l.emit(LevelInfo, zerolog.InfoLevel, args) }
func (l *consoleLogger) Warn(args ...interface{})  { l.emit(LevelWarn, zerolog.WarnLevel, args) }
func (l *consoleLogger) Error(args ...interface{}) { l.emit(LevelError, zerolog.ErrorLevel, args) }

func (l *consoleLogger) Debugf(format string, args ...interface{}) {
	l.emitf(LevelDebug, zerolog.DebugLevel, format, args)
}
func (l *consoleLogger) Infof(format string, args ...interface{}) {
	l.emitf(LevelInfo, zerolog.InfoLevel, format, args)
}
func (l *consoleLogger) Warnf(format string, args ...interface{}) {
	l.emitf(LevelWarn, zerolog.WarnLevel, format, args)
}
func (l *consoleLogger) Errorf(format string, args ...interface{}) {
	l.emitf(LevelError, zerolog.ErrorLevel, format, args)
}

// ---- production backend ----

// cloudLogger forwards every call straight through. Level filtering is a
// console concern; in the cloud the backend applies its own exclusions.
type cloudLogger struct {
	cloud gclogw.Writer
}

func (l *cloudLogger) emit(severity gclogw.Severity, args []interface{}) {
	msg, fields, errs := formatArgs(args)
	if len(errs) > 0 {
		if fields == nil {
			fields = make(map[string]interface{}, len(errs))
		}
		for i, err := range errs {
			key := "error"
			if i > 0 {
				key = fmt.Sprintf("error_%d", i)
			}
			fields[key] = err.Error()
		}
	}
	l.cloud.Write(gclogw.Entry{Severity: severity, Message: msg, Fields: fields})
}

func (l *cloudLogger) emitf(severity gclogw.Severity, format string, args []interface{}) {
	l.cloud.Write(gclogw.Entry{Severity: severity, Message: fmt.Sprintf(format, args...)})
}

func (l *cloudLogger) Debug(args ...interface{}) { l.emit(gclogw.SeverityDebug, args) }
func (l *cloudLogger) Log(args ...interface{})   { l.emit(gclogw.SeverityInfo, args) }
func (l *cloudLogger) Info(args ...interface{})  { l.emit(gclogw.SeverityInfo, args) }
func (l *cloudLogger) Warn(args ...interface{})  { l.emit(gclogw.SeverityWarning, args) }
func (l *cloudLogger) Error(args ...interface{}) { l.emit(gclogw.SeverityError, args) }

func (l *cloudLogger) Debugf(format string, args ...interface{}) {
	l.emitf(gclogw.SeverityDebug, format, args)
}
func (l *cloudLogger) Infof(format string, args ...interface{}) {
	l.emitf(gclogw.SeverityInfo, format, args)
}
func (l *cloudLogger) Warnf(format string, args ...interface{}) {
	l.emitf(gclogw.SeverityWarning, format, args)
}
func (l *cloudLogger) Errorf(format string, args ...interface{}) {
	l.emitf(gclogw.SeverityError, format, args)
}
