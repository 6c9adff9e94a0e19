// Package logrusw builds logrus loggers for function code. Local runs get
// a colorized text logger; in the cloud every serialized entry is re-emitted
// through the structured Cloud Logging writer with a mapped severity.
package logrusw

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/valian-ca/firebase-functions/configw"
	"github.com/valian-ca/firebase-functions/gclogw"
)

type Option struct {
	Runtime configw.Runtime

	// Level overrides the minimum level name; defaults to the runtime
	// LOG_LEVEL, then to "debug".
	Level string

	// Output is the development destination. Defaults to stdout.
	Output io.Writer

	// Cloud is the production forward target. Defaults to the stdout
	// structured writer.
	Cloud gclogw.Writer
}

// New returns a fully wired *logrus.Logger, so callers keep the whole
// logrus API: leveled methods, WithField/WithFields child loggers,
// arbitrary structured fields.
func New(option *Option) (*logrus.Logger, error) {
	if option == nil {
		option = &Option{}
	}

	instance := logrus.New()
	instance.SetLevel(minLevel(option))

	if option.Runtime.Mode() == configw.ModeDevelopment {
		out := option.Output
		if out == nil {
			out = os.Stdout
		}
		instance.SetOutput(out)
		instance.SetFormatter(&logrus.TextFormatter{
			ForceColors:   true,
			FullTimestamp: true,
		})
		return instance, nil
	}

	cloud := option.Cloud
	if cloud == nil {
		cloud = gclogw.NewStdoutWriter()
	}
	instance.SetFormatter(newWireFormatter())
	instance.SetOutput(&forwardWriter{cloud: cloud})
	return instance, nil
}

func minLevel(option *Option) logrus.Level {
	name := option.Level
	if name == "" {
		name = option.Runtime.LogLevel
	}
	if name == "" {
		name = "debug"
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		// unrecognized names log everything, same as the facade
		return logrus.DebugLevel
	}
	return level
}
