package configw

import (
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// Runtime is the environment-provided configuration of one function
// instance. Load it once at cold start and pass it into constructors;
// nothing in this library reads the process environment at call time.
type Runtime struct {
	LogLevel          string `env:"LOG_LEVEL" envDefault:"debug"`
	FunctionsEmulator bool   `env:"FUNCTIONS_EMULATOR"`
	Environment       string `env:"ENVIRONMENT"`
	Service           string `env:"K_SERVICE"`
	Revision          string `env:"K_REVISION"`
	ProjectID         string `env:"GCLOUD_PROJECT"`
	SentryDSN         string `env:"SENTRY_DSN"`
	DebugLogFile      string `env:"DEBUG_LOG_FILE"`
}

// Mode reports whether the instance runs against the local emulator stack
// or in the cloud. Any one of three signals selects development: the
// emulator flag, ENVIRONMENT=test, or ENVIRONMENT=development.
func (rt Runtime) Mode() Mode {
	if rt.FunctionsEmulator {
		return ModeDevelopment
	}
	if rt.Environment == "test" || rt.Environment == "development" {
		return ModeDevelopment
	}
	return ModeProduction
}

func Load() (Runtime, error) {
	var rt Runtime
	if err := env.Parse(&rt); err != nil {
		return Runtime{}, errors.WithStack(err)
	}
	return rt, nil
}

// LoadFromEnviron parses from an explicit variable map instead of the
// process environment. Lets tests build every mode combination without
// mutating os.Environ.
func LoadFromEnviron(environ map[string]string) (Runtime, error) {
	var rt Runtime
	err := env.ParseWithOptions(&rt, env.Options{Environment: environ})
	if err != nil {
		return Runtime{}, errors.WithStack(err)
	}
	return rt, nil
}
