// Package envconfig reads the environment variables ticbridge understands.
package envconfig

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// TICPathExample is shown when TIC_PATH is missing.
const TICPathExample = `TIC_PATH="/Users/you/Library/Application Support/com.nesbox.tic/TIC-80"`

// ErrTICPathMissing is returned by RequireTICPath when TIC_PATH is unset.
var ErrTICPathMissing = errors.New("TIC_PATH not set. Example: " + TICPathExample)

// Env holds environment configuration. Empty optional fields mean "not set".
type Env struct {
	// TICPath is the console's data directory that cartridge targets are
	// resolved against.
	TICPath   string `env:"TIC_PATH"`
	LogLevel  string `env:"TICBRIDGE_LOG_LEVEL"`
	LogFormat string `env:"TICBRIDGE_LOG_FORMAT"`
	// Config overrides the default HCL config file location.
	Config string `env:"TICBRIDGE_CONFIG"`
}

// ParseFrom loads Env from vars instead of the process environment when vars
// is non-nil.
func ParseFrom(vars map[string]string) (*Env, error) {
	var e Env
	opts := env.Options{}
	if vars != nil {
		opts.Environment = vars
	}
	if err := env.ParseWithOptions(&e, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &e, nil
}

// RequireTICPath returns TICPath or ErrTICPathMissing.
func (e *Env) RequireTICPath() (string, error) {
	if e.TICPath == "" {
		return "", ErrTICPathMissing
	}
	return e.TICPath, nil
}
