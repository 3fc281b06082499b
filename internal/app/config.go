package app

import (
	"errors"
	"fmt"
)

// Command selects the pipeline App.Run executes.
type Command string

const (
	// CommandPatch splices the built bundle into a cartridge.
	CommandPatch Command = "patch"
	// CommandRun loads a Lua module and drives it headlessly.
	CommandRun Command = "run"
)

// Overrides are values set explicitly on the command line. Nil means unset.
type Overrides struct {
	Payload      *string
	StartMarker  *string
	EndMarker    *string
	BackupSuffix *string
	Atomic       *bool
	Frames       *int
	Rows         *int
	Scanlines    *bool
}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command Command
	// Target is the cartridge path relative to TIC_PATH for patch, and the
	// module file for run. Empty means the configured default (patch only).
	Target string

	ConfigPath string // hcl file, empty for the default lookup
	Overrides  Overrides

	LogFormat string // empty defers to the environment, then "text"
	LogLevel  string // empty defers to the environment, then "info"
}

func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case CommandPatch:
	case CommandRun:
		if cfg.Target == "" {
			return nil, errors.New("run requires a MODULE path")
		}
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}

	if f := cfg.Overrides.Frames; f != nil && *f < 0 {
		return nil, errors.New("frames must not be negative")
	}
	if r := cfg.Overrides.Rows; r != nil && *r < 0 {
		return nil, errors.New("rows must not be negative")
	}
	for name, v := range map[string]*string{
		"start-marker":  cfg.Overrides.StartMarker,
		"end-marker":    cfg.Overrides.EndMarker,
		"backup-suffix": cfg.Overrides.BackupSuffix,
	} {
		if v != nil && *v == "" {
			return nil, fmt.Errorf("%s must not be empty", name)
		}
	}

	return &cfg, nil
}
