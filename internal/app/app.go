package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/ticbridge/internal/ctxlog"
	"github.com/vk/ticbridge/internal/envconfig"
	"github.com/vk/ticbridge/internal/luahost"
	"github.com/vk/ticbridge/internal/patchconfig"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	env     *envconfig.Env
	environ map[string]string
	console luahost.Console
}

// NewApp is the constructor for the main application. Results go to outW,
// logs to logW. environ is the process environment as a map; it feeds both
// envconfig and env.* in the HCL config.
func NewApp(outW, logW io.Writer, cfg *Config, environ map[string]string) (*App, error) {
	env, err := envconfig.ParseFrom(environ)
	if err != nil {
		return nil, err
	}

	level := firstNonEmpty(cfg.LogLevel, env.LogLevel, "info")
	format := firstNonEmpty(cfg.LogFormat, env.LogFormat, "text")
	logger := newLogger(level, format, logW)
	logger.Debug("Logger configured successfully.", "level", level, "format", format)

	return &App{
		outW:    outW,
		logger:  logger,
		config:  cfg,
		env:     env,
		environ: environ,
		console: luahost.NewRecorder(),
	}, nil
}

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	var err error
	switch a.config.Command {
	case CommandPatch:
		err = a.runPatch(ctx)
	case CommandRun:
		err = a.runModule(ctx)
	default:
		err = fmt.Errorf("unknown command %q", a.config.Command)
	}

	a.logger.Debug("App.Run method finished.", "error", err)
	return err
}

// loadSettings resolves the HCL file and applies command-line overrides.
func (a *App) loadSettings(ctx context.Context) (*patchconfig.Settings, error) {
	path, required := patchconfig.DefaultFile, false
	if p := firstNonEmpty(a.config.ConfigPath, a.env.Config); p != "" {
		path, required = p, true
	}

	settings, err := patchconfig.Load(ctx, path, required, a.environ)
	if err != nil {
		return nil, err
	}

	o := a.config.Overrides
	if o.Payload != nil {
		settings.Patch.Payload = *o.Payload
	}
	if o.StartMarker != nil {
		settings.Patch.StartMarker = *o.StartMarker
	}
	if o.EndMarker != nil {
		settings.Patch.EndMarker = *o.EndMarker
	}
	if o.BackupSuffix != nil {
		settings.Patch.BackupSuffix = *o.BackupSuffix
	}
	if o.Atomic != nil {
		settings.Patch.Atomic = *o.Atomic
	}
	if o.Frames != nil {
		settings.Run.Frames = *o.Frames
	}
	if o.Rows != nil {
		settings.Run.Rows = *o.Rows
	}
	if o.Scanlines != nil {
		settings.Run.Scanlines = *o.Scanlines
	}
	return settings, settings.Validate()
}
