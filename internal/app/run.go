package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vk/ticbridge/internal/adapter"
	"github.com/vk/ticbridge/internal/hostloop"
	"github.com/vk/ticbridge/internal/luahost"
	"github.com/vk/ticbridge/internal/luamodule"
	"github.com/vk/ticbridge/internal/splice"
)

// runPatch splices the payload into the cartridge under TIC_PATH.
func (a *App) runPatch(ctx context.Context) error {
	ticPath, err := a.env.RequireTICPath()
	if err != nil {
		return err
	}

	settings, err := a.loadSettings(ctx)
	if err != nil {
		return err
	}

	rel := firstNonEmpty(a.config.Target, settings.Patch.Target)
	req := splice.Request{
		TargetPath:   filepath.Join(ticPath, rel),
		PayloadPath:  settings.Patch.Payload,
		StartMarker:  settings.Patch.StartMarker,
		EndMarker:    settings.Patch.EndMarker,
		BackupSuffix: settings.Patch.BackupSuffix,
		Atomic:       settings.Patch.Atomic,
	}
	a.logger.Debug("Splice request prepared.", "target", req.TargetPath, "payload", req.PayloadPath, "config", settings.Source)

	res, err := splice.Splice(ctx, req)
	if err != nil {
		return err
	}

	a.logger.Info("Cartridge patched.", "target", res.TargetPath, "payload_bytes", res.PayloadBytes, "replaced_bytes", len(res.Replaced))
	fmt.Fprintf(a.outW, "Patched: %s\n", res.TargetPath)
	fmt.Fprintf(a.outW, "Backup:  %s\n", res.BackupPath)
	return nil
}

// runModule binds a Lua game module to a headless host and drives it.
func (a *App) runModule(ctx context.Context) error {
	settings, err := a.loadSettings(ctx)
	if err != nil {
		return err
	}

	host := luahost.New(a.console)
	binding, err := luamodule.LoadFile(host, a.config.Target)
	if err != nil {
		return err
	}

	adp := adapter.Bind(binding.Module())
	if err := adp.Register(host); err != nil {
		return err
	}
	a.logger.Info("Module bound.", "module", a.config.Target, "registered", adp.Registered())

	stats, err := hostloop.Run(ctx, host, hostloop.Options{
		Frames:    settings.Run.Frames,
		Rows:      settings.Run.Rows,
		Scanlines: settings.Run.Scanlines,
	})
	if err != nil {
		return fmt.Errorf("module %s failed after %d frames: %w", a.config.Target, stats.Frames, err)
	}

	a.logger.Info("Module finished.", "frames", stats.Frames, "invocations", stats.Invocations)
	fmt.Fprintf(a.outW, "Frames: %d\n", stats.Frames)
	fmt.Fprintf(a.outW, "State:  %v\n", binding.Decode(adp.State()))
	return nil
}
