// Package hostloop drives a runtime's global callbacks headlessly, in the
// order a fantasy console's frame loop fires them.
package hostloop

import (
	"context"
	"fmt"

	"github.com/vk/ticbridge/internal/adapter"
	"github.com/vk/ticbridge/internal/ctxlog"
)

// ScreenRows is the height of the console screen.
const ScreenRows = 136

// Invoker calls a global callback by name. It reports whether the callback
// was defined.
type Invoker interface {
	Invoke(event adapter.Event, payload ...int) (bool, error)
}

// Options controls a run.
type Options struct {
	Frames int
	// Rows is the number of SCN/BDR invocations per frame; 0 means ScreenRows.
	Rows int
	// Scanlines enables the per-row callbacks.
	Scanlines bool
}

// Stats summarises a run.
type Stats struct {
	Frames      int
	Invocations int
	Skipped     int
}

// Run invokes BOOT once and then Frames frames of TIC (followed by SCN and
// BDR per row when enabled). It stops at the first callback error or when ctx
// is done.
func Run(ctx context.Context, inv Invoker, opts Options) (Stats, error) {
	logger := ctxlog.FromContext(ctx)
	rows := opts.Rows
	if rows <= 0 {
		rows = ScreenRows
	}

	var stats Stats
	invoke := func(event adapter.Event, payload ...int) error {
		called, err := inv.Invoke(event, payload...)
		if called {
			stats.Invocations++
		} else {
			stats.Skipped++
		}
		return err
	}

	if err := invoke(adapter.EventBoot); err != nil {
		return stats, fmt.Errorf("boot: %w", err)
	}

	for frame := 0; frame < opts.Frames; frame++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := invoke(adapter.EventTic); err != nil {
			return stats, fmt.Errorf("frame %d: %w", frame, err)
		}
		if opts.Scanlines {
			for row := 0; row < rows; row++ {
				if err := invoke(adapter.EventScanline, row); err != nil {
					return stats, fmt.Errorf("frame %d row %d: %w", frame, row, err)
				}
				if err := invoke(adapter.EventBorder, row); err != nil {
					return stats, fmt.Errorf("frame %d row %d: %w", frame, row, err)
				}
			}
		}
		stats.Frames++
	}

	logger.Debug("Host loop finished.", "frames", stats.Frames, "invocations", stats.Invocations, "skipped", stats.Skipped)
	return stats, nil
}
