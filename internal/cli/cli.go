package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/ticbridge/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const usageText = `
ticbridge - splice a built game bundle into a TIC-80 cartridge, or drive a
Lua game module headlessly.

Usage:
  ticbridge [patch] [options] [TARGET]
  ticbridge run [options] MODULE

Arguments:
  TARGET
    Cartridge file relative to $TIC_PATH (default from config: jstarget.js).
  MODULE
    Lua file returning a table with initial_state and optional
    tic/boot/menu/bdr/scn handlers.

Environment:
  TIC_PATH               Console data directory (required for patch).
  TICBRIDGE_CONFIG       HCL config file (default ./ticbridge.hcl if present).
  TICBRIDGE_LOG_LEVEL    Default for --log-level.
  TICBRIDGE_LOG_FORMAT   Default for --log-format.

Options:
`

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	command := app.CommandPatch
	if len(args) > 0 {
		switch args[0] {
		case string(app.CommandPatch), string(app.CommandRun):
			command = app.Command(args[0])
			args = args[1:]
		}
	}

	flagSet := flag.NewFlagSet("ticbridge "+string(command), flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usageText)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the HCL config file.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	var (
		payloadFlag, startFlag, endFlag, suffixFlag *string
		atomicFlag, scanlinesFlag                   *bool
		framesFlag, rowsFlag                        *int
	)
	if command == app.CommandPatch {
		payloadFlag = flagSet.String("payload", "dist/cart.js", "Path to the built bundle to insert.")
		startFlag = flagSet.String("start-marker", "// script:  js", "Literal that opens the replaced region.")
		endFlag = flagSet.String("end-marker", "// <TILES>", "Literal that closes the replaced region.")
		suffixFlag = flagSet.String("backup-suffix", ".bak", "Suffix of the backup written next to the target.")
		atomicFlag = flagSet.Bool("atomic", true, "Replace the target via temp file and rename.")
	} else {
		framesFlag = flagSet.Int("frames", 60, "Number of frames to run.")
		rowsFlag = flagSet.Int("rows", 136, "Rows per frame for SCN/BDR callbacks.")
		scanlinesFlag = flagSet.Bool("scanlines", false, "Invoke SCN and BDR for every row.")
	}

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.", "command", command)

	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %s", strings.Join(flagSet.Args()[1:], " "))}
	}
	target := flagSet.Arg(0)

	if command == app.CommandRun && target == "" {
		slog.Debug("No module provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	// Only flags the user actually set override the config file.
	set := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var logFormat, logLevel string
	if set["log-format"] {
		logFormat = strings.ToLower(*logFormatFlag)
		if logFormat != "text" && logFormat != "json" {
			return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
		}
	}
	if set["log-level"] {
		logLevel = strings.ToLower(*logLevelFlag)
		switch logLevel {
		case "debug", "info", "warn", "error":
			// valid
		default:
			return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
		}
	}
	slog.Debug("CLI parameter validation complete.")

	var o app.Overrides
	if set["payload"] {
		o.Payload = payloadFlag
	}
	if set["start-marker"] {
		o.StartMarker = startFlag
	}
	if set["end-marker"] {
		o.EndMarker = endFlag
	}
	if set["backup-suffix"] {
		o.BackupSuffix = suffixFlag
	}
	if set["atomic"] {
		o.Atomic = atomicFlag
	}
	if set["frames"] {
		o.Frames = framesFlag
	}
	if set["rows"] {
		o.Rows = rowsFlag
	}
	if set["scanlines"] {
		o.Scanlines = scanlinesFlag
	}

	config, err := app.NewConfig(app.Config{
		Command:    command,
		Target:     target,
		ConfigPath: *configFlag,
		Overrides:  o,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
