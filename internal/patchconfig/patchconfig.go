// Package patchconfig loads the optional HCL file that configures ticbridge.
//
//	patch {
//	  target        = "jstarget.js"
//	  payload       = "dist/cart.js"
//	  start_marker  = "// script:  js"
//	  end_marker    = "// <TILES>"
//	  backup_suffix = ".bak"
//	  atomic        = true
//	}
//
//	run {
//	  frames    = 60
//	  rows      = 136
//	  scanlines = false
//	}
//
// Expressions may read environment variables as env.NAME and call format,
// lower, upper and trimspace. A relative payload path is resolved against
// the directory holding the file.
package patchconfig

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/ticbridge/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// DefaultFile is looked up in the working directory when no file is named.
const DefaultFile = "ticbridge.hcl"

// Patch configures the splice.
type Patch struct {
	Target       string
	Payload      string
	StartMarker  string
	EndMarker    string
	BackupSuffix string
	Atomic       bool
}

// Run configures the headless host loop.
type Run struct {
	Frames    int
	Rows      int
	Scanlines bool
}

// Settings is the merged configuration.
type Settings struct {
	Patch Patch
	Run   Run
	// Source is the file the settings were read from, empty for defaults.
	Source string
}

// Defaults returns the built-in settings.
func Defaults() *Settings {
	return &Settings{
		Patch: Patch{
			Target:       "jstarget.js",
			Payload:      filepath.Join("dist", "cart.js"),
			StartMarker:  "// script:  js",
			EndMarker:    "// <TILES>",
			BackupSuffix: ".bak",
			Atomic:       true,
		},
		Run: Run{
			Frames: 60,
			Rows:   136,
		},
	}
}

type fileRoot struct {
	Patch *patchBlock `hcl:"patch,block"`
	Run   *runBlock   `hcl:"run,block"`
}

type patchBlock struct {
	Target       *string `hcl:"target,optional"`
	Payload      *string `hcl:"payload,optional"`
	StartMarker  *string `hcl:"start_marker,optional"`
	EndMarker    *string `hcl:"end_marker,optional"`
	BackupSuffix *string `hcl:"backup_suffix,optional"`
	Atomic       *bool   `hcl:"atomic,optional"`
}

type runBlock struct {
	Frames    *int  `hcl:"frames,optional"`
	Rows      *int  `hcl:"rows,optional"`
	Scanlines *bool `hcl:"scanlines,optional"`
}

// Load reads path on top of Defaults. When required is false a missing file
// yields the defaults. vars populates env.* in expressions.
func Load(ctx context.Context, path string, required bool, vars map[string]string) (*Settings, error) {
	logger := ctxlog.FromContext(ctx)
	settings := Defaults()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			logger.Debug("No config file, using defaults.", "path", path)
			return settings, nil
		}
		return nil, fmt.Errorf("error accessing config %s: %w", path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, evalContext(vars), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	if p := root.Patch; p != nil {
		setString(&settings.Patch.Target, p.Target)
		setString(&settings.Patch.Payload, p.Payload)
		setString(&settings.Patch.StartMarker, p.StartMarker)
		setString(&settings.Patch.EndMarker, p.EndMarker)
		setString(&settings.Patch.BackupSuffix, p.BackupSuffix)
		if p.Atomic != nil {
			settings.Patch.Atomic = *p.Atomic
		}
		if p.Payload != nil && !filepath.IsAbs(*p.Payload) {
			settings.Patch.Payload = filepath.Join(filepath.Dir(path), *p.Payload)
		}
	}
	if r := root.Run; r != nil {
		if r.Frames != nil {
			settings.Run.Frames = *r.Frames
		}
		if r.Rows != nil {
			settings.Run.Rows = *r.Rows
		}
		if r.Scanlines != nil {
			settings.Run.Scanlines = *r.Scanlines
		}
	}
	settings.Source = path

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	logger.Debug("Config file loaded.", "path", path)
	return settings, nil
}

// Validate checks the settings for values no run could use.
func (s *Settings) Validate() error {
	switch {
	case s.Patch.StartMarker == "":
		return errors.New("start_marker must not be empty")
	case s.Patch.EndMarker == "":
		return errors.New("end_marker must not be empty")
	case s.Patch.BackupSuffix == "":
		return errors.New("backup_suffix must not be empty")
	case s.Run.Frames < 0:
		return errors.New("frames must not be negative")
	case s.Run.Rows < 0:
		return errors.New("rows must not be negative")
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func evalContext(vars map[string]string) *hcl.EvalContext {
	env := make(map[string]cty.Value, len(vars))
	for k, v := range vars {
		env[k] = cty.StringVal(v)
	}
	envVal := cty.EmptyObjectVal
	if len(env) > 0 {
		envVal = cty.ObjectVal(env)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": envVal},
		Functions: map[string]function.Function{
			"format":    stdlib.FormatFunc,
			"lower":     stdlib.LowerFunc,
			"upper":     stdlib.UpperFunc,
			"trimspace": stdlib.TrimSpaceFunc,
		},
	}
}
