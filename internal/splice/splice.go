package splice

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/ticbridge/internal/ctxlog"
	"github.com/vk/ticbridge/internal/fsutil"
)

// Request describes one splice of a payload file into a target document.
type Request struct {
	TargetPath   string
	PayloadPath  string
	StartMarker  string
	EndMarker    string
	BackupSuffix string
	// Atomic replaces the target through a temp file and rename instead of
	// overwriting it in place.
	Atomic bool
}

// Result reports what a successful Splice did.
type Result struct {
	TargetPath string
	BackupPath string
	// Replaced is the text that sat between the markers before the splice.
	Replaced     string
	PayloadBytes int
}

// BackupPath returns the sibling backup path used for target.
func BackupPath(target, suffix string) string {
	return target + suffix
}

// Apply returns doc with the text between the first start marker and the
// first end marker after it replaced by payload. The start marker is followed
// by a newline, and the payload is followed by one unless it already ends
// with a newline. The second return value is the text that was replaced.
func Apply(doc, start, end, payload string) (string, string, error) {
	if start == "" {
		return "", "", &Error{Kind: KindMarkerNotFound, Which: MarkerStart, Literal: start}
	}
	if end == "" {
		return "", "", &Error{Kind: KindMarkerNotFound, Which: MarkerEnd, Literal: end}
	}

	startIdx := strings.Index(doc, start)
	if startIdx == -1 {
		return "", "", &Error{Kind: KindMarkerNotFound, Which: MarkerStart, Literal: start}
	}
	headEnd := startIdx + len(start)

	// The search starts after the whole start marker so identical or
	// overlapping markers never match at the start position.
	rel := strings.Index(doc[headEnd:], end)
	if rel == -1 {
		return "", "", &Error{Kind: KindMarkerNotFound, Which: MarkerEnd, Literal: end}
	}
	tailStart := headEnd + rel

	var b strings.Builder
	b.Grow(headEnd + 2 + len(payload) + len(doc) - tailStart)
	b.WriteString(doc[:headEnd])
	b.WriteByte('\n')
	b.WriteString(payload)
	if !strings.HasSuffix(payload, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(doc[tailStart:])

	return b.String(), doc[headEnd:tailStart], nil
}

type writeFunc func(path string, data []byte, perm fs.FileMode) error

// writers are the file operations a splice performs. The backup always goes
// through inPlace.
type writers struct {
	inPlace writeFunc
	replace writeFunc
}

var osWriters = writers{inPlace: fsutil.WriteFile, replace: fsutil.ReplaceFile}

// Splice patches req.TargetPath with the content of req.PayloadPath. No file
// is touched unless both inputs exist and both markers are found, and the
// target is not touched unless the backup was written. A symlinked target is
// patched through the link; the backup sits next to the link.
func Splice(ctx context.Context, req Request) (*Result, error) {
	return splice(ctx, req, osWriters)
}

func splice(ctx context.Context, req Request, w writers) (*Result, error) {
	ctx = ctxlog.With(ctx, "target", req.TargetPath)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Splice started.", "payload", req.PayloadPath)

	if ok, err := fsutil.IsRegularFile(req.PayloadPath); err != nil {
		return nil, &Error{Kind: KindReadFailed, Path: req.PayloadPath, Err: err}
	} else if !ok {
		return nil, &Error{Kind: KindMissingInput, Path: req.PayloadPath}
	}
	if ok, err := fsutil.IsRegularFile(req.TargetPath); err != nil {
		return nil, &Error{Kind: KindReadFailed, Path: req.TargetPath, Err: err}
	} else if !ok {
		return nil, &Error{Kind: KindMissingTarget, Path: req.TargetPath}
	}

	dest, err := filepath.EvalSymlinks(req.TargetPath)
	if err != nil {
		return nil, &Error{Kind: KindReadFailed, Path: req.TargetPath, Err: err}
	}
	if dest != filepath.Clean(req.TargetPath) {
		logger.Debug("Target resolved through symlink.", "resolved", dest)
	}

	payload, err := os.ReadFile(req.PayloadPath)
	if err != nil {
		return nil, &Error{Kind: KindReadFailed, Path: req.PayloadPath, Err: err}
	}
	original, err := os.ReadFile(dest)
	if err != nil {
		return nil, &Error{Kind: KindReadFailed, Path: req.TargetPath, Err: err}
	}
	logger.Debug("Inputs read.", "payload_bytes", len(payload), "target_bytes", len(original))

	patched, replaced, err := Apply(string(original), req.StartMarker, req.EndMarker, string(payload))
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.Path = req.TargetPath
		}
		return nil, err
	}

	perm := fsutil.ModeOf(dest, fsutil.DefaultFileMode)
	backup := BackupPath(req.TargetPath, req.BackupSuffix)
	if err := w.inPlace(backup, original, perm); err != nil {
		return nil, &Error{Kind: KindBackupWriteFailed, Path: backup, Err: err}
	}
	logger.Debug("Backup written.", "backup", backup)

	write := w.inPlace
	if req.Atomic {
		write = w.replace
	}
	if err := write(dest, []byte(patched), perm); err != nil {
		return nil, &Error{Kind: KindTargetWriteFailed, Path: req.TargetPath, Err: err}
	}
	logger.Debug("Target written.", "atomic", req.Atomic, "bytes", len(patched))

	return &Result{
		TargetPath:   req.TargetPath,
		BackupPath:   backup,
		Replaced:     replaced,
		PayloadBytes: len(payload),
	}, nil
}
