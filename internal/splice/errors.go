package splice

import (
	"errors"
	"fmt"
)

// Kind classifies a splice failure.
type Kind int

const (
	KindMissingInput Kind = iota + 1
	KindMissingTarget
	KindMarkerNotFound
	KindReadFailed
	KindBackupWriteFailed
	KindTargetWriteFailed
)

// Marker identifies which boundary a MarkerNotFound error refers to.
type Marker string

const (
	MarkerStart Marker = "start"
	MarkerEnd   Marker = "end"
)

// Sentinels for errors.Is. Every *Error matches exactly one of them, except
// KindReadFailed which only matches its wrapped cause.
var (
	ErrMissingInput      = errors.New("missing input")
	ErrMissingTarget     = errors.New("missing target")
	ErrMarkerNotFound    = errors.New("marker not found")
	ErrBackupWriteFailed = errors.New("backup write failed")
	ErrTargetWriteFailed = errors.New("target write failed")
)

// Error is returned by Splice and Apply.
type Error struct {
	Kind Kind
	// Path is the file involved, if any.
	Path string
	// Which and Literal are set for KindMarkerNotFound.
	Which   Marker
	Literal string
	Err     error
}

// Error implements the error interface for Error.
func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingInput:
		return fmt.Sprintf("missing %s: run the build first", e.Path)
	case KindMissingTarget:
		return fmt.Sprintf("target not found: %s", e.Path)
	case KindMarkerNotFound:
		if e.Which == MarkerEnd {
			return fmt.Sprintf("end marker not found after start: %q", e.Literal)
		}
		return fmt.Sprintf("start marker not found: %q", e.Literal)
	case KindReadFailed:
		return fmt.Sprintf("read %s: %v", e.Path, e.Err)
	case KindBackupWriteFailed:
		return fmt.Sprintf("write backup %s: %v", e.Path, e.Err)
	case KindTargetWriteFailed:
		return fmt.Sprintf("write target %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("splice failed: %v", e.Err)
}

// Unwrap returns the underlying I/O error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrMissingInput:
		return e.Kind == KindMissingInput
	case ErrMissingTarget:
		return e.Kind == KindMissingTarget
	case ErrMarkerNotFound:
		return e.Kind == KindMarkerNotFound
	case ErrBackupWriteFailed:
		return e.Kind == KindBackupWriteFailed
	case ErrTargetWriteFailed:
		return e.Kind == KindTargetWriteFailed
	}
	return false
}
