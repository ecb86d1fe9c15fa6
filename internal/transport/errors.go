package transport

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrorKind classifies filesystem failures.
type ErrorKind int

const (
	Other ErrorKind = iota
	NotFound
	PermissionDenied
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case PermissionDenied:
		return "permission denied"
	default:
		return "other"
	}
}

// PathError records a failed metadata or listing operation on Path.
type PathError struct {
	Err  error
	Op   string
	Path string
	Kind ErrorKind
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// KindOf classifies err. Errors that carry no filesystem cause are Other.
func KindOf(err error) ErrorKind {
	var pe *PathError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return classify(err)
}

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NotFound
	case errors.Is(err, fs.ErrPermission):
		return PermissionDenied
	default:
		return Other
	}
}

// newPathError wraps err for op on path. An inner *fs.PathError is unwrapped
// so the path is not repeated in the message.
func newPathError(op, path string, err error) error {
	inner := err
	var fsErr *fs.PathError
	if errors.As(err, &fsErr) {
		inner = fsErr.Err
	}
	return &PathError{
		Op:   op,
		Path: path,
		Kind: classify(err),
		Err:  inner,
	}
}
