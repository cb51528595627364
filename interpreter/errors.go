package interpreter

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable is matched by errors for a nil stream, an empty
	// path, or a file that could not be opened.
	ErrSourceUnavailable = errors.New("interpreter: source unavailable")

	// ErrSourceRead is matched by I/O errors while reading an open source.
	ErrSourceRead = errors.New("interpreter: source read failed")
)

// SourceError describes a failure to open or read a source.
type SourceError struct {
	Op   string // "open" or "read"
	Name string
	Err  error
}

func (e *SourceError) Error() string {
	if e.Name == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Name + ": " + e.Err.Error()
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool {
	switch e.Op {
	case "open":
		return target == ErrSourceUnavailable
	case "read":
		return target == ErrSourceRead
	}
	return false
}

// HandlerError wraps an error returned by a handler. Index is the zero-based
// position of the line being dispatched within the load.
type HandlerError struct {
	Code  string
	Index int
	Err   error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("interpreter: line %d: %s: %v", e.Index, e.Code, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }
