package download

import (
	"errors"
	"fmt"
)

var (
	ErrContentLengthMismatch = errors.New("content length mismatch")
	ErrChecksumMismatch      = errors.New("checksum mismatch")
	ErrCancelled             = errors.New("download cancelled")
)

// Error wraps a sentinel error with additional detail.
type Error struct {
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CancelledError reports a download interrupted by context
// cancellation. The partial file is retained so the session manager
// can capture resume state from it.
type CancelledError struct {
	// Partial is the retained partial file.
	Partial string
	// Written is the total number of body bytes on disk, including any
	// bytes from a previous attempt this one was resuming.
	Written int64
	Err     error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("%v after %d bytes (partial %s): %v", ErrCancelled, e.Written, e.Partial, e.Err)
}

func (e *CancelledError) Unwrap() []error {
	return []error{ErrCancelled, e.Err}
}
