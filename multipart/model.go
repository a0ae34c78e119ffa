package multipart

import (
	"errors"
	"fmt"
	"net/http"
)

// DefaultMemoryThreshold is the byte total above which multipart
// bodies are streamed to a temporary file instead of encoded in
// memory.
const DefaultMemoryThreshold int64 = 10 << 20 // 10 MiB

var (
	ErrInvalidPart    = errors.New("invalid part")
	ErrUnreadablePart = errors.New("unreadable part")
	ErrTempFile       = errors.New("temp file failure")
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

// Outcome is the result of one encode call.
type Outcome struct {
	// Request is the encoded request with body, Content-Type, and
	// length attached. Nil when Err is set.
	Request *http.Request

	// ContentType is the multipart/form-data type including the boundary.
	ContentType string

	// Length is the final encoded body length in bytes.
	Length int64

	// TempFile is the private temporary file backing the body when the
	// disk path was taken, empty otherwise. It is not deleted by this
	// package; once consumed, its lifetime is the caller's
	// responsibility.
	TempFile string

	// Err is the encoding failure, if any.
	Err error
}
