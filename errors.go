package reqkit

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAddress indicates a locator could not resolve to an
	// absolute URI. It is reported synchronously at build time.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrNilSession indicates a [Client] was constructed without a Session.
	ErrNilSession = errors.New("session must not be nil")

	// ErrEmptyResumeToken indicates a resume continuation was requested
	// with no token data.
	ErrEmptyResumeToken = errors.New("resume token must not be empty")

	// ErrBodyConflict indicates an upload was given parameters whose
	// encoding produced a request body, which the upload body would then
	// overwrite. Upload parameters must use a non-body encoding such as
	// [QueryEncoding].
	ErrBodyConflict = errors.New("parameter encoding conflicts with upload body")
)

// EncodingError reports a structured parameter serialization failure.
// Failures from [CustomEncoding] are forwarded as-is and never wrapped
// in this type.
type EncodingError struct {
	Encoding string
	Err      error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding parameters (%s): %v", e.Encoding, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// DispatchError wraps any failure reported by the [Session]. The
// underlying cause is opaque to this package and forwarded untouched.
type DispatchError struct {
	Op  string
	Err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Op, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
