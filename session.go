package reqkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"

	"github.com/adamwoolhether/reqkit/download"
)

// Handle represents an in-flight operation owned by the [Session].
// The facade never interprets it beyond this surface.
type Handle interface {
	// Done returns a channel closed when the operation completes.
	Done() <-chan struct{}

	// Err blocks until the operation completes and returns its error.
	Err() error

	// Cancel requests cancellation of the in-flight operation.
	Cancel()
}

// Session is the external collaborator owning socket I/O, connection
// pooling, task lifecycle, and response handling. Once a request is
// handed to a Session, the Session is its sole owner.
//
// The [github.com/adamwoolhether/reqkit/manager] package provides the
// default implementation. There is no ambient shared instance; a
// Session is always constructed and passed in explicitly.
type Session interface {
	Dispatch(req *http.Request) (Handle, error)
	DispatchUpload(req *http.Request, body BodySource) (Handle, error)
	DispatchDownload(req *http.Request, dest download.Destination) (Handle, error)
	DispatchResume(ctx context.Context, token download.ResumeToken, dest download.Destination) (Handle, error)
}

// ErrSourceConsumed indicates a one-shot [BodySource] was opened twice.
var ErrSourceConsumed = errors.New("body source already consumed")

// BodySource supplies an upload body to the [Session].
type BodySource interface {
	// Open returns a reader over the body and its length in bytes, or
	// -1 when the length is unknown. Rewindable sources return a fresh
	// reader on every call; one-shot sources fail with
	// [ErrSourceConsumed] on the second.
	Open() (io.ReadCloser, int64, error)
}

// DataSource uploads an in-memory byte slice. It is rewindable.
type DataSource []byte

func (d DataSource) Open() (io.ReadCloser, int64, error) {
	return io.NopCloser(bytes.NewReader(d)), int64(len(d)), nil
}

// FileSource uploads the contents of a file. It is rewindable; the
// file is reopened and re-measured on every call.
type FileSource string

func (f FileSource) Open() (io.ReadCloser, int64, error) {
	file, err := os.Open(string(f))
	if err != nil {
		return nil, 0, fmt.Errorf("opening upload file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("sizing upload file: %w", err)
	}

	return file, info.Size(), nil
}

// ReaderSource uploads from an arbitrary reader exactly once. The
// length is unknown unless supplied.
type ReaderSource struct {
	r        io.Reader
	length   int64
	consumed atomic.Bool
}

// NewReaderSource wraps r as a one-shot [BodySource] with unknown length.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r, length: -1}
}

// NewReaderSourceLen wraps r as a one-shot [BodySource] of the given length.
func NewReaderSourceLen(r io.Reader, length int64) *ReaderSource {
	return &ReaderSource{r: r, length: length}
}

func (s *ReaderSource) Open() (io.ReadCloser, int64, error) {
	if s.consumed.Swap(true) {
		return nil, 0, ErrSourceConsumed
	}

	if rc, ok := s.r.(io.ReadCloser); ok {
		return rc, s.length, nil
	}

	return io.NopCloser(s.r), s.length, nil
}
