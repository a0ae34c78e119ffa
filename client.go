package reqkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/adamwoolhether/reqkit/download"
	"github.com/adamwoolhether/reqkit/multipart"
)

// Client is the dispatch facade. It normalizes locators, parameters,
// and headers into canonical requests and routes them through the
// configured [Session]. A Client holds no per-request state; each
// dispatch call constructs and owns its own request until handoff, so
// concurrent calls need no locking.
type Client struct {
	session   Session
	logger    *slog.Logger
	threshold int64
}

// New builds a Client around the given Session. The Session is a
// required, explicitly passed dependency.
func New(session Session, optFns ...Option) (*Client, error) {
	if session == nil {
		return nil, ErrNilSession
	}

	c := &Client{
		session:   session,
		logger:    slog.Default(),
		threshold: multipart.DefaultMemoryThreshold,
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if opts.logger != nil {
		c.logger = opts.logger
	}
	if opts.multipartThreshold > 0 {
		c.threshold = opts.multipartThreshold
	}

	return c, nil
}

// Do builds a canonical request and dispatches it.
func (c *Client) Do(ctx context.Context, method string, locator Locator, opts ...RequestOption) (Handle, error) {
	req, err := NewRequest(ctx, method, locator, opts...)
	if err != nil {
		return nil, err
	}

	h, err := c.session.Dispatch(req)
	if err != nil {
		return nil, &DispatchError{Op: "request", Err: err}
	}

	return h, nil
}

// UploadFile dispatches an upload whose body is read from the file at
// path. Parameters given to the upload family must use a non-body
// encoding such as [QueryEncoding]; an encoding that produced a body
// fails with [ErrBodyConflict].
func (c *Client) UploadFile(ctx context.Context, method string, locator Locator, path string, opts ...RequestOption) (Handle, error) {
	return c.upload(ctx, method, locator, FileSource(path), opts)
}

// UploadData dispatches an upload of an in-memory byte slice.
func (c *Client) UploadData(ctx context.Context, method string, locator Locator, data []byte, opts ...RequestOption) (Handle, error) {
	return c.upload(ctx, method, locator, DataSource(data), opts)
}

// UploadReader dispatches an upload streamed from r. The body can be
// sent only once; redirects requiring a rewind will fail.
func (c *Client) UploadReader(ctx context.Context, method string, locator Locator, r io.Reader, opts ...RequestOption) (Handle, error) {
	return c.upload(ctx, method, locator, NewReaderSource(r), opts)
}

func (c *Client) upload(ctx context.Context, method string, locator Locator, src BodySource, opts []RequestOption) (Handle, error) {
	req, err := NewRequest(ctx, method, locator, opts...)
	if err != nil {
		return nil, err
	}

	// The upload body is the payload; parameters that encoded into a
	// body of their own (the default for POST and PUT) would be
	// overwritten by it. Reject rather than pick a winner.
	if req.Body != nil {
		return nil, fmt.Errorf("encoding parameters for upload: %w", ErrBodyConflict)
	}

	h, err := c.session.DispatchUpload(req, src)
	if err != nil {
		return nil, &DispatchError{Op: "upload", Err: err}
	}

	return h, nil
}

// UploadMultipart builds a canonical request, encodes the multipart
// form assembled by configure off this goroutine, and dispatches the
// upload once encoding completes. The returned handle resolves after
// both steps; encoding failures surface through [Handle.Err], never
// synchronously.
func (c *Client) UploadMultipart(ctx context.Context, method string, locator Locator, configure func(*multipart.Form), opts ...RequestOption) (Handle, error) {
	req, err := NewRequest(ctx, method, locator, opts...)
	if err != nil {
		return nil, err
	}

	if req.Body != nil {
		return nil, fmt.Errorf("encoding parameters for upload: %w", ErrBodyConflict)
	}

	res := multipart.Encode(req, configure,
		multipart.WithMemoryThreshold(c.threshold),
		multipart.WithLogger(c.logger),
	)

	h := newPendingHandle()
	go func() {
		out := res.Outcome()
		if out.Err != nil {
			h.fail(out.Err)
			return
		}

		src := bodySourceFunc(func() (io.ReadCloser, int64, error) {
			rc, err := out.Request.GetBody()
			return rc, out.Length, err
		})

		inner, err := c.session.DispatchUpload(out.Request, src)
		if err != nil {
			h.fail(&DispatchError{Op: "upload", Err: err})
			return
		}

		h.resolve(inner)
	}()

	return h, nil
}

// Download builds a GET request and dispatches it as a download; the
// Session streams the body, evaluates dest exactly once on completion,
// and moves the file to the decided location.
func (c *Client) Download(ctx context.Context, locator Locator, dest download.Destination, opts ...RequestOption) (Handle, error) {
	if dest == nil {
		return nil, errors.New("destination must not be nil")
	}

	req, err := NewRequest(ctx, http.MethodGet, locator, opts...)
	if err != nil {
		return nil, err
	}

	h, err := c.session.DispatchDownload(req, dest)
	if err != nil {
		return nil, &DispatchError{Op: "download", Err: err}
	}

	return h, nil
}

// DownloadResume continues a previously interrupted download from its
// opaque resume token. The token is forwarded to the Session
// unmodified and uninterpreted; a stale or foreign token is reported
// by the Session at dispatch time.
func (c *Client) DownloadResume(ctx context.Context, token download.ResumeToken, dest download.Destination) (Handle, error) {
	if len(token) == 0 {
		return nil, ErrEmptyResumeToken
	}
	if dest == nil {
		return nil, errors.New("destination must not be nil")
	}

	h, err := c.session.DispatchResume(ctx, token, dest)
	if err != nil {
		return nil, &DispatchError{Op: "resume", Err: err}
	}

	return h, nil
}

type bodySourceFunc func() (io.ReadCloser, int64, error)

func (f bodySourceFunc) Open() (io.ReadCloser, int64, error) { return f() }

// pendingHandle fronts an operation whose dispatch happens after an
// asynchronous step (multipart encoding). It proxies the inner handle
// once available and honors cancellation requested before that.
type pendingHandle struct {
	done chan struct{}
	err  error

	mu        sync.Mutex
	inner     Handle
	cancelled bool
}

func newPendingHandle() *pendingHandle {
	return &pendingHandle{done: make(chan struct{})}
}

func (h *pendingHandle) Done() <-chan struct{} { return h.done }

func (h *pendingHandle) Err() error {
	<-h.done
	return h.err
}

func (h *pendingHandle) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.cancelled = true
	if h.inner != nil {
		h.inner.Cancel()
	}
}

func (h *pendingHandle) fail(err error) {
	h.err = err
	close(h.done)
}

func (h *pendingHandle) resolve(inner Handle) {
	h.mu.Lock()
	h.inner = inner
	if h.cancelled {
		inner.Cancel()
	}
	h.mu.Unlock()

	go func() {
		h.err = inner.Err()
		close(h.done)
	}()
}
