package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/reqkit"
	"github.com/adamwoolhether/reqkit/download"
	"github.com/adamwoolhether/reqkit/throttle"
)

// Manager is the default [reqkit.Session]. It wraps an [http.Client]
// of its own — never the process-global default — whose client and
// transport can be customized via optional funcs, and runs every
// dispatched operation on a managed goroutine.
type Manager struct {
	c      *http.Client
	logger *slog.Logger
	tracer trace.Tracer
	expect int
	dlOpts []download.Option

	wg       sync.WaitGroup
	mu       sync.Mutex
	sem      chan struct{}
	shutdown atomic.Bool
	errs     []error
}

var _ reqkit.Session = (*Manager)(nil)

// Build constructs a Manager with the provided options.
func Build(optFns ...Option) (*Manager, error) {
	m := &Manager{
		c:      &http.Client{},
		logger: slog.Default(),
		expect: http.StatusOK,
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying manager option: %w", err)
		}
	}

	if opts.client != nil {
		m.c = opts.client
	}

	if opts.logger != nil {
		m.logger = opts.logger
	}

	if opts.timeout != nil {
		m.c.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		m.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	if opts.throttle != nil {
		rt, err := throttle.New(*opts.throttle, func() *slog.Logger { return m.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	m.c.Transport = transport

	tp := opts.tracerProvider
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	m.tracer = tp.Tracer("github.com/adamwoolhether/reqkit/manager")

	if opts.maxInFlight > 0 {
		m.sem = make(chan struct{}, opts.maxInFlight)
	}

	if opts.expect != nil {
		m.expect = *opts.expect
	}

	m.dlOpts = opts.dlOpts

	return m, nil
}

// Dispatch executes a plain request. The response body is validated
// against the expected status and discarded.
func (m *Manager) Dispatch(req *http.Request) (reqkit.Handle, error) {
	return m.start(req.Context(), "request", func(ctx context.Context, _ *Task) error {
		return m.exec(ctx, req, []int{m.expect}, nil)
	}), nil
}

// DispatchUpload executes a request whose body is supplied by src.
// When the request already carries a body (a pre-encoded multipart
// form), it is sent as-is and src serves only as the rewind source.
func (m *Manager) DispatchUpload(req *http.Request, src reqkit.BodySource) (reqkit.Handle, error) {
	return m.start(req.Context(), "upload", func(ctx context.Context, _ *Task) error {
		if req.Body == nil {
			rc, length, err := src.Open()
			if err != nil {
				return fmt.Errorf("opening body source: %w", err)
			}

			req.Body = rc
			if length >= 0 {
				req.ContentLength = length
			}
			req.GetBody = func() (io.ReadCloser, error) {
				rc, _, err := src.Open()
				return rc, err
			}
		}

		return m.exec(ctx, req, []int{m.expect}, nil)
	}), nil
}

// DispatchDownload executes req and streams the response body to disk,
// evaluating dest exactly once on completion and moving the file to
// the decided location. Cancelling the returned handle mid-stream
// retains the partial file and captures a resume token on the [Task].
func (m *Manager) DispatchDownload(req *http.Request, dest download.Destination) (reqkit.Handle, error) {
	if dest == nil {
		return nil, errors.New("destination must not be nil")
	}

	return m.start(req.Context(), "download", func(ctx context.Context, t *Task) error {
		return m.exec(ctx, req, []int{m.expect}, func(resp *http.Response) error {
			final, err := download.Handle(ctx, resp.Body, resp, dest, m.logger, m.dlOpts...)
			if err != nil {
				var cancelled *download.CancelledError
				if errors.As(err, &cancelled) {
					t.setToken(encodeResumeState(resumeState{
						URL:     req.URL.String(),
						ETag:    resp.Header.Get("ETag"),
						Offset:  cancelled.Written,
						Partial: cancelled.Partial,
					}))
				}

				return fmt.Errorf("download: %w", err)
			}

			m.logger.Info("download complete", "op", t.id, "path", final)

			return nil
		})
	}), nil
}

// DispatchResume continues an interrupted download from its token. A
// 206 response appends to the retained partial file; a 200 response
// means the server no longer honors the range, so the transfer
// restarts from scratch and the stale partial is discarded.
func (m *Manager) DispatchResume(ctx context.Context, token download.ResumeToken, dest download.Destination) (reqkit.Handle, error) {
	if dest == nil {
		return nil, errors.New("destination must not be nil")
	}

	state, err := decodeResumeState(token)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, state.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("instantiating resume request: %w", err)
	}

	req.Header.Set("Range", fmt.Sprintf("bytes=%d-", state.Offset))
	if state.ETag != "" {
		req.Header.Set("If-Range", state.ETag)
	}

	return m.start(ctx, "resume", func(ctx context.Context, t *Task) error {
		expect := []int{http.StatusPartialContent, m.expect}

		return m.exec(ctx, req, expect, func(resp *http.Response) error {
			opts := slices.Clone(m.dlOpts)

			if resp.StatusCode == http.StatusPartialContent {
				opts = append(opts, download.WithAppendTo(state.Partial, state.Offset))
			} else {
				m.logger.Info("range not honored, restarting download", "op", t.id, "url", state.URL)
				if err := os.Remove(state.Partial); err != nil && !errors.Is(err, os.ErrNotExist) {
					m.logger.Error("failed to remove stale partial", "error", err)
				}
			}

			final, err := download.Handle(ctx, resp.Body, resp, dest, m.logger, opts...)
			if err != nil {
				var cancelled *download.CancelledError
				if errors.As(err, &cancelled) {
					// Written already includes the bytes from the prior attempt.
					t.setToken(encodeResumeState(resumeState{
						URL:     state.URL,
						ETag:    resp.Header.Get("ETag"),
						Offset:  cancelled.Written,
						Partial: cancelled.Partial,
					}))
				}

				return fmt.Errorf("resume download: %w", err)
			}

			m.logger.Info("resumed download complete", "op", t.id, "path", final)

			return nil
		})
	}), nil
}

// exec runs the request and injected function after validating the
// response status against the expected set.
func (m *Manager) exec(ctx context.Context, req *http.Request, expect []int, fn execFn) error {
	req = req.WithContext(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := m.c.Do(req)
	if err != nil {
		return fmt.Errorf("exec http do: %w", err)
	}

	discardBody := true
	defer func() {
		if discardBody {
			if _, err = io.Copy(io.Discard, resp.Body); err != nil {
				m.logger.Error("failed to discard unused body", "error", err)
			}
		}
		if err = resp.Body.Close(); err != nil {
			m.logger.Error("failed to close response body", "error", err)
		}
	}()

	if !slices.Contains(expect, resp.StatusCode) {
		b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBodySize))
		if err != nil {
			b = []byte("unable to read body")
		}

		return &UnexpectedStatusError{
			StatusCode: resp.StatusCode,
			Body:       string(b),
			Err:        ErrUnexpectedStatusCode,
		}
	}

	if fn != nil {
		if err := fn(resp); err != nil {
			discardBody = false
			return fmt.Errorf("exec fn: %w", err)
		}
	}

	return nil
}
