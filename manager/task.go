package manager

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/reqkit/download"
)

// Task represents an in-flight or completed operation. It satisfies
// [reqkit.Handle] and additionally exposes the resume token captured
// from a cancelled download.
type Task struct {
	id     string
	done   chan struct{}
	err    error
	cancel context.CancelFunc

	mu    sync.Mutex
	token download.ResumeToken
}

// Done returns a channel that is closed when the operation completes.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err blocks until the operation completes and returns its error.
func (t *Task) Err() error {
	<-t.done
	return t.err
}

// Cancel cancels the operation's context.
func (t *Task) Cancel() { t.cancel() }

// ID is the unique identifier logged and traced for this operation.
func (t *Task) ID() string { return t.id }

// ResumeToken blocks until the operation completes and returns the
// opaque continuation data captured from a download cancelled
// mid-stream, or nil when nothing was captured.
func (t *Task) ResumeToken() download.ResumeToken {
	<-t.done

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

func (t *Task) setToken(token download.ResumeToken) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
}

// start launches fn on a managed goroutine and returns its Task. The
// concurrency semaphore, shutdown gate, and tracing span all live
// here so the dispatch methods stay thin.
func (m *Manager) start(ctx context.Context, op string, fn func(ctx context.Context, t *Task) error) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		id:     uuid.NewString(),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	m.wg.Add(1)
	go func() {
		defer func() {
			cancel()
			close(t.done)
			m.wg.Done()
		}()

		if m.sem != nil {
			select {
			case m.sem <- struct{}{}:
				defer func() {
					<-m.sem
				}()
			case <-ctx.Done():
				t.err = ctx.Err()
				m.recordErr(t.err)
				return
			}
		}

		if m.shutdown.Load() {
			t.err = ErrManagerShutdown
			m.recordErr(t.err)
			return
		}

		ctx, span := m.tracer.Start(ctx, "reqkit."+op,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.String("reqkit.op.id", t.id)),
		)
		defer span.End()

		t.err = fn(ctx, t)
		if t.err != nil {
			span.RecordError(t.err)
			span.SetStatus(codes.Error, t.err.Error())
			m.recordErr(t.err)
		}
	}()

	return t
}

// Wait blocks until all in-flight operations complete and returns
// their errors joined via errors.Join.
func (m *Manager) Wait() error {
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()

	return errors.Join(m.errs...)
}

// Shutdown prevents new work from executing on this manager.
func (m *Manager) Shutdown() {
	m.shutdown.Store(true)
}

// recordErr appends err to the manager's error slice under the mutex.
func (m *Manager) recordErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
}
