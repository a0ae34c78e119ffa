package multipart

import "context"

// Result represents an in-flight or completed encode call. The outcome
// is delivered exactly once, whether encoding succeeds or fails; the
// channel returned by [Result.Done] is the sole synchronization point,
// and no particular goroutine should be assumed for the encoding work.
type Result struct {
	done    chan struct{}
	outcome Outcome
}

// Done returns a channel that is closed when encoding completes.
func (r *Result) Done() <-chan struct{} { return r.done }

// Outcome blocks until encoding completes and returns the outcome.
func (r *Result) Outcome() Outcome {
	<-r.done
	return r.outcome
}

// Wait blocks until encoding completes or ctx ends. The encode keeps
// running when ctx ends first; the outcome stays available via
// [Result.Outcome].
func (r *Result) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-r.done:
		return r.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
