// Package tasks runs best-effort background work detached from the request
// that submitted it. Tasks get a context independent of the caller's, their
// failures go to a structured log, and a task outcome can never affect the
// submitter's response.
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner executes submitted tasks on their own goroutines.
type Runner struct {
	lg      *zap.Logger
	timeout time.Duration

	mu     sync.Mutex
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// NewRunner creates a Runner. Every task runs with its own context derived
// from the runner, bounded by timeout (when non-zero) so abandoned tasks
// cannot leak forever.
func NewRunner(lg *zap.Logger, timeout time.Duration) *Runner {
	base, cancel := context.WithCancel(context.Background())
	return &Runner{
		lg:      lg,
		timeout: timeout,
		base:    base,
		cancel:  cancel,
	}
}

// Submit schedules fn to run in the background. The call never blocks and
// never reports fn's outcome to the caller; errors and panics are logged
// under the task name. Submissions after Close are dropped with a log line.
func (r *Runner) Submit(name string, fn func(ctx context.Context) error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.lg.Warn("task dropped: runner closed", zap.String("task", name))
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()

		ctx := r.base
		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}

		defer func() {
			if rec := recover(); rec != nil {
				r.lg.Error("task panicked",
					zap.String("task", name),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
			}
		}()

		if err := fn(ctx); err != nil {
			r.lg.Warn("task failed", zap.String("task", name), zap.Error(err))
		}
	}()
}

// Close stops accepting new tasks, waits up to grace for in-flight tasks to
// finish, then cancels whatever is left.
func (r *Runner) Close(grace time.Duration) {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(grace):
		r.lg.Warn("tasks still running at shutdown, cancelling")
	}
	r.cancel()
}

// Wait blocks until all currently submitted tasks have finished. Intended
// for tests.
func (r *Runner) Wait() {
	r.wg.Wait()
}
