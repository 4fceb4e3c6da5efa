package coroutine

import (
	"context"

	"github.com/amp-labs/screenflow/future"
	"github.com/amp-labs/screenflow/logger"
)

// Handle observes a coroutine's completion. It satisfies Awaitable, so one
// coroutine can wait for another with co.Await(handle).
type Handle struct {
	name    string
	fut     *future.Future[struct{}]
	promise *future.Promise[struct{}]
}

func newHandle(name string) *Handle {
	fut, promise := future.New[struct{}]()

	return &Handle{
		name:    name,
		fut:     fut,
		promise: promise,
	}
}

// Name returns the coroutine's name.
func (h *Handle) Name() string {
	return h.name
}

// IsDone reports whether the coroutine has finished.
func (h *Handle) IsDone() bool {
	return h.fut.IsDone()
}

// OnDone runs hook synchronously when the coroutine finishes, on the
// scheduler's logical thread. If it already finished, hook runs immediately.
func (h *Handle) OnDone(hook func()) {
	h.fut.OnDone(hook)
}

// Done returns a channel closed when the coroutine finishes.
func (h *Handle) Done() <-chan struct{} {
	return h.fut.Done()
}

// Err returns the coroutine's failure: the task's returned error, a wrapped
// ErrPanic, or ErrStopped. It is nil while running or after success.
func (h *Handle) Err() error {
	return h.fut.Err()
}

// Wait blocks the calling goroutine until the coroutine finishes or ctx is
// done. It must not be called from inside a coroutine; use co.Await instead.
func (h *Handle) Wait(ctx context.Context) error {
	_, err := h.fut.Await(ctx)

	return err
}

// complete resolves the handle and runs its done hooks.
func (h *Handle) complete(ctx context.Context, err error) {
	if !h.promise.Complete(struct{}{}, err) {
		logger.Get(ctx).Warn("coroutine handle completed twice", "coroutine", h.name)
	}
}
