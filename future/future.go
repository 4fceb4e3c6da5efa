// Package future provides one-shot completion values.
//
// A Future is the read side of an asynchronous result and a Promise is the
// write side. A future resolves exactly once; every later attempt to complete
// it is ignored. Futures can be waited on from ordinary goroutines (Done,
// Await) and from cooperative code through OnDone, which invokes its hook
// synchronously on whichever goroutine completes the promise.
package future

import (
	"context"
	"sync"
)

// Future represents the read-only side of an asynchronous computation.
//
// The zero value is not usable; create futures with New, Resolved or Failed.
type Future[T any] struct {
	once        sync.Once
	resultReady chan struct{}

	value T
	err   error

	mu        sync.Mutex
	doneHooks []func()
}

// New creates an unresolved future and the promise that completes it.
//
// Example:
//
//	fut, promise := future.New[string]()
//	go func() {
//	    promise.Success(compute())
//	}()
//	value, err := fut.Await(ctx)
func New[T any]() (*Future[T], *Promise[T]) {
	fut := &Future[T]{
		resultReady: make(chan struct{}),
	}

	return fut, &Promise[T]{future: fut}
}

// Resolved returns a future that has already succeeded with value.
func Resolved[T any](value T) *Future[T] {
	fut, promise := New[T]()
	promise.Success(value)

	return fut
}

// Failed returns a future that has already failed with err.
func Failed[T any](err error) *Future[T] {
	fut, promise := New[T]()
	promise.Failure(err)

	return fut
}

// Done returns a channel that is closed once the future resolves.
func (f *Future[T]) Done() <-chan struct{} {
	return f.resultReady
}

// IsDone reports whether the future has resolved.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.resultReady:
		return true
	default:
		return false
	}
}

// Await blocks until the future resolves or ctx is done.
//
// If the context ends first, the context's error is returned and the future
// itself is left untouched; it can still be awaited again later.
func (f *Future[T]) Await(ctx context.Context) (T, error) { //nolint:ireturn
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-f.resultReady:
		return f.value, f.err
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	}
}

// Err returns the failure of a resolved future, or nil if it succeeded or is
// still pending.
func (f *Future[T]) Err() error {
	if !f.IsDone() {
		return nil
	}

	return f.err
}

// OnDone registers a hook that runs once the future resolves, whatever the
// outcome.
//
// The hook runs synchronously: on the goroutine that fulfills the promise, or
// immediately on the caller's goroutine if the future is already resolved. Hooks must therefore be short and non-blocking.
// A panicking hook is logged and skipped.
// This is what cooperative schedulers rely on to wake suspended work in
// deterministic order.
func (f *Future[T]) OnDone(hook func()) {
	if hook == nil {
		return
	}

	f.mu.Lock()

	if f.IsDone() {
		f.mu.Unlock()
		runHook(hook)

		return
	}

	f.doneHooks = append(f.doneHooks, hook)
	f.mu.Unlock()
}
