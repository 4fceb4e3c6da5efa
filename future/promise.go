package future

// Promise represents the write-only side of an asynchronous computation.
//
// Key guarantees:
//   - A promise can only be fulfilled once (enforced by sync.Once in the future)
//   - Multiple calls to Success/Failure/Complete are safe (later calls are ignored)
//   - Fulfillment is thread-safe and can happen from any goroutine
//   - Fulfilling a promise unblocks all goroutines waiting on the associated future
//
// The promise holds a reference to the future, not the other way around, so
// futures can be handed out without exposing the ability to complete them.
type Promise[T any] struct {
	future *Future[T]
}

// Future returns the read side of this promise.
func (p *Promise[T]) Future() *Future[T] {
	return p.future
}

// fulfill stores the result, closes the ready channel and runs the registered
// done hooks synchronously, in registration order, on the calling goroutine.
// Only the first call has any effect.
func (p *Promise[T]) fulfill(value T, err error) bool {
	fulfilled := false

	p.future.once.Do(func() {
		fulfilled = true

		p.future.value = value
		p.future.err = err

		// Hold the mutex while closing so that a concurrent OnDone either sees
		// the closed channel or lands in the slice we are about to drain.
		p.future.mu.Lock()

		close(p.future.resultReady)

		hooks := p.future.doneHooks
		p.future.doneHooks = nil

		p.future.mu.Unlock()

		for _, hook := range hooks {
			runHook(hook)
		}
	})

	return fulfilled
}

// Success fulfills the promise with a successful value. It reports whether
// this call was the one that resolved the future.
func (p *Promise[T]) Success(value T) bool {
	return p.fulfill(value, nil)
}

// Failure fulfills the promise with an error. The value is the zero value of T.
// It reports whether this call was the one that resolved the future.
func (p *Promise[T]) Failure(err error) bool {
	var zero T

	return p.fulfill(zero, err)
}

// Complete fulfills the promise with a value and error pair, matching Go's
// (value, error) return convention: a non-nil err fails the future.
func (p *Promise[T]) Complete(value T, err error) bool {
	if err != nil {
		return p.Failure(err)
	}

	return p.Success(value)
}
