package coroutine

import (
	"errors"
	"fmt"
)

var (
	// ErrStopped is returned by Tick after Stop, and is the failure of every
	// coroutine that was unwound or never started because of Stop.
	ErrStopped = errors.New("scheduler stopped")
	// ErrReentrantTick is returned when Tick is called from inside a tick.
	ErrReentrantTick = errors.New("tick called while a tick is in progress")
	// ErrNegativeDelta is returned when Tick is given a negative duration.
	ErrNegativeDelta = errors.New("negative tick delta")
	// ErrPanic wraps a value recovered from a panicking coroutine.
	ErrPanic = errors.New("panic in coroutine")
)

// unwind is the panic value used to tear down a suspended coroutine's stack
// when its scheduler stops.
type unwind struct{}

func panicError(name string, r any, stack []byte) error {
	if e, ok := r.(error); ok {
		return fmt.Errorf("%w %s: %w\nstack trace:\n%s", ErrPanic, name, e, stack)
	}

	return fmt.Errorf("%w %s: %v\nstack trace:\n%s", ErrPanic, name, r, stack)
}
