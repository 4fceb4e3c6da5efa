package statehost

import "go.uber.org/atomic"

// InterruptFlag is a state's advisory interrupt request. Raise may be called
// from any goroutine; the running task polls Take at its suspension points.
//
// A raise is consumed by at most one Take. Reset discards a pending raise and
// is called at the start of every Enter and Exit, so a raise aimed at one
// task never leaks into the next one.
type InterruptFlag struct {
	raised atomic.Bool
}

// Raise requests an interrupt. Raising an already raised flag has no extra
// effect.
func (f *InterruptFlag) Raise() {
	f.raised.Store(true)
}

// Take reports whether an interrupt is pending and clears it.
func (f *InterruptFlag) Take() bool {
	return f.raised.CompareAndSwap(true, false)
}

// Pending reports whether an interrupt is pending without clearing it.
func (f *InterruptFlag) Pending() bool {
	return f.raised.Load()
}

// Reset discards a pending interrupt.
func (f *InterruptFlag) Reset() {
	f.raised.Store(false)
}
