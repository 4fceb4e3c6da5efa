// Package statemachine moves an owner between discrete states where entering
// and leaving a state are long-running, interruptible cooperative tasks.
//
// A Coordinator holds one active state. TransitionTo accepts a new target
// synchronously, then runs the outgoing state's Exit task and the incoming
// state's Enter task side by side on a coroutine.Scheduler. The transition
// settles once both tasks have completed.
package statemachine

import (
	"fmt"
	"reflect"

	"github.com/amp-labs/screenflow/coroutine"
)

// State is the contract a Coordinator drives.
//
// Enter and Exit are called synchronously when a transition is accepted and
// return the task to run; the task itself first runs on the following tick.
// A nil task counts as already complete. previous is nil for the very first
// transition.
//
// Interrupt is advisory. A conforming task observes it at its next suspension
// point and jumps to its terminal effect; nothing forces it to.
type State interface {
	Enter(previous State) coroutine.Task
	Exit(next State) coroutine.Task
	Interrupt()
}

// Named states report their own name in logs, spans and metric labels.
// Other states are identified by their Go type.
type Named interface {
	Name() string
}

// NopState does nothing: its tasks are nil and it ignores interrupts. Use it
// as an idle placeholder or embed it to implement only part of State.
type NopState struct {
	Label string
}

var _ State = (*NopState)(nil)

// Name returns the label.
func (s *NopState) Name() string {
	return s.Label
}

// Enter returns a nil task.
func (s *NopState) Enter(State) coroutine.Task {
	return nil
}

// Exit returns a nil task.
func (s *NopState) Exit(State) coroutine.Task {
	return nil
}

// Interrupt is a no-op.
func (s *NopState) Interrupt() {}

const noState = "none"

// StateName returns the name used for s in logs and metrics.
func StateName(s State) string {
	if isNil(s) {
		return noState
	}

	if named, ok := s.(Named); ok {
		if name := named.Name(); name != "" {
			return name
		}
	}

	return fmt.Sprintf("%T", s)
}

// isNil reports whether v is nil or a typed nil hidden in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() { //nolint:exhaustive
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

// sameState compares by identity: pointer equality for pointer states, value
// equality for comparable value states. Incomparable values are never equal.
func sameState(a, b any) bool {
	if isNil(a) || isNil(b) {
		return false
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}

	return a == b
}
