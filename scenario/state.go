package scenario

import (
	"errors"

	"github.com/amp-labs/screenflow/coroutine"
	"github.com/amp-labs/screenflow/statehost"
	"github.com/amp-labs/screenflow/statemachine"
)

// ErrScriptedFailure is returned by enter tasks of states declared with
// fail_enter.
var ErrScriptedFailure = errors.New("scripted enter failure")

// ScriptedState runs its enter and exit tasks for a fixed number of ticks,
// finishing early when interrupted unless told to ignore interrupts.
type ScriptedState struct {
	*statehost.Host

	spec StateSpec
	emit func(kind EventKind, state, detail string)
}

var _ statemachine.State = (*ScriptedState)(nil)

func newScriptedState(spec StateSpec, emit func(EventKind, string, string)) *ScriptedState {
	return &ScriptedState{
		Host: statehost.New(spec.Name),
		spec: spec,
		emit: emit,
	}
}

// Enter runs for EnterTicks ticks, then marks the state active.
func (s *ScriptedState) Enter(previous statemachine.State) coroutine.Task {
	s.Interrupts().Reset()

	from := statemachine.StateName(previous)

	return func(co *coroutine.Co) error {
		s.DisableInteraction()
		s.emit(EventEnterStarted, s.Name(), "from "+from)

		interrupted := s.run(co, s.spec.EnterTicks)

		s.SetActive(true)
		s.EnableInteraction()
		s.emit(EventEnterDone, s.Name(), detail(interrupted))

		if s.spec.FailEnter {
			return ErrScriptedFailure
		}

		return nil
	}
}

// Exit runs for ExitTicks ticks with input blocked throughout, then marks the
// state inactive unless it is re-entering itself.
func (s *ScriptedState) Exit(next statemachine.State) coroutine.Task {
	s.Interrupts().Reset()

	to := statemachine.StateName(next)
	reenter := next == statemachine.State(s)

	return func(co *coroutine.Co) error {
		s.DisableInteraction()
		s.emit(EventExitStarted, s.Name(), "to "+to)

		interrupted := s.run(co, s.spec.ExitTicks)

		if !reenter {
			s.SetActive(false)
		}

		s.emit(EventExitDone, s.Name(), detail(interrupted))

		return nil
	}
}

// Interrupt raises the interrupt flag and records the request.
func (s *ScriptedState) Interrupt() {
	s.emit(EventStateInterrupted, s.Name(), "")
	s.Host.Interrupt()
}

// run yields until the task has spanned ticks ticks. It reports whether an
// interrupt cut it short.
func (s *ScriptedState) run(co *coroutine.Co, ticks int) bool {
	for i := 1; i < ticks; i++ {
		if !s.spec.IgnoreInterrupts && s.Interrupts().Take() {
			return true
		}

		co.Yield()
	}

	return false
}

func detail(interrupted bool) string {
	if interrupted {
		return "interrupted"
	}

	return ""
}
