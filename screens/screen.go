package screens

import (
	"time"

	"github.com/amp-labs/screenflow/coroutine"
	"github.com/amp-labs/screenflow/statehost"
	"github.com/amp-labs/screenflow/statemachine"
	"go.uber.org/atomic"
)

const defaultFadeTime = 500 * time.Millisecond

// Screen is a state that fades in when entered and disappears once the
// screen replacing it has finished entering.
type Screen struct {
	*statehost.Host

	stack *Stack

	alpha   *atomic.Float64
	visible *atomic.Bool

	fadeTime time.Duration
	unscaled bool
	fadeIn   Easing
}

var _ statemachine.State = (*Screen)(nil)

// ScreenOption configures a Screen.
type ScreenOption func(*Screen)

// WithFadeTime sets how long the fade-in takes (default 500ms).
func WithFadeTime(d time.Duration) ScreenOption {
	return func(s *Screen) {
		s.fadeTime = d
	}
}

// WithEasing sets the fade-in curve (default Linear).
func WithEasing(curve Easing) ScreenOption {
	return func(s *Screen) {
		if curve != nil {
			s.fadeIn = curve
		}
	}
}

// WithUnscaledTime makes the fade ignore the scheduler's time scale.
func WithUnscaledTime() ScreenOption {
	return func(s *Screen) {
		s.unscaled = true
	}
}

// WithHostOptions passes options through to the embedded statehost.Host.
func WithHostOptions(opts ...statehost.Option) ScreenOption {
	return func(s *Screen) {
		s.Host = statehost.New(s.Name(), opts...)
	}
}

func newScreen(stack *Stack, name string, opts ...ScreenOption) *Screen {
	s := &Screen{
		Host:     statehost.New(name),
		stack:    stack,
		alpha:    atomic.NewFloat64(0),
		visible:  atomic.NewBool(false),
		fadeTime: defaultFadeTime,
		fadeIn:   Linear,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Alpha returns the current opacity.
func (s *Screen) Alpha() float64 {
	return s.alpha.Load()
}

// Visible reports whether the screen is shown at all.
func (s *Screen) Visible() bool {
	return s.visible.Load()
}

// Enter brings the screen to the front and fades it in. Input stays blocked
// until the fade completes.
func (s *Screen) Enter(statemachine.State) coroutine.Task {
	s.Interrupts().Reset()

	return func(co *coroutine.Co) error {
		s.SetActive(true)
		s.DisableInteraction()
		s.alpha.Store(0)
		s.stack.bringToFront(s)
		s.visible.Store(true)

		s.fade(co, 0, 1)

		s.EnableInteraction()

		return nil
	}
}

// Exit blocks input at once, then hides the screen when the incoming screen
// has finished entering. A forced re-show of the same screen leaves it
// visible; its own Enter task replays the fade.
func (s *Screen) Exit(next statemachine.State) coroutine.Task {
	s.Interrupts().Reset()

	replay := next == statemachine.State(s)

	return func(co *coroutine.Co) error {
		s.DisableInteraction()

		co.Await(s.stack.machine.EnterDone())

		if replay {
			return nil
		}

		s.alpha.Store(0)
		s.visible.Store(false)
		s.SetActive(false)
		s.Interrupts().Reset()

		return nil
	}
}

// Interrupt skips the rest of the fade-in. It is only honored while the stack
// is transitioning to this screen.
func (s *Screen) Interrupt() {
	machine := s.stack.machine

	if machine.IsTransitioning() && machine.State() == s {
		s.Host.Interrupt()
	}
}

func (s *Screen) fade(co *coroutine.Co, from, to float64) {
	var elapsed time.Duration

	s.alpha.Store(from)

	for elapsed < s.fadeTime {
		if s.Interrupts().Take() {
			break
		}

		s.alpha.Store(from + (to-from)*s.fadeIn(clamp01(float64(elapsed)/float64(s.fadeTime))))

		co.Yield()

		if s.Interrupts().Take() {
			break
		}

		frame := co.Frame()
		if s.unscaled {
			elapsed += frame.UnscaledDelta
		} else {
			elapsed += frame.Delta
		}
	}

	s.alpha.Store(to)
}
