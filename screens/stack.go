// Package screens is a UI screen stack built on statemachine: each screen is
// a state that fades in over the screen it replaces, and the outgoing screen
// stays visible underneath until the incoming one has fully appeared.
package screens

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"facette.io/natsort"
	"github.com/amp-labs/screenflow/coroutine"
	"github.com/amp-labs/screenflow/statemachine"
)

var (
	// ErrUnknownScreen is returned by Show for a name that was never added.
	ErrUnknownScreen = errors.New("unknown screen")
	// ErrDuplicateScreen is returned by Add for a name already in use.
	ErrDuplicateScreen = errors.New("duplicate screen name")
)

const barWidth = 20

// Stack owns a set of screens and the coordinator that moves between them.
type Stack struct {
	machine *statemachine.Coordinator[*Screen]
	sched   *coroutine.Scheduler

	mu      sync.Mutex
	screens map[string]*Screen
	// order is back to front.
	order     []*Screen
	detachers []func()
}

// NewStack creates an empty stack driven by sched.
func NewStack(sched *coroutine.Scheduler, opts ...statemachine.Option) *Stack {
	return &Stack{
		machine: statemachine.New[*Screen](sched, opts...),
		sched:   sched,
		screens: make(map[string]*Screen),
	}
}

// Machine exposes the underlying coordinator.
func (st *Stack) Machine() *statemachine.Coordinator[*Screen] {
	return st.machine
}

// Add creates a hidden screen and attaches it to the scheduler, so a
// statehost.WithOnTick callback passed through WithHostOptions runs every tick.
func (st *Stack) Add(name string, opts ...ScreenOption) (*Screen, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.screens[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateScreen, name)
	}

	screen := newScreen(st, name, opts...)
	st.screens[name] = screen
	st.order = append(st.order, screen)
	st.detachers = append(st.detachers, screen.Attach(st.sched))

	return screen, nil
}

// Screen looks a screen up by name.
func (st *Stack) Screen(name string) (*Screen, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	screen, ok := st.screens[name]

	return screen, ok
}

// Names lists screen names in natural order ("screen2" before "screen10").
func (st *Stack) Names() []string {
	st.mu.Lock()

	names := make([]string, 0, len(st.screens))
	for name := range st.screens {
		names = append(names, name)
	}

	st.mu.Unlock()

	natsort.Sort(names)

	return names
}

// Show transitions to the named screen.
func (st *Stack) Show(ctx context.Context, name string, opts ...statemachine.TransitionOption) error {
	screen, ok := st.Screen(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownScreen, name)
	}

	return st.machine.TransitionTo(ctx, screen, opts...)
}

// Interrupt asks the in-flight transition to finish early.
func (st *Stack) Interrupt(ctx context.Context) {
	st.machine.Interrupt(ctx)
}

// Close detaches the stack's screens and coordinator from the scheduler.
func (st *Stack) Close() {
	st.mu.Lock()
	detachers := st.detachers
	st.detachers = nil
	st.mu.Unlock()

	for _, detach := range detachers {
		detach()
	}

	st.machine.Close()
}

func (st *Stack) bringToFront(screen *Screen) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.order = slices.DeleteFunc(st.order, func(s *Screen) bool { return s == screen })
	st.order = append(st.order, screen)
}

// ScreenView is a point-in-time view of one screen.
type ScreenView struct {
	Name        string
	Alpha       float64
	Interactive bool
	Current     bool
}

// Snapshot returns the visible screens, back to front.
func (st *Stack) Snapshot() []ScreenView {
	current := st.machine.State()

	st.mu.Lock()
	order := slices.Clone(st.order)
	st.mu.Unlock()

	views := make([]ScreenView, 0, len(order))

	for _, screen := range order {
		if !screen.Visible() {
			continue
		}

		views = append(views, ScreenView{
			Name:        screen.Name(),
			Alpha:       screen.Alpha(),
			Interactive: !screen.InputBlocked(),
			Current:     screen == current,
		})
	}

	return views
}

// Render draws the visible screens as text, front first, one line each.
func (st *Stack) Render() string {
	views := st.Snapshot()

	if len(views) == 0 {
		return "(no screens visible)\n"
	}

	var sb strings.Builder

	for i := len(views) - 1; i >= 0; i-- {
		view := views[i]

		filled := int(view.Alpha*barWidth + 0.5) //nolint:mnd

		marker := " "
		if view.Current {
			marker = "*"
		}

		status := "blocked"
		if view.Interactive {
			status = "interactive"
		}

		fmt.Fprintf(&sb, "%s %-12s %s%s %4.2f %s\n",
			marker,
			view.Name,
			strings.Repeat("#", filled),
			strings.Repeat(".", barWidth-filled),
			view.Alpha,
			status)
	}

	if st.machine.IsTransitioning() {
		sb.WriteString("(transitioning)\n")
	}

	return sb.String()
}
