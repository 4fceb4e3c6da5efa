// Package statehost is an optional base for statemachine states. Host tracks
// whether the state is active and whether its input is blocked, and offers
// default enter and exit tasks that only flip those flags.
//
// Concrete states embed *Host and override Enter, Exit and Interrupt,
// bracketing the non-interactive part of their tasks with DisableInteraction
// and EnableInteraction.
package statehost

import (
	"github.com/amp-labs/screenflow/coroutine"
	"github.com/amp-labs/screenflow/statemachine"
	"go.uber.org/atomic"
)

// Interactable is a visual element whose interactivity a state can toggle,
// such as a canvas group.
type Interactable interface {
	SetInteractable(interactable bool)
}

// Input polls the submit and cancel controls.
type Input interface {
	SubmitDown() bool
	SubmitHeld() bool
	CancelDown() bool
	CancelHeld() bool
}

// Button selects a control polled through Input.
type Button int

const (
	Submit Button = iota
	Cancel
)

// Host is an embeddable partial state. The zero value is not usable; create
// hosts with New.
type Host struct {
	name         string
	active       *atomic.Bool
	inputBlocked *atomic.Bool

	interactable Interactable
	input        Input
	onTick       func(frame coroutine.Frame)

	interrupt InterruptFlag
}

var _ statemachine.State = (*Host)(nil)

// Option configures a Host.
type Option func(*Host)

// WithInteractable attaches the element toggled by Enable/DisableInteraction.
func WithInteractable(target Interactable) Option {
	return func(h *Host) {
		h.interactable = target
	}
}

// WithInput attaches the input source polled by InputDown and InputHeld.
func WithInput(input Input) Option {
	return func(h *Host) {
		h.input = input
	}
}

// WithOnTick sets a callback run once per scheduler tick while the host is
// attached, whether or not the state is active.
func WithOnTick(fn func(frame coroutine.Frame)) Option {
	return func(h *Host) {
		h.onTick = fn
	}
}

// New creates an inactive host with input blocked.
func New(name string, opts ...Option) *Host {
	h := &Host{
		name:         name,
		active:       atomic.NewBool(false),
		inputBlocked: atomic.NewBool(true),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Name returns the host's name.
func (h *Host) Name() string {
	return h.name
}

// Active reports whether the host has entered and not yet exited.
func (h *Host) Active() bool {
	return h.active.Load()
}

// SetActive records whether the state has entered. Embedding states that
// override Enter and Exit call it from their own tasks.
func (h *Host) SetActive(active bool) {
	h.active.Store(active)
}

// InputBlocked reports whether input polling is suppressed.
func (h *Host) InputBlocked() bool {
	return h.inputBlocked.Load()
}

// Interrupts returns the host's interrupt flag.
func (h *Host) Interrupts() *InterruptFlag {
	return &h.interrupt
}

// Enter marks the host active and unblocks input.
func (h *Host) Enter(statemachine.State) coroutine.Task {
	h.interrupt.Reset()

	return func(*coroutine.Co) error {
		h.SetActive(true)
		h.EnableInteraction()

		return nil
	}
}

// Exit marks the host inactive and blocks input.
func (h *Host) Exit(statemachine.State) coroutine.Task {
	h.interrupt.Reset()

	return func(*coroutine.Co) error {
		h.DisableInteraction()
		h.SetActive(false)

		return nil
	}
}

// Interrupt raises the interrupt flag. The default tasks finish in one tick
// and never look at it.
func (h *Host) Interrupt() {
	h.interrupt.Raise()
}

// Attach registers the host with sched so the WithOnTick callback runs every
// tick. The returned function detaches it.
func (h *Host) Attach(sched *coroutine.Scheduler) (detach func()) {
	return sched.AddTicker(h)
}

// OnTick runs the WithOnTick callback, if any.
func (h *Host) OnTick(frame coroutine.Frame) {
	if h.onTick != nil {
		h.onTick(frame)
	}
}

// DisableInteraction blocks input and makes the attached element
// non-interactable.
func (h *Host) DisableInteraction() {
	h.inputBlocked.Store(true)

	if h.interactable != nil {
		h.interactable.SetInteractable(false)
	}
}

// EnableInteraction unblocks input and makes the attached element
// interactable.
func (h *Host) EnableInteraction() {
	h.inputBlocked.Store(false)

	if h.interactable != nil {
		h.interactable.SetInteractable(true)
	}
}

// InputDown reports whether b was pressed this frame. It is false while input
// is blocked or no input source is attached.
func (h *Host) InputDown(b Button) bool {
	if h.inputBlocked.Load() || h.input == nil {
		return false
	}

	switch b {
	case Submit:
		return h.input.SubmitDown()
	case Cancel:
		return h.input.CancelDown()
	default:
		return false
	}
}

// InputHeld reports whether b is held. It is false while input is blocked or
// no input source is attached.
func (h *Host) InputHeld(b Button) bool {
	if h.inputBlocked.Load() || h.input == nil {
		return false
	}

	switch b {
	case Submit:
		return h.input.SubmitHeld()
	case Cancel:
		return h.input.CancelHeld()
	default:
		return false
	}
}
