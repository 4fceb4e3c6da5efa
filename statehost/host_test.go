package statehost

import (
	"testing"
	"time"

	"github.com/amp-labs/screenflow/coroutine"
	"github.com/amp-labs/screenflow/statemachine"
	"github.com/amp-labs/screenflow/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInteractable struct {
	calls []bool
}

func (f *fakeInteractable) SetInteractable(interactable bool) {
	f.calls = append(f.calls, interactable)
}

type fakeInput struct {
	submitDown, submitHeld, cancelDown, cancelHeld bool
}

func (f *fakeInput) SubmitDown() bool { return f.submitDown }
func (f *fakeInput) SubmitHeld() bool { return f.submitHeld }
func (f *fakeInput) CancelDown() bool { return f.cancelDown }
func (f *fakeInput) CancelHeld() bool { return f.cancelHeld }

func TestHost_StartsInactiveAndBlocked(t *testing.T) {
	t.Parallel()

	h := New("menu")

	assert.Equal(t, "menu", h.Name())
	assert.False(t, h.Active())
	assert.True(t, h.InputBlocked())
	assert.False(t, h.InputDown(Submit))
}

func TestHost_DefaultEnterAndExit(t *testing.T) {
	t.Parallel()

	sched := coroutine.NewScheduler(coroutine.WithName(t.Name()))
	t.Cleanup(sched.Stop)

	machine := statemachine.New[*Host](sched, statemachine.WithName(t.Name()))
	ctx := tests.GetUniqueContext(t)

	visual := &fakeInteractable{}
	input := &fakeInput{submitDown: true, cancelHeld: true}

	menu := New("menu", WithInteractable(visual), WithInput(input))
	game := New("game")

	require.NoError(t, machine.TransitionTo(ctx, menu))
	assert.True(t, menu.InputBlocked())

	require.NoError(t, sched.Tick(16*time.Millisecond))

	assert.True(t, menu.Active())
	assert.False(t, menu.InputBlocked())
	assert.True(t, menu.InputDown(Submit))
	assert.False(t, menu.InputHeld(Submit))
	assert.False(t, menu.InputDown(Cancel))
	assert.True(t, menu.InputHeld(Cancel))

	require.NoError(t, machine.TransitionTo(ctx, game))
	require.NoError(t, sched.Tick(16*time.Millisecond))

	assert.False(t, machine.IsTransitioning())
	assert.False(t, menu.Active())
	assert.True(t, menu.InputBlocked())
	assert.False(t, menu.InputDown(Submit))
	assert.True(t, game.Active())
	assert.False(t, game.InputDown(Submit))

	assert.Equal(t, []bool{true, false}, visual.calls)
}

func TestHost_InterruptIsResetOnEnter(t *testing.T) {
	t.Parallel()

	h := New("menu")

	h.Interrupt()
	assert.True(t, h.Interrupts().Pending())

	h.Enter(nil)
	assert.False(t, h.Interrupts().Pending())

	h.Interrupt()
	h.Exit(nil)
	assert.False(t, h.Interrupts().Pending())
}

func TestHost_OnTickFiresEveryTickWhileAttached(t *testing.T) {
	t.Parallel()

	sched := coroutine.NewScheduler(coroutine.WithName(t.Name()))
	t.Cleanup(sched.Stop)

	machine := statemachine.New[*Host](sched, statemachine.WithName(t.Name()))
	ctx := tests.GetUniqueContext(t)

	var frames []uint64

	menu := New("menu", WithOnTick(func(frame coroutine.Frame) {
		frames = append(frames, frame.Index)
	}))
	game := New("game")

	detach := menu.Attach(sched)

	require.NoError(t, sched.Tick(16*time.Millisecond))
	assert.False(t, menu.Active())

	require.NoError(t, machine.TransitionTo(ctx, menu))
	require.NoError(t, sched.Tick(16*time.Millisecond))
	assert.True(t, menu.Active())

	require.NoError(t, machine.TransitionTo(ctx, game))
	require.NoError(t, sched.Tick(16*time.Millisecond))
	assert.False(t, menu.Active())

	assert.Equal(t, []uint64{1, 2, 3}, frames)

	detach()
	require.NoError(t, sched.Tick(16*time.Millisecond))

	assert.Len(t, frames, 3)
}

func TestHost_SetActive(t *testing.T) {
	t.Parallel()

	h := New("menu")

	h.SetActive(true)
	assert.True(t, h.Active())

	h.SetActive(false)
	assert.False(t, h.Active())
}

func TestInterruptFlag_AtMostOneEffectPerRaise(t *testing.T) {
	t.Parallel()

	var flag InterruptFlag

	assert.False(t, flag.Take())

	flag.Raise()
	flag.Raise()

	assert.True(t, flag.Take())
	assert.False(t, flag.Take())

	flag.Raise()
	flag.Reset()
	assert.False(t, flag.Take())
}
