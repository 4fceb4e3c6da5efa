package statemachine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingLogger) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

func (r *recordingLogger) TransitionAccepted(_ context.Context, info TransitionInfo) {
	r.add("accepted " + info.From + "->" + info.To)
}

func (r *recordingLogger) TransitionRejected(_ context.Context, info TransitionInfo, _ error) {
	r.add("rejected " + info.From + "->" + info.To)
}

func (r *recordingLogger) SideCompleted(_ context.Context, _ TransitionInfo, side Side, _ error) {
	r.add("side " + string(side))
}

func (r *recordingLogger) TransitionSettled(_ context.Context, info TransitionInfo, _ time.Duration, _ error) {
	r.add("settled " + info.From + "->" + info.To)
}

func (r *recordingLogger) TransitionInterrupted(_ context.Context, info TransitionInfo) {
	r.add("interrupted " + info.From + "->" + info.To)
}

func TestLoggerHooks(t *testing.T) {
	t.Parallel()

	rec := &recordingLogger{}
	f := newFixture(t, WithLogger(rec))

	a := newTickState("a", 1, 2)
	b := newTickState("b", 1, 1)
	c := newTickState("c", 1, 1)

	f.settleInto(t, a)

	require.NoError(t, f.machine.TransitionTo(f.ctx, b))
	require.Error(t, f.machine.TransitionTo(f.ctx, c))
	f.machine.Interrupt(f.ctx)
	f.tick(t, 2)

	assert.Equal(t, []string{
		"accepted none->a",
		"side enter",
		"settled none->a",
		"accepted a->b",
		"rejected b->c",
		"interrupted a->b",
		"side exit",
		"side enter",
		"settled a->b",
	}, rec.events)
}

func TestDefaultLogger_WithSlogt(t *testing.T) {
	t.Parallel()

	f := newFixture(t, WithLogger(NewSlogLogger(slogt.New(t))))

	a := newTickState("a", 1, 1)
	b := newTickState("b", 1, 1)
	b.enterErr = errEnterFailed

	f.settleInto(t, a)
	f.settleInto(t, b)

	require.Error(t, f.machine.TransitionTo(f.ctx, nil))
	require.ErrorIs(t, f.machine.Transition().Err(), errEnterFailed)
}
