package scenario

import (
	"testing"
	"time"

	"github.com/amp-labs/screenflow/coroutine"
	"github.com/amp-labs/screenflow/statemachine"
	"github.com/amp-labs/screenflow/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptedState_TracksActive(t *testing.T) {
	t.Parallel()

	sched := coroutine.NewScheduler(coroutine.WithName(t.Name()))
	t.Cleanup(sched.Stop)

	machine := statemachine.New[*ScriptedState](sched, statemachine.WithName(t.Name()))
	t.Cleanup(machine.Close)

	ctx := tests.GetUniqueContext(t)
	ignore := func(EventKind, string, string) {}

	menu := newScriptedState(StateSpec{Name: "menu", EnterTicks: 2, ExitTicks: 2}, ignore)
	game := newScriptedState(StateSpec{Name: "game", EnterTicks: 2, ExitTicks: 2}, ignore)

	tickN := func(n int) {
		for range n {
			require.NoError(t, sched.Tick(16*time.Millisecond))
		}
	}

	require.NoError(t, machine.TransitionTo(ctx, menu))
	tickN(1)
	assert.False(t, menu.Active())
	assert.True(t, menu.InputBlocked())

	tickN(1)
	assert.True(t, menu.Active())
	assert.False(t, menu.InputBlocked())

	require.NoError(t, machine.TransitionTo(ctx, menu, statemachine.Force()))
	tickN(2)
	require.False(t, machine.IsTransitioning())
	assert.True(t, menu.Active())

	require.NoError(t, machine.TransitionTo(ctx, game))
	tickN(2)
	require.False(t, machine.IsTransitioning())
	assert.False(t, menu.Active())
	assert.True(t, game.Active())
}
