package coroutine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_Wait(t *testing.T) {
	t.Parallel()

	handle := newHandle("wait")

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, handle.Wait(ctx), context.DeadlineExceeded)

	handle.complete(t.Context(), errTask)

	require.ErrorIs(t, handle.Wait(t.Context()), errTask)
	assert.Equal(t, "wait", handle.Name())

	select {
	case <-handle.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestHandle_HookPanicIsContained(t *testing.T) {
	t.Parallel()

	handle := newHandle("hooks")

	ran := false

	handle.OnDone(func() { panic("hook") })
	handle.OnDone(func() { ran = true })

	assert.NotPanics(t, func() { handle.complete(t.Context(), nil) })
	assert.True(t, handle.IsDone())
	assert.True(t, ran)
}
