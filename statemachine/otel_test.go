package statemachine

import (
	"testing"

	"github.com/amp-labs/screenflow/coroutine"
	"github.com/amp-labs/screenflow/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer installs a tracer provider backed by an in-memory exporter.
func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(
		trace.WithSyncer(exporter),
	)

	oldProvider := otel.GetTracerProvider()

	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		otel.SetTracerProvider(oldProvider)
	})

	return exporter
}

// TestTransitionSpan verifies one span per transition, ended when it settles.
// Note: Cannot use t.Parallel() because setupTestTracer modifies the global OTEL tracer provider.
//
//nolint:paralleltest // Test modifies global OTEL tracer provider
func TestTransitionSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	sched := coroutine.NewScheduler(coroutine.WithName(t.Name()))
	t.Cleanup(sched.Stop)

	machine := New[*tickState](sched, WithName("spans"))
	ctx := tests.GetUniqueContext(t)

	a := newTickState("a", 1, 1)
	b := newTickState("b", 3, 1)
	b.enterErr = errEnterFailed

	require.NoError(t, machine.TransitionTo(ctx, a))
	require.NoError(t, sched.Tick(frameTime))

	require.NoError(t, machine.TransitionTo(ctx, b))
	require.NoError(t, sched.Tick(frameTime))
	machine.Interrupt(ctx)
	require.NoError(t, sched.Tick(frameTime))
	require.False(t, machine.IsTransitioning())

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	first := spans[0]
	assert.Equal(t, "transition.a", first.Name)
	assert.Equal(t, codes.Ok, first.Status.Code)

	second := spans[1]
	assert.Equal(t, "transition.b", second.Name)
	assert.Equal(t, codes.Error, second.Status.Code)

	attrs := make(map[string]any)
	for _, attr := range second.Attributes {
		attrs[string(attr.Key)] = attr.Value.AsInterface()
	}

	assert.Equal(t, "spans", attrs["machine"])
	assert.Equal(t, "a", attrs["from_state"])
	assert.Equal(t, "b", attrs["to_state"])
	assert.Equal(t, machine.Transition().ID(), attrs["transition_id"])

	events := make([]string, 0, len(second.Events))
	for _, event := range second.Events {
		if event.Name != "exception" {
			events = append(events, event.Name)
		}
	}

	assert.Equal(t, []string{"exit.done", "interrupt", "enter.done"}, events)
}
