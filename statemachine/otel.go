package statemachine

import (
	"context"

	"github.com/amp-labs/screenflow/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "statemachine"

// startTransitionSpan creates the span covering one transition, from
// acceptance until it settles. Uses the global tracer provider configured by
// the telemetry package. The caller is responsible for calling endTransitionSpan.
//
//nolint:spancheck // Span lifecycle managed by caller
func startTransitionSpan(ctx context.Context, info TransitionInfo) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	spanName := "transition." + info.To

	ctx, span := tracer.Start(ctx, spanName)
	span.SetAttributes(
		attribute.String("machine", info.Machine),
		attribute.String("transition_id", info.ID),
		attribute.String("from_state", info.From),
		attribute.String("to_state", info.To),
		attribute.Bool("forced", info.Forced),
	)
	logSpanDebug(ctx, "started", spanName, span)

	return ctx, span
}

// recordSideEvent marks one side's completion on the transition span.
func recordSideEvent(span trace.Span, side Side, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("side", string(side)),
		attribute.String("outcome", outcome(err)),
	}

	if err != nil {
		span.RecordError(err, trace.WithAttributes(attribute.String("side", string(side))))
	}

	span.AddEvent(string(side)+".done", trace.WithAttributes(attrs...))
}

func recordInterruptEvent(span trace.Span) {
	span.AddEvent("interrupt")
}

func endTransitionSpan(ctx context.Context, span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "settled")
	}

	logSpanDebug(ctx, "ended", "transition", span)
	span.End()
}

func logSpanDebug(ctx context.Context, phase string, spanName string, span trace.Span) {
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return
	}

	logger.Get(ctx).DebugContext(ctx, "OTEL Span "+phase,
		"span_name", spanName,
		"trace_id", spanCtx.TraceID().String(),
		"span_id", spanCtx.SpanID().String(),
	)
}
