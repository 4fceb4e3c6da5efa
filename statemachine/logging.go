package statemachine

import (
	"context"
	"log/slog"
	"time"

	"github.com/amp-labs/screenflow/logger"
)

// TransitionInfo identifies a transition in Logger hooks.
type TransitionInfo struct {
	Machine string
	ID      string
	From    string
	To      string
	Forced  bool
}

func (t TransitionInfo) attrs() []any {
	fields := []any{
		"machine", t.Machine,
		"from", t.From,
		"to", t.To,
	}

	if t.ID != "" {
		fields = append(fields, "transition_id", t.ID)
	}

	if t.Forced {
		fields = append(fields, "forced", true)
	}

	return fields
}

// Logger provides logging hooks for coordinator activity.
type Logger interface {
	TransitionAccepted(ctx context.Context, info TransitionInfo)
	TransitionRejected(ctx context.Context, info TransitionInfo, err error)
	SideCompleted(ctx context.Context, info TransitionInfo, side Side, err error)
	TransitionSettled(ctx context.Context, info TransitionInfo, duration time.Duration, err error)
	TransitionInterrupted(ctx context.Context, info TransitionInfo)
}

// DefaultLogger implements Logger using slog.
type DefaultLogger struct {
	log *slog.Logger
}

var _ Logger = (*DefaultLogger)(nil)

// NewDefaultLogger logs through logger.Get, so values attached to the
// context with logger.With are included.
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{}
}

// NewSlogLogger logs through a specific slog.Logger.
func NewSlogLogger(log *slog.Logger) *DefaultLogger {
	return &DefaultLogger{log: log}
}

func (l *DefaultLogger) get(ctx context.Context) *slog.Logger {
	if l.log != nil {
		return l.log
	}

	return logger.Get(ctx)
}

func (l *DefaultLogger) TransitionAccepted(ctx context.Context, info TransitionInfo) {
	l.get(ctx).DebugContext(ctx, "Transition accepted", info.attrs()...)
}

func (l *DefaultLogger) TransitionRejected(ctx context.Context, info TransitionInfo, err error) {
	l.get(ctx).WarnContext(ctx, "Transition rejected", append(info.attrs(), "error", err)...)
}

func (l *DefaultLogger) SideCompleted(ctx context.Context, info TransitionInfo, side Side, err error) {
	fields := append(info.attrs(), "side", string(side))

	if err != nil {
		l.get(ctx).ErrorContext(ctx, "Transition side failed", append(fields, "error", err)...)
	} else {
		l.get(ctx).DebugContext(ctx, "Transition side completed", fields...)
	}
}

func (l *DefaultLogger) TransitionSettled(ctx context.Context, info TransitionInfo, duration time.Duration, err error) {
	fields := append(info.attrs(), "duration_ms", duration.Milliseconds())

	if err != nil {
		l.get(ctx).WarnContext(ctx, "Transition settled with errors", append(fields, "error", err)...)
	} else {
		l.get(ctx).InfoContext(ctx, "Transition settled", fields...)
	}
}

func (l *DefaultLogger) TransitionInterrupted(ctx context.Context, info TransitionInfo) {
	l.get(ctx).InfoContext(ctx, "Transition interrupted", info.attrs()...)
}
