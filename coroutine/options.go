package coroutine

import "context"

type schedulerOptions struct {
	name      string
	timeScale float64
	ctx       context.Context //nolint:containedctx
}

// Option configures a Scheduler.
type Option func(*schedulerOptions)

// WithName names the scheduler in logs and metric labels.
func WithName(name string) Option {
	return func(o *schedulerOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// WithTimeScale sets the initial time scale (default 1).
func WithTimeScale(scale float64) Option {
	return func(o *schedulerOptions) {
		o.timeScale = scale
	}
}

// WithContext sets the parent context. Logging values attached to it with
// logger.With flow into everything the scheduler logs, and canceling it does
// not stop the scheduler (use Stop for that).
func WithContext(ctx context.Context) Option {
	return func(o *schedulerOptions) {
		if ctx != nil {
			o.ctx = context.WithoutCancel(ctx)
		}
	}
}
