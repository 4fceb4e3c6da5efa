package statemachine

const defaultMachineName = "statemachine"

type coordinatorOptions struct {
	name   string
	logger Logger
}

// Option configures a Coordinator.
type Option func(*coordinatorOptions)

// WithName names the coordinator in logs, spans and metric labels.
func WithName(name string) Option {
	return func(o *coordinatorOptions) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger replaces the DefaultLogger.
func WithLogger(logger Logger) Option {
	return func(o *coordinatorOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

type transitionOptions struct {
	force      bool
	onFinished func()
}

// TransitionOption configures a single TransitionTo call.
type TransitionOption func(*transitionOptions)

// Force runs the transition even when the target is already the current
// state. The state then exits into itself and enters from itself.
func Force() TransitionOption {
	return func(o *transitionOptions) {
		o.force = true
	}
}

// OnFinished registers a callback invoked exactly once, after both sides of
// the transition have completed. It runs on the scheduler's logical thread
// and may request the next transition.
func OnFinished(fn func()) TransitionOption {
	return func(o *transitionOptions) {
		o.onFinished = fn
	}
}
