package scenario

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/amp-labs/screenflow/bgworker"
	"github.com/amp-labs/screenflow/coroutine"
	"github.com/amp-labs/screenflow/logger"
	"github.com/amp-labs/screenflow/statemachine"
	"github.com/google/uuid"
)

type runOptions struct {
	logger statemachine.Logger
}

// RunOption configures Run and RunAll.
type RunOption func(*runOptions)

// WithLogger forwards coordinator activity to l in addition to the report.
func WithLogger(l statemachine.Logger) RunOption {
	return func(o *runOptions) {
		o.logger = l
	}
}

// recorder turns coordinator hooks into report events.
type recorder struct {
	mu     sync.Mutex
	sched  *coroutine.Scheduler
	report *Report
	next   statemachine.Logger
}

var _ statemachine.Logger = (*recorder)(nil)

func (r *recorder) emit(kind EventKind, state, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.report.Events = append(r.report.Events, Event{
		Tick:   r.sched.Frame().Index,
		Kind:   kind,
		State:  state,
		Detail: detail,
	})
}

func (r *recorder) fail(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.report.Failures = append(r.report.Failures, fmt.Sprintf(format, args...))
}

func (r *recorder) TransitionAccepted(ctx context.Context, info statemachine.TransitionInfo) {
	detail := "from " + info.From
	if info.Forced {
		detail += ", forced"
	}

	r.emit(EventAccepted, info.To, detail)
	r.next.TransitionAccepted(ctx, info)
}

func (r *recorder) TransitionRejected(ctx context.Context, info statemachine.TransitionInfo, err error) {
	r.emit(EventRejected, info.To, errors.Unwrap(err).Error())
	r.next.TransitionRejected(ctx, info, err)
}

func (r *recorder) SideCompleted(
	ctx context.Context,
	info statemachine.TransitionInfo,
	side statemachine.Side,
	err error,
) {
	if err != nil {
		state := info.To
		if side == statemachine.SideExit {
			state = info.From
		}

		r.emit(EventSideFailed, state, err.Error())
	}

	r.next.SideCompleted(ctx, info, side, err)
}

func (r *recorder) TransitionSettled(
	ctx context.Context,
	info statemachine.TransitionInfo,
	duration time.Duration,
	err error,
) {
	detail := "from " + info.From
	if err != nil {
		detail += ", with errors"
	}

	r.emit(EventSettled, info.To, detail)
	r.next.TransitionSettled(ctx, info, duration, err)
}

func (r *recorder) TransitionInterrupted(ctx context.Context, info statemachine.TransitionInfo) {
	r.next.TransitionInterrupted(ctx, info)
}

// Run executes sc on a private scheduler. Steps are applied between ticks;
// the run ends once every step has been applied and the coordinator is idle,
// or after the scenario's tick limit. Unmet expectations are reported in the
// Report, not as an error; errors are reserved for cancellation and
// scheduler failures.
func Run(ctx context.Context, sc *Scenario, opts ...RunOption) (*Report, error) {
	options := runOptions{
		logger: statemachine.NewDefaultLogger(),
	}

	for _, opt := range opts {
		opt(&options)
	}

	runID := uuid.NewString()
	ctx = logger.With(ctx, "scenario", sc.Name, "run_id", runID)

	schedOpts := []coroutine.Option{
		coroutine.WithName("scenario." + sc.Name),
		coroutine.WithContext(ctx),
	}

	if sc.TimeScale != nil {
		schedOpts = append(schedOpts, coroutine.WithTimeScale(*sc.TimeScale))
	}

	sched := coroutine.NewScheduler(schedOpts...)
	defer sched.Stop()

	report := &Report{
		RunID:    runID,
		Scenario: sc.Name,
	}

	rec := &recorder{
		sched:  sched,
		report: report,
		next:   options.logger,
	}

	machine := statemachine.New[*ScriptedState](sched,
		statemachine.WithName(sc.Name),
		statemachine.WithLogger(rec))
	defer machine.Close()

	states := make(map[string]*ScriptedState, len(sc.States))
	for _, spec := range sc.States {
		states[spec.Name] = newScriptedState(spec, rec.emit)
	}

	logger.Get(ctx).Debug("Running scenario", "states", len(states), "steps", len(sc.Steps))

	next := 0

	for ran := 0; ; ran++ {
		for next < len(sc.Steps) && sc.Steps[next].At <= uint64(ran) { //nolint:gosec
			applyStep(ctx, sched, machine, states, rec, next, sc.Steps[next])
			next++
		}

		if next == len(sc.Steps) && !machine.IsTransitioning() {
			break
		}

		if ran >= sc.maxTicks() {
			rec.fail("did not finish within %d ticks", sc.maxTicks())

			break
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := sched.Tick(sc.tick()); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
	}

	frame := sched.Frame()
	report.Ticks = frame.Index
	report.Elapsed = frame.Time
	report.Final = statemachine.StateName(machine.State())
	report.Settled = !machine.IsTransitioning()

	if sc.ExpectFinal != "" && report.Final != sc.ExpectFinal {
		rec.fail("expected final state %s, got %s", sc.ExpectFinal, report.Final)
	}

	logger.Get(ctx).Info("Scenario finished",
		"ticks", report.Ticks,
		"final", report.Final,
		"passed", report.Passed())

	return report, nil
}

func applyStep(
	ctx context.Context,
	sched *coroutine.Scheduler,
	machine *statemachine.Coordinator[*ScriptedState],
	states map[string]*ScriptedState,
	rec *recorder,
	index int,
	step Step,
) {
	if step.TimeScale != nil {
		sched.SetTimeScale(*step.TimeScale)
		rec.emit(EventTimeScale, "", strconv.FormatFloat(sched.TimeScale(), 'g', -1, 64))
	}

	if step.Transition != nil {
		target := states[*step.Transition]

		var opts []statemachine.TransitionOption
		if step.Force {
			opts = append(opts, statemachine.Force())
		}

		before := machine.Transition()

		err := machine.TransitionTo(ctx, target, opts...)

		got := classify(err, before, machine.Transition())
		if got == ExpectNoop {
			rec.emit(EventNoop, *step.Transition, "already current")
		}

		want := step.Expect
		if want == "" {
			want = ExpectAccepted
		}

		if got != want {
			rec.fail("step %d (at %d): transition to %q: expected %s, got %s",
				index, step.At, *step.Transition, want, got)
		}
	}

	if step.Interrupt {
		detail := "idle"
		if machine.IsTransitioning() {
			detail = "in flight"
		}

		rec.emit(EventInterrupt, statemachine.StateName(machine.State()), detail)
		machine.Interrupt(ctx)
	}
}

func classify(err error, before, after *statemachine.Record[*ScriptedState]) Expectation {
	switch {
	case errors.Is(err, statemachine.ErrInvalidArgument):
		return ExpectInvalidArgument
	case errors.Is(err, statemachine.ErrIllegalState):
		return ExpectIllegalState
	case before == after:
		return ExpectNoop
	default:
		return ExpectAccepted
	}
}

// RunAll runs the scenarios concurrently on the background worker pool. The
// reports are returned in input order; failed runs leave a nil entry and
// contribute to the joined error.
func RunAll(ctx context.Context, scenarios []*Scenario, opts ...RunOption) ([]*Report, error) {
	return bgworker.Map(scenarios, func(sc *Scenario) (*Report, error) {
		return Run(ctx, sc, opts...)
	})
}
