package statemachine

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/amp-labs/screenflow/coroutine"
	"github.com/amp-labs/screenflow/future"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

// Coordinator owns one active state and moves it between states.
//
// The zero state is "none": until the first transition State returns the
// zero S and Previous reports no previous state. Acceptance is synchronous;
// the exit and enter tasks first run on the scheduler's next tick.
type Coordinator[S State] struct {
	name   string
	sched  *coroutine.Scheduler
	logger Logger

	// mu serializes acceptance. The published record itself is read lock-free.
	mu     sync.Mutex
	seq    uint64
	record *atomic.Pointer[Record[S]]
	// span of the in-flight transition, guarded by mu.
	span trace.Span

	timeInState         *atomic.Duration
	timeInStateUnscaled *atomic.Duration

	detach func()
}

// New creates an idle coordinator driven by sched. It registers itself as a
// ticker to accumulate time in state; Close unregisters it.
func New[S State](sched *coroutine.Scheduler, opts ...Option) *Coordinator[S] {
	options := coordinatorOptions{
		name:   defaultMachineName,
		logger: NewDefaultLogger(),
	}

	for _, opt := range opts {
		opt(&options)
	}

	c := &Coordinator[S]{
		name:                options.name,
		sched:               sched,
		logger:              options.logger,
		record:              atomic.NewPointer[Record[S]](nil),
		timeInState:         atomic.NewDuration(0),
		timeInStateUnscaled: atomic.NewDuration(0),
	}

	transitioning.WithLabelValues(c.name).Set(0)

	c.detach = sched.AddTicker(c)

	return c
}

// Name returns the coordinator's name.
func (c *Coordinator[S]) Name() string {
	return c.name
}

// Close stops time accounting. In-flight tasks keep running on the scheduler.
func (c *Coordinator[S]) Close() {
	c.detach()
}

// OnTick accumulates time in state. It runs for every tick, whether or not a
// transition is in flight.
func (c *Coordinator[S]) OnTick(frame coroutine.Frame) {
	c.timeInState.Add(frame.Delta)
	c.timeInStateUnscaled.Add(frame.UnscaledDelta)
}

// State returns the current state: the target of the latest accepted
// transition, even while that transition is still running.
func (c *Coordinator[S]) State() S { //nolint:ireturn
	var zero S

	rec := c.record.Load()
	if rec == nil {
		return zero
	}

	return rec.current
}

// Previous returns the state that was current before the latest accepted
// transition, or the zero S if there was none.
func (c *Coordinator[S]) Previous() S { //nolint:ireturn
	var zero S

	rec := c.record.Load()
	if rec == nil {
		return zero
	}

	return rec.previous
}

// HasPrevious reports whether Previous holds a state.
func (c *Coordinator[S]) HasPrevious() bool {
	rec := c.record.Load()

	return rec != nil && rec.hasPrevious
}

// IsTransitioning is true from acceptance until both sides complete.
func (c *Coordinator[S]) IsTransitioning() bool {
	rec := c.record.Load()

	return rec != nil && !rec.IsSettled()
}

// Transition returns the latest accepted transition, or nil if none.
func (c *Coordinator[S]) Transition() *Record[S] {
	return c.record.Load()
}

// TimeInState is the scaled time accumulated since the latest accepted
// transition.
func (c *Coordinator[S]) TimeInState() time.Duration {
	return c.timeInState.Load()
}

// TimeInStateUnscaled is the real time accumulated since the latest accepted
// transition.
func (c *Coordinator[S]) TimeInStateUnscaled() time.Duration {
	return c.timeInStateUnscaled.Load()
}

// ExitDone resolves when the latest transition's exit task completes.
// It is already resolved when there is no transition or no previous state.
func (c *Coordinator[S]) ExitDone() *future.Future[struct{}] {
	if rec := c.record.Load(); rec != nil {
		return rec.exitDone
	}

	return future.Resolved(struct{}{})
}

// EnterDone resolves when the latest transition's enter task completes.
// It is already resolved when there is no transition.
func (c *Coordinator[S]) EnterDone() *future.Future[struct{}] {
	if rec := c.record.Load(); rec != nil {
		return rec.enterDone
	}

	return future.Resolved(struct{}{})
}

// Settled resolves when the latest transition has fully completed.
// It is already resolved when there is no transition.
func (c *Coordinator[S]) Settled() *future.Future[struct{}] {
	if rec := c.record.Load(); rec != nil {
		return rec.settled
	}

	return future.Resolved(struct{}{})
}

// TransitionTo requests a transition to target.
//
// A nil target fails with ErrInvalidArgument. A target identical to the
// current state is a no-op unless Force is given. While another transition
// is in flight the request fails with ErrIllegalState and nothing changes.
// Errors are *TransitionError values; match them with errors.Is.
func (c *Coordinator[S]) TransitionTo(ctx context.Context, target S, opts ...TransitionOption) error {
	var options transitionOptions

	for _, opt := range opts {
		opt(&options)
	}

	if isNil(target) {
		return c.reject(ctx, TransitionInfo{
			Machine: c.name,
			From:    StateName(c.State()),
			To:      noState,
			Forced:  options.force,
		}, reasonInvalidArgument, ErrInvalidArgument)
	}

	rec, span, err := c.accept(ctx, target, options)
	if err != nil || rec == nil {
		return err
	}

	c.spawn(context.WithoutCancel(ctx), rec, span, options.onFinished)

	return nil
}

// accept publishes a new record. A nil record with a nil error means the
// request was a no-op.
func (c *Coordinator[S]) accept(
	ctx context.Context,
	target S,
	options transitionOptions,
) (*Record[S], trace.Span, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.record.Load()

	info := TransitionInfo{
		Machine: c.name,
		From:    noState,
		To:      StateName(target),
		Forced:  options.force,
	}

	if current != nil {
		info.From = StateName(current.current)

		if !options.force && sameState(current.current, target) {
			return nil, nil, nil
		}

		if !current.IsSettled() {
			return nil, nil, c.reject(ctx, info, reasonIllegalState, ErrIllegalState)
		}
	}

	c.seq++

	var next *Record[S]

	if current == nil {
		var none S

		next = newRecord(c.seq, none, false, target, options.force)
		next.completeSide(SideExit, nil)
	} else {
		next = newRecord(c.seq, current.current, true, target, options.force)
	}

	info.ID = next.id

	c.timeInState.Store(0)
	c.timeInStateUnscaled.Store(0)
	c.record.Store(next)

	_, c.span = startTransitionSpan(ctx, info)

	transitionTotal.WithLabelValues(c.name, sanitizeState(info.From), info.To,
		strconv.FormatBool(options.force)).Inc()
	transitioning.WithLabelValues(c.name).Set(1)

	c.logger.TransitionAccepted(ctx, info)

	return next, c.span, nil
}

func (c *Coordinator[S]) reject(ctx context.Context, info TransitionInfo, reason string, err error) error {
	transitionRejections.WithLabelValues(c.name, reason).Inc()

	wrapped := &TransitionError{
		Machine: info.Machine,
		From:    info.From,
		To:      info.To,
		Err:     err,
	}

	c.logger.TransitionRejected(ctx, info, wrapped)

	return wrapped
}

// spawn asks each state for its task and starts both on the scheduler. It
// must run outside c.mu: on a stopped scheduler the handles complete at once
// and onFinished may call TransitionTo.
func (c *Coordinator[S]) spawn(ctx context.Context, rec *Record[S], span trace.Span, onFinished func()) {
	info := c.info(rec)

	var previous State
	if rec.hasPrevious {
		previous = rec.previous
	}

	finish := func(side Side, state string, handle *coroutine.Handle) func() {
		return func() {
			c.finishSide(ctx, rec, span, info, side, wrapSideError(side, state, handle.Err()), onFinished)
		}
	}

	var exitTask coroutine.Task
	if rec.hasPrevious {
		exitTask = rec.previous.Exit(rec.current)
	}

	enterTask := rec.current.Enter(previous)

	if rec.hasPrevious {
		handle := c.sched.Start(c.name+"."+info.From+"."+string(SideExit), exitTask)
		handle.OnDone(finish(SideExit, info.From, handle))
	}

	handle := c.sched.Start(c.name+"."+info.To+"."+string(SideEnter), enterTask)
	handle.OnDone(finish(SideEnter, info.To, handle))
}

func (c *Coordinator[S]) finishSide(
	ctx context.Context,
	rec *Record[S],
	span trace.Span,
	info TransitionInfo,
	side Side,
	err error,
	onFinished func(),
) {
	state := info.To
	if side == SideExit {
		state = info.From
	}

	sideOutcomes.WithLabelValues(c.name, string(side), state, outcome(err)).Inc()
	recordSideEvent(span, side, err)
	c.logger.SideCompleted(ctx, info, side, err)

	if !rec.completeSide(side, err) {
		return
	}

	rec.settle()

	settleErr := rec.Err()
	duration := time.Since(rec.acceptedAt)

	transitionDuration.WithLabelValues(c.name, info.To, outcome(settleErr)).Observe(duration.Seconds())

	if c.record.Load() == rec {
		transitioning.WithLabelValues(c.name).Set(0)
	}

	endTransitionSpan(ctx, span, settleErr)
	c.logger.TransitionSettled(ctx, info, duration, settleErr)

	if onFinished != nil {
		onFinished()
	}
}

// Interrupt forwards an interrupt to the previous and current states of the
// in-flight transition. It is a no-op while idle.
func (c *Coordinator[S]) Interrupt(ctx context.Context) {
	rec := c.record.Load()
	if rec == nil || rec.IsSettled() {
		return
	}

	if rec.hasPrevious && !isNil(rec.previous) {
		rec.previous.Interrupt()
	}

	rec.current.Interrupt()

	interruptTotal.WithLabelValues(c.name).Inc()

	c.mu.Lock()
	if c.record.Load() == rec && c.span != nil {
		recordInterruptEvent(c.span)
	}
	c.mu.Unlock()

	c.logger.TransitionInterrupted(ctx, c.info(rec))
}

func (c *Coordinator[S]) info(rec *Record[S]) TransitionInfo {
	from := noState
	if rec.hasPrevious {
		from = StateName(rec.previous)
	}

	return TransitionInfo{
		Machine: c.name,
		ID:      rec.id,
		From:    from,
		To:      StateName(rec.current),
		Forced:  rec.forced,
	}
}
