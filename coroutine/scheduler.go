// Package coroutine is a single-threaded cooperative task host driven by
// discrete ticks.
//
// A Scheduler owns a set of coroutines. Each coroutine runs its Task on a
// dedicated goroutine, but control is handed over explicitly: the scheduler
// resumes one coroutine, then blocks until that coroutine suspends (Yield,
// Await, Sleep) or returns. At most one coroutine therefore executes at any
// instant and no coroutine is ever preempted, which lets tasks share state
// with the host without locks, exactly like code running on a game loop.
//
// Each call to Tick forms one scheduling tick:
//
//  1. the frame clock advances (scaled by the time scale)
//  2. registered Tickers observe the new frame, in registration order
//  3. coroutines started or yielded before the tick are resumed, in order
//  4. coroutines woken during the tick (an awaited value resolved) are
//     resumed in the same tick, until none remain
//
// Coroutines started during a tick first run on the following tick, so a
// request made by the host is always fully applied before any of the work it
// started gets to run.
package coroutine

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/amp-labs/screenflow/logger"
	"go.uber.org/atomic"
)

const defaultSchedulerName = "default"

// Frame describes one scheduling tick.
type Frame struct {
	// Index is 1 for the first tick.
	Index uint64
	// Delta is the tick's duration after time scaling.
	Delta time.Duration
	// UnscaledDelta is the tick's real duration.
	UnscaledDelta time.Duration
	// Time is the sum of all scaled deltas so far.
	Time time.Duration
	// UnscaledTime is the sum of all real deltas so far.
	UnscaledTime time.Duration
}

// Ticker receives a callback once per tick, before coroutines resume.
type Ticker interface {
	OnTick(frame Frame)
}

// TickerFunc adapts a function to the Ticker interface.
type TickerFunc func(frame Frame)

// OnTick calls f(frame).
func (f TickerFunc) OnTick(frame Frame) {
	f(frame)
}

type tickerEntry struct {
	ticker  Ticker
	removed bool
}

// Scheduler drives coroutines and tickers one tick at a time.
//
// Tick, Stop and Run belong to the host loop. Start, AddTicker, SetTimeScale
// and the read accessors may be called from coroutines or other goroutines.
type Scheduler struct {
	name      string
	timeScale *atomic.Float64

	ctx    context.Context //nolint:containedctx
	cancel context.CancelFunc

	mu      sync.Mutex
	frame   Frame
	ready   []*Co // resumed on the next tick
	woken   []*Co // resumed as soon as possible
	tickers []*tickerEntry
	live    map[*Co]struct{}

	// tickMu is held for the whole of a tick and while unwinding.
	tickMu        sync.Mutex
	stopped       *atomic.Bool
	stopRequested *atomic.Bool
}

// NewScheduler creates an idle scheduler at frame zero.
func NewScheduler(opts ...Option) *Scheduler {
	options := schedulerOptions{
		name:      defaultSchedulerName,
		timeScale: 1,
		ctx:       context.Background(),
	}

	for _, opt := range opts {
		opt(&options)
	}

	ctx, cancel := context.WithCancel(logger.With(options.ctx, "scheduler", options.name))

	coroutinesLive.WithLabelValues(options.name).Add(0)
	schedulerTicks.WithLabelValues(options.name).Add(0)

	return &Scheduler{
		name:          options.name,
		timeScale:     atomic.NewFloat64(clampScale(options.timeScale)),
		ctx:           ctx,
		cancel:        cancel,
		live:          make(map[*Co]struct{}),
		stopped:       atomic.NewBool(false),
		stopRequested: atomic.NewBool(false),
	}
}

// Name returns the scheduler's name, used for logging and metrics.
func (s *Scheduler) Name() string {
	return s.name
}

// Context is canceled when the scheduler stops.
func (s *Scheduler) Context() context.Context {
	return s.ctx
}

// Frame returns the most recent tick's frame.
func (s *Scheduler) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.frame
}

// TimeScale returns the multiplier applied to tick deltas.
func (s *Scheduler) TimeScale() float64 {
	return s.timeScale.Load()
}

// SetTimeScale changes the multiplier applied to subsequent tick deltas.
// Negative values are treated as zero (time frozen).
func (s *Scheduler) SetTimeScale(scale float64) {
	s.timeScale.Store(clampScale(scale))
}

func clampScale(scale float64) float64 {
	if scale < 0 {
		return 0
	}

	return scale
}

// Live returns the number of coroutines started and not yet finished.
func (s *Scheduler) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.live)
}

// Stopped reports whether Stop has taken effect.
func (s *Scheduler) Stopped() bool {
	return s.stopped.Load()
}

// AddTicker registers t for per-tick callbacks and returns a function that
// unregisters it.
func (s *Scheduler) AddTicker(t Ticker) (remove func()) {
	entry := &tickerEntry{ticker: t}

	s.mu.Lock()
	s.tickers = append(s.tickers, entry)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		entry.removed = true
		s.tickers = slices.DeleteFunc(s.tickers, func(e *tickerEntry) bool {
			return e == entry
		})
	}
}

// Start schedules task as a new coroutine. It first runs on the next tick.
// A nil task completes successfully on that tick.
//
// Starting on a stopped scheduler returns a handle that has already failed
// with ErrStopped.
func (s *Scheduler) Start(name string, task Task) *Handle {
	handle := newHandle(name)

	if s.stopped.Load() {
		handle.promise.Failure(ErrStopped)

		return handle
	}

	if task == nil {
		task = func(*Co) error { return nil }
	}

	co := &Co{
		sched:   s,
		name:    name,
		task:    task,
		handle:  handle,
		resume:  make(chan bool),
		suspend: make(chan struct{}),
		state:   stateReady,
	}

	s.mu.Lock()
	s.live[co] = struct{}{}
	s.ready = append(s.ready, co)
	s.mu.Unlock()

	coroutineStarted.WithLabelValues(s.name).Inc()
	coroutinesLive.WithLabelValues(s.name).Inc()

	return handle
}

// Tick advances the clock by delta and runs one scheduling tick.
//
// Tick must only be called by the host loop, never from inside a coroutine or
// a ticker.
func (s *Scheduler) Tick(delta time.Duration) error {
	if delta < 0 {
		return ErrNegativeDelta
	}

	if s.stopped.Load() {
		return ErrStopped
	}

	if !s.tickMu.TryLock() {
		return ErrReentrantTick
	}

	if s.stopped.Load() {
		s.tickMu.Unlock()

		return ErrStopped
	}

	start := time.Now()

	s.mu.Lock()

	frame := s.frame
	frame.Index++
	frame.UnscaledDelta = delta
	frame.Delta = time.Duration(float64(delta) * s.timeScale.Load())
	frame.Time += frame.Delta
	frame.UnscaledTime += delta
	s.frame = frame

	tickers := slices.Clone(s.tickers)

	queue := make([]*Co, 0, len(s.ready)+len(s.woken))
	queue = append(queue, s.ready...)
	queue = append(queue, s.woken...)
	s.ready = nil
	s.woken = nil

	s.mu.Unlock()

	for _, entry := range tickers {
		if !entry.removed {
			entry.ticker.OnTick(frame)
		}
	}

	for len(queue) > 0 {
		for _, co := range queue {
			s.step(co)
		}

		s.mu.Lock()
		queue = s.woken
		s.woken = nil
		s.mu.Unlock()
	}

	schedulerTicks.WithLabelValues(s.name).Inc()
	tickDuration.WithLabelValues(s.name).Observe(time.Since(start).Seconds())

	s.tickMu.Unlock()

	// A Stop that arrived while the tick held tickMu is carried out here.
	if s.stopRequested.Load() && s.tickMu.TryLock() {
		defer s.tickMu.Unlock()

		s.unwindAll()
	}

	return nil
}

// Run ticks at the given interval using real elapsed time as the delta until
// ctx is done or the scheduler stops.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ctx.Done():
			return ErrStopped
		case now := <-ticker.C:
			delta := now.Sub(last)
			last = now

			if err := s.Tick(delta); err != nil {
				return err
			}
		}
	}
}

// Stop unwinds every live coroutine; their handles fail with ErrStopped.
// While a tick is running, from inside it or on another goroutine, the
// unwinding happens as soon as that tick completes. Stop is idempotent.
func (s *Scheduler) Stop() {
	s.stopRequested.Store(true)

	if !s.tickMu.TryLock() {
		return
	}

	defer s.tickMu.Unlock()

	s.unwindAll()
}

func (s *Scheduler) unwindAll() {
	if !s.stopped.CompareAndSwap(false, true) {
		return
	}

	s.cancel()

	s.mu.Lock()

	victims := make([]*Co, 0, len(s.live))
	for co := range s.live {
		victims = append(victims, co)
	}

	s.ready = nil
	s.woken = nil

	s.mu.Unlock()

	for _, co := range victims {
		s.unwind(co)
	}

	logger.Get(s.ctx).Debug("scheduler stopped", "unwound", len(victims))
}

// step hands control to co and blocks until it suspends or finishes.
func (s *Scheduler) step(co *Co) {
	s.mu.Lock()

	if co.state != stateReady {
		s.mu.Unlock()

		return
	}

	co.state = stateRunning
	started := co.started
	co.started = true

	s.mu.Unlock()

	if started {
		co.resume <- true
	} else {
		go co.main()
	}

	<-co.suspend
}

func (s *Scheduler) unwind(co *Co) {
	s.mu.Lock()
	state := co.state
	started := co.started
	co.state = stateRunning
	s.mu.Unlock()

	if state == stateDone {
		return
	}

	if !started {
		coroutineFinished.WithLabelValues(s.name, outcomeStopped).Inc()
		s.finish(co, ErrStopped)

		return
	}

	co.resume <- false

	<-co.suspend
}

// yielded queues co for the next tick.
func (s *Scheduler) yielded(co *Co) {
	s.mu.Lock()
	co.state = stateReady
	s.ready = append(s.ready, co)
	s.mu.Unlock()
}

// parked marks co as waiting for a wake-up.
func (s *Scheduler) parked(co *Co) {
	s.mu.Lock()
	co.state = stateParked
	s.mu.Unlock()
}

// wake makes a parked coroutine runnable again. It is safe from any goroutine.
func (s *Scheduler) wake(co *Co) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if co.state != stateParked || s.stopped.Load() {
		return
	}

	co.state = stateReady
	s.woken = append(s.woken, co)
}

// finish records a coroutine's end and resolves its handle.
func (s *Scheduler) finish(co *Co, err error) {
	s.mu.Lock()
	co.state = stateDone
	delete(s.live, co)
	s.mu.Unlock()

	coroutinesLive.WithLabelValues(s.name).Dec()

	co.handle.complete(s.ctx, err)
}
