package coroutine

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/amp-labs/screenflow/logger"
)

// Task is the body of a coroutine. It runs from the tick after it was started
// until it returns, suspending only through the methods of co.
//
// A task must not call co's methods from any goroutine other than the one it
// was invoked on, and must not swallow panics raised by them: a stopping
// scheduler unwinds suspended tasks with a panic.
type Task func(co *Co) error

type coState int

const (
	stateReady coState = iota
	stateRunning
	stateParked
	stateDone
)

// Awaitable is anything a coroutine can suspend on. OnDone hooks must run
// immediately when the value is already resolved.
type Awaitable interface {
	IsDone() bool
	OnDone(hook func())
}

// Co is a running coroutine, passed to its Task.
type Co struct {
	sched  *Scheduler
	name   string
	task   Task
	handle *Handle

	resume  chan bool
	suspend chan struct{}

	// Guarded by sched.mu.
	state   coState
	started bool
}

// Name returns the name given to Start.
func (co *Co) Name() string {
	return co.name
}

// Scheduler returns the scheduler running this coroutine.
func (co *Co) Scheduler() *Scheduler {
	return co.sched
}

// Context is canceled when the scheduler stops.
func (co *Co) Context() context.Context {
	return co.sched.ctx
}

// Frame returns the frame of the tick the coroutine is currently running in.
func (co *Co) Frame() Frame {
	return co.sched.Frame()
}

// Yield suspends until the next tick.
func (co *Co) Yield() {
	co.sched.yielded(co)
	co.wait()
}

// Await suspends until a resolves. It returns immediately, without
// suspending, if a is nil or already resolved. A coroutine woken during a
// tick resumes within that same tick.
func (co *Co) Await(a Awaitable) {
	if a == nil || a.IsDone() {
		return
	}

	co.sched.parked(co)
	a.OnDone(func() {
		co.sched.wake(co)
	})
	co.wait()
}

// Sleep suspends for at least d of scaled time, measured in tick deltas.
// A zero or negative d still yields once.
func (co *Co) Sleep(d time.Duration) {
	co.sleep(d, func(f Frame) time.Duration { return f.Delta })
}

// SleepUnscaled is Sleep measured in real (unscaled) tick deltas.
func (co *Co) SleepUnscaled(d time.Duration) {
	co.sleep(d, func(f Frame) time.Duration { return f.UnscaledDelta })
}

func (co *Co) sleep(d time.Duration, delta func(Frame) time.Duration) {
	var elapsed time.Duration

	for {
		co.Yield()

		elapsed += delta(co.Frame())
		if elapsed >= d {
			return
		}
	}
}

// Start launches a child coroutine on the same scheduler; it first runs on
// the next tick. Use Await on the returned handle to wait for it.
func (co *Co) Start(name string, task Task) *Handle {
	return co.sched.Start(name, task)
}

// wait hands control back to the scheduler and blocks until resumed.
func (co *Co) wait() {
	co.suspend <- struct{}{}

	if !<-co.resume {
		panic(unwind{})
	}
}

// main is the coroutine's goroutine body.
func (co *Co) main() {
	var err error

	defer func() {
		outcome := outcomeSuccess

		if r := recover(); r != nil {
			if _, ok := r.(unwind); ok {
				err = ErrStopped
				outcome = outcomeStopped
			} else {
				err = panicError(co.name, r, debug.Stack())
				outcome = outcomePanic

				logger.Get(co.sched.ctx).Error("coroutine recovered from panic",
					"coroutine", co.name,
					"error", err)
			}
		} else if err != nil {
			outcome = outcomeError
			if errors.Is(err, ErrStopped) {
				outcome = outcomeStopped
			}
		}

		coroutineFinished.WithLabelValues(co.sched.name, outcome).Inc()

		co.sched.finish(co, err)

		co.suspend <- struct{}{}
	}()

	err = co.task(co)
}
