package statemachine

import (
	"errors"
	"time"

	"github.com/amp-labs/screenflow/future"
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// Side identifies one half of a transition.
type Side string

const (
	SideExit  Side = "exit"
	SideEnter Side = "enter"
)

// Record describes one accepted transition. The states it names never change
// after publication; only its completion signals resolve over time.
type Record[S State] struct {
	id          string
	seq         uint64
	previous    S
	hasPrevious bool
	current     S
	forced      bool
	acceptedAt  time.Time

	exitDone  *future.Future[struct{}]
	enterDone *future.Future[struct{}]
	settled   *future.Future[struct{}]

	exitPromise   *future.Promise[struct{}]
	enterPromise  *future.Promise[struct{}]
	settlePromise *future.Promise[struct{}]

	pending *atomic.Int32
}

func newRecord[S State](seq uint64, previous S, hasPrevious bool, current S, forced bool) *Record[S] {
	rec := &Record[S]{
		id:          uuid.NewString(),
		seq:         seq,
		previous:    previous,
		hasPrevious: hasPrevious,
		current:     current,
		forced:      forced,
		acceptedAt:  time.Now(),
		pending:     atomic.NewInt32(2),
	}

	rec.exitDone, rec.exitPromise = future.New[struct{}]()
	rec.enterDone, rec.enterPromise = future.New[struct{}]()
	rec.settled, rec.settlePromise = future.New[struct{}]()

	return rec
}

// ID uniquely identifies the transition in logs and spans.
func (r *Record[S]) ID() string {
	return r.id
}

// Seq is 1 for a coordinator's first transition and grows by one per
// accepted transition.
func (r *Record[S]) Seq() uint64 {
	return r.seq
}

// Previous returns the state that was current before this transition. The
// boolean is false for a coordinator's first transition.
func (r *Record[S]) Previous() (S, bool) { //nolint:ireturn
	return r.previous, r.hasPrevious
}

// Current returns the transition's target.
func (r *Record[S]) Current() S { //nolint:ireturn
	return r.current
}

// Forced reports whether the transition was requested with Force.
func (r *Record[S]) Forced() bool {
	return r.forced
}

// AcceptedAt is the wall-clock time the transition was accepted.
func (r *Record[S]) AcceptedAt() time.Time {
	return r.acceptedAt
}

// ExitDone resolves when the outgoing state's exit task completes. It is
// resolved from the start when there was no previous state.
func (r *Record[S]) ExitDone() *future.Future[struct{}] {
	return r.exitDone
}

// EnterDone resolves when the incoming state's enter task completes.
func (r *Record[S]) EnterDone() *future.Future[struct{}] {
	return r.enterDone
}

// Settled resolves once both sides have completed.
func (r *Record[S]) Settled() *future.Future[struct{}] {
	return r.settled
}

// IsSettled reports whether both sides have completed.
func (r *Record[S]) IsSettled() bool {
	return r.settled.IsDone()
}

// Err joins the failures of the two sides, each a *SideError. It is nil while
// the sides are running or when both succeeded.
func (r *Record[S]) Err() error {
	return errors.Join(r.exitDone.Err(), r.enterDone.Err())
}

// completeSide resolves one side's signal and reports whether it was the last
// side to finish.
func (r *Record[S]) completeSide(side Side, err error) bool {
	promise := r.enterPromise
	if side == SideExit {
		promise = r.exitPromise
	}

	if !promise.Complete(struct{}{}, err) {
		return false
	}

	return r.pending.Dec() == 0
}

// settle resolves the settled signal with the joined side errors.
func (r *Record[S]) settle() {
	r.settlePromise.Complete(struct{}{}, r.Err())
}
