package scenario

import (
	"fmt"
	"strings"
	"time"
)

// EventKind classifies report events.
type EventKind string

const (
	EventAccepted         EventKind = "accepted"
	EventRejected         EventKind = "rejected"
	EventNoop             EventKind = "noop"
	EventInterrupt        EventKind = "interrupt"
	EventStateInterrupted EventKind = "state-interrupted"
	EventEnterStarted     EventKind = "enter-started"
	EventEnterDone        EventKind = "enter-done"
	EventExitStarted      EventKind = "exit-started"
	EventExitDone         EventKind = "exit-done"
	EventSideFailed       EventKind = "side-failed"
	EventSettled          EventKind = "settled"
	EventTimeScale        EventKind = "time-scale"
)

// Event is one thing that happened during a run. Tick is the index of the
// tick it happened in; requests applied between ticks carry the index of the
// tick that ran last.
type Event struct {
	Tick   uint64
	Kind   EventKind
	State  string
	Detail string
}

func (e Event) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%4d %-17s %s", e.Tick, e.Kind, e.State)

	if e.Detail != "" {
		sb.WriteString(" (" + e.Detail + ")")
	}

	return sb.String()
}

// Report is the outcome of one run.
type Report struct {
	RunID    string
	Scenario string
	Ticks    uint64
	Elapsed  time.Duration
	Final    string
	Settled  bool
	Events   []Event
	// Failures lists unmet expectations. A run passes when it is empty.
	Failures []string
}

// Passed reports whether every expectation held.
func (r *Report) Passed() bool {
	return len(r.Failures) == 0
}

// Count returns the number of events of the given kind.
func (r *Report) Count(kind EventKind) int {
	n := 0

	for _, e := range r.Events {
		if e.Kind == kind {
			n++
		}
	}

	return n
}

// Filter returns the events of the given kind, in order.
func (r *Report) Filter(kind EventKind) []Event {
	var out []Event

	for _, e := range r.Events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}

	return out
}

func (r *Report) String() string {
	var sb strings.Builder

	status := "PASS"
	if !r.Passed() {
		status = "FAIL"
	}

	fmt.Fprintf(&sb, "%s %s (run %s): %d ticks, %s simulated, final state %s\n",
		status, r.Scenario, r.RunID, r.Ticks, r.Elapsed, r.Final)

	for _, e := range r.Events {
		sb.WriteString("  " + e.String() + "\n")
	}

	for _, failure := range r.Failures {
		sb.WriteString("  ! " + failure + "\n")
	}

	return sb.String()
}
