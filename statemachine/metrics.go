package statemachine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric outcome constants.
const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

// Rejection reasons.
const (
	reasonInvalidArgument = "invalid_argument"
	reasonIllegalState    = "illegal_state"
)

// Metric definitions with appropriate labels.
var (
	// transitionTotal tracks accepted transitions.
	transitionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_transitions_total",
		Help: "Total number of accepted transitions by machine, from_state, to_state and forced",
	}, []string{"machine", "from_state", "to_state", "forced"})

	// transitionRejections tracks refused transition requests.
	transitionRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_transition_rejections_total",
		Help: "Total number of rejected transition requests by machine and reason",
	}, []string{"machine", "reason"})

	// sideOutcomes tracks exit and enter task completions.
	sideOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_side_completions_total",
		Help: "Total number of completed transition sides by machine, side, state and outcome (success or error)",
	}, []string{"machine", "side", "state", "outcome"})

	// transitionDuration tracks wall time from acceptance to settlement.
	transitionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "statemachine_transition_duration_seconds",
		Help:    "Wall time from acceptance until both sides completed, by machine and to_state",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"machine", "to_state", "outcome"})

	// interruptTotal tracks interrupts forwarded to in-flight transitions.
	interruptTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_interrupts_total",
		Help: "Total number of interrupts forwarded to in-flight transitions by machine",
	}, []string{"machine"})

	// transitioning is 1 while a machine has a transition in flight.
	transitioning = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "statemachine_transitioning",
		Help: "1 while the machine has a transition in flight, 0 otherwise",
	}, []string{"machine"})
)

func outcome(err error) string {
	if err != nil {
		return outcomeError
	}

	return outcomeSuccess
}

func sanitizeState(state string) string {
	if state == "" {
		return noState
	}

	return state
}
