package coroutine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for coroutineFinished.
const (
	outcomeSuccess = "success"
	outcomeError   = "error"
	outcomePanic   = "panic"
	outcomeStopped = "stopped"
)

// Prometheus metrics for cooperative schedulers. Every series is labeled by
// the scheduler's name so several hosts in one process stay distinguishable.
var (
	// schedulerTicks counts completed scheduling ticks.
	schedulerTicks = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "coroutine_scheduler_ticks_total",
		Help: "The total number of scheduling ticks run",
	}, []string{"scheduler"})

	// tickDuration measures wall time spent inside Tick.
	tickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name:    "coroutine_scheduler_tick_duration_seconds",
		Help:    "Wall time spent running tickers and coroutines in one tick",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1},
	}, []string{"scheduler"})

	// coroutineStarted counts coroutines handed to a scheduler.
	coroutineStarted = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "coroutine_started_total",
		Help: "The total number of coroutines started",
	}, []string{"scheduler"})

	// coroutineFinished counts coroutines that ended, by outcome.
	coroutineFinished = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "coroutine_finished_total",
		Help: "The total number of coroutines finished, by outcome (success, error, panic, stopped)",
	}, []string{"scheduler", "outcome"})

	// coroutinesLive tracks coroutines that have been started and not yet finished.
	coroutinesLive = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "coroutine_live",
		Help: "The number of coroutines currently alive",
	}, []string{"scheduler"})
)
