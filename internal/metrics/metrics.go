// Package metrics defines the Prometheus metrics of the training loop.
//
// They are registered in the default registry, and served on /metrics by the profilers
// HTTP server (flag -prof).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GatherAttempts counts gather attempts, labeled by result ("success" or "failure").
	GatherAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rlloop_gather_attempts_total",
			Help: "Total number of gather attempts",
		},
		[]string{"result"},
	)

	// TrainResults counts training steps, labeled by status ("success", "recoverable" or "fatal").
	TrainResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rlloop_train_results_total",
			Help: "Total number of training steps by outcome",
		},
		[]string{"status"},
	)

	// PhaseDuration of each phase: "bootstrap", "selfplay", "gather" and "train".
	PhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rlloop_phase_duration_seconds",
			Help:    "Duration of each phase of the training loop in seconds",
			Buckets: []float64{1, 10, 30, 60, 300, 900, 1800, 3600, 7200, 14400},
		},
		[]string{"phase"},
	)

	// LatestGeneration is the generation of the latest model seen or created.
	LatestGeneration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rlloop_latest_generation",
			Help: "Generation of the latest model",
		},
	)

	// SelfPlayGames counts the self-play games requested to the engine.
	SelfPlayGames = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rlloop_selfplay_games_total",
			Help: "Total number of self-play games played",
		},
	)
)
