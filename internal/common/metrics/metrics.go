// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TestsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_tests_completed_total",
			Help: "Total number of completed career tests",
		},
		[]string{"mode"},
	)

	ConsultationsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "advisor_consultations_completed_total",
			Help: "Total number of completed AI consultations",
		},
	)

	GenerationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_generation_failures_total",
			Help: "Total number of generation backend failures",
		},
		[]string{"reason"},
	)

	AchievementsUnlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_achievements_unlocked_total",
			Help: "Total number of achievement unlocks",
		},
		[]string{"category"},
	)

	CatalogReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_catalog_reloads_total",
			Help: "Total number of catalog reload attempts",
		},
		[]string{"outcome"},
	)

	SessionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "advisor_session_conflicts_total",
			Help: "Total number of in-flight results discarded on stale sessions",
		},
	)

	MatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "advisor_match_duration_seconds",
			Help: "Duration of matching engine runs in seconds",
		},
	)

	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "advisor_generation_duration_seconds",
			Help:    "Duration of generation backend calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "advisor_active_sessions",
			Help: "Number of conversation sessions currently live in Redis",
		},
	)
)
