// Package observability provides domain metrics and tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bucketlist_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ExperienceGranted sums experience written to the ledger by action.
	// Revocations are counted separately.
	ExperienceGranted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bucketlist_experience_granted_total",
		Help: "Experience points granted by action",
	}, []string{"action"})

	ExperienceRevoked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bucketlist_experience_revoked_total",
		Help: "Experience points revoked by action",
	}, []string{"action"})

	// LevelUps counts level transitions by the level reached.
	LevelUps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bucketlist_level_ups_total",
		Help: "Total number of level-ups by reached level",
	}, []string{"level"})

	AchievementsGranted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bucketlist_achievements_granted_total",
		Help: "Total number of achievements granted",
	})

	// CompletionTransitions counts completion state machine operations by outcome.
	CompletionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bucketlist_completion_transitions_total",
		Help: "Completion state machine operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// CacheResults counts cache lookups by cache name and hit or miss.
	CacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bucketlist_cache_results_total",
		Help: "Cache lookups by cache and result",
	}, []string{"cache", "result"})

	// ActiveWebSockets tracks open notification sockets.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bucketlist_active_websockets",
		Help: "Number of open notification websocket connections",
	})

	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bucketlist_notifications_delivered_total",
		Help: "Notification frames queued to sockets by event type",
	}, []string{"type"})

	// WebSocketBackpressureDrops counts frames dropped because a client
	// send buffer was full.
	WebSocketBackpressureDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bucketlist_websocket_backpressure_drops_total",
		Help: "Notification frames dropped on full client buffers",
	})
)
