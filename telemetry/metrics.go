// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	MemberEventsSeen      prometheus.Counter
	JoinsSeen             prometheus.Counter
	KnownUserSuppressions prometheus.Counter
	InvitesSent           prometheus.Counter
	InvitesFailed         prometheus.Counter
	EmailsSent            prometheus.Counter
	EmailsFailed          prometheus.Counter
	SessionRestarts       prometheus.Counter

	// Histograms (seconds)
	HandleDuration prometheus.Observer

	// Gauges
	WatchedRoomsGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MemberEventsSeen = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_member_events_total", Help: "Membership events received from /sync"})
		JoinsSeen = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_joins_total", Help: "Events classified as genuine joins"})
		KnownUserSuppressions = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_known_user_suppressions_total", Help: "Joins suppressed because the user was already a member of another watched room"})
		InvitesSent = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_invites_sent_total", Help: "Invites issued to new space members"})
		InvitesFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_invites_failed_total", Help: "Invite attempts that errored"})
		EmailsSent = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_emails_sent_total", Help: "Notification emails delivered"})
		EmailsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_emails_failed_total", Help: "Notification emails that errored"})
		SessionRestarts = promauto.NewCounter(prometheus.CounterOpts{Name: "notify_session_restarts_total", Help: "Matrix sessions restarted by the supervisor"})
		HandleDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "notify_handle_duration_seconds", Help: "Join event handling duration seconds", Buckets: prometheus.DefBuckets})
		WatchedRoomsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "notify_watched_rooms", Help: "Number of resolved watched room ids"})
	})
}

// SetWatchedRooms records the current resolved watch set size.
func SetWatchedRooms(n int) {
	if WatchedRoomsGauge != nil {
		WatchedRoomsGauge.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
