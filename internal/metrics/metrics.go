// Package metrics provides Prometheus metrics collection for the palette service.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "palette"
	subsystem = "api"
)

var (
	// Using atomic.Pointer for lock-free initialization checks on hot path metrics.
	requestsTotal          atomic.Pointer[prometheus.CounterVec]
	requestDuration        atomic.Pointer[prometheus.HistogramVec]
	authFailuresTotal      atomic.Pointer[prometheus.CounterVec]
	rateLimitedTotal       atomic.Pointer[prometheus.Counter]
	voteTogglesTotal       atomic.Pointer[prometheus.CounterVec]
	moderationTotal        atomic.Pointer[prometheus.CounterVec]
	sweepRemovedTotal      atomic.Pointer[prometheus.CounterVec]
	sessionsCreatedTotal   atomic.Pointer[prometheus.Counter]
	palettesPublishedTotal atomic.Pointer[prometheus.CounterVec]
)

// Init initializes all Prometheus metrics and registers them with the provided registry.
// This should be called once at application startup.
func Init(reg prometheus.Registerer) error {
	requestsTotalVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled",
		},
		[]string{"method", "path", "status"},
	)
	if err := reg.Register(requestsTotalVec); err != nil {
		return fmt.Errorf("failed to register requestsTotal: %w", err)
	}

	requestDurationVec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	if err := reg.Register(requestDurationVec); err != nil {
		return fmt.Errorf("failed to register requestDuration: %w", err)
	}

	authFailuresTotalVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "auth_failures_total",
			Help:      "Total number of authentication failures",
		},
		[]string{"reason"},
	)
	if err := reg.Register(authFailuresTotalVec); err != nil {
		return fmt.Errorf("failed to register authFailuresTotal: %w", err)
	}

	rateLimited := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter",
	})
	if err := reg.Register(rateLimited); err != nil {
		return fmt.Errorf("failed to register rateLimitedTotal: %w", err)
	}

	voteTogglesVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "vote_toggles_total",
			Help:      "Vote toggles by outcome",
		},
		[]string{"outcome"},
	)
	if err := reg.Register(voteTogglesVec); err != nil {
		return fmt.Errorf("failed to register voteTogglesTotal: %w", err)
	}

	moderationVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "transitions_total",
			Help:      "Proposed color name events by kind",
		},
		[]string{"event"},
	)
	if err := reg.Register(moderationVec); err != nil {
		return fmt.Errorf("failed to register moderationTotal: %w", err)
	}

	sweepRemovedVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retention",
			Name:      "removed_total",
			Help:      "Records removed or repaired by the retention sweep",
		},
		[]string{"kind"},
	)
	if err := reg.Register(sweepRemovedVec); err != nil {
		return fmt.Errorf("failed to register sweepRemovedTotal: %w", err)
	}

	sessionsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sessions",
		Name:      "created_total",
		Help:      "Total number of sessions issued",
	})
	if err := reg.Register(sessionsCreated); err != nil {
		return fmt.Errorf("failed to register sessionsCreatedTotal: %w", err)
	}

	palettesPublishedVec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "published_total",
			Help:      "Palettes published by entry point",
		},
		[]string{"path"},
	)
	if err := reg.Register(palettesPublishedVec); err != nil {
		return fmt.Errorf("failed to register palettesPublishedTotal: %w", err)
	}

	infoGaugeVec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "info",
			Help:      "Service version and build information",
		},
		[]string{"version"},
	)
	infoGaugeInstance := infoGaugeVec.WithLabelValues("1.0.0")
	if err := reg.Register(infoGaugeVec); err != nil {
		return fmt.Errorf("failed to register infoGauge: %w", err)
	}
	infoGaugeInstance.Set(1)

	requestsTotal.Store(requestsTotalVec)
	requestDuration.Store(requestDurationVec)
	authFailuresTotal.Store(authFailuresTotalVec)
	rateLimitedTotal.Store(&rateLimited)
	voteTogglesTotal.Store(voteTogglesVec)
	moderationTotal.Store(moderationVec)
	sweepRemovedTotal.Store(sweepRemovedVec)
	sessionsCreatedTotal.Store(&sessionsCreated)
	palettesPublishedTotal.Store(palettesPublishedVec)

	return nil
}

// RecordRequest increments the requests counter for the given method, route pattern, and status code.
func RecordRequest(method, path, statusCode string) {
	if counter := requestsTotal.Load(); counter != nil {
		counter.WithLabelValues(method, path, statusCode).Inc()
	}
}

// RecordRequestDuration records the latency for a request in seconds.
func RecordRequestDuration(method, path, statusCode string, durationSeconds float64) {
	if histogram := requestDuration.Load(); histogram != nil {
		histogram.WithLabelValues(method, path, statusCode).Observe(durationSeconds)
	}
}

// RecordAuthFailure increments the auth failures counter for the given reason.
// Reasons: "missing_session", "missing_admin_token", "invalid_admin_token", "not_owner".
func RecordAuthFailure(reason string) {
	if counter := authFailuresTotal.Load(); counter != nil {
		counter.WithLabelValues(reason).Inc()
	}
}

// RecordRateLimited counts a request rejected with 429.
func RecordRateLimited() {
	if counter := rateLimitedTotal.Load(); counter != nil {
		(*counter).Inc()
	}
}

// RecordVoteToggle counts a toggle. Outcomes: "voted", "unvoted", "race".
func RecordVoteToggle(outcome string) {
	if counter := voteTogglesTotal.Load(); counter != nil {
		counter.WithLabelValues(outcome).Inc()
	}
}

// RecordModeration counts a moderation event: "proposed", "approved", "rejected".
func RecordModeration(event string) {
	if counter := moderationTotal.Load(); counter != nil {
		counter.WithLabelValues(event).Inc()
	}
}

// RecordSweepRemoved adds n to the sweep counter for kind
// ("sessions", "votes", "counters"). Zero is a no-op.
func RecordSweepRemoved(kind string, n int64) {
	if n <= 0 {
		return
	}
	if counter := sweepRemovedTotal.Load(); counter != nil {
		counter.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordSessionCreated counts an issued session.
func RecordSessionCreated() {
	if counter := sessionsCreatedTotal.Load(); counter != nil {
		(*counter).Inc()
	}
}

// RecordPalettePublished counts a publish through path ("session" or "legacy").
func RecordPalettePublished(path string) {
	if counter := palettesPublishedTotal.Load(); counter != nil {
		counter.WithLabelValues(path).Inc()
	}
}

// HandlerFor returns a metrics handler serving the given registry.
func HandlerFor(reg prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// GetMetricsText returns the Prometheus text-format output from a registry.
// This is useful for testing and debugging.
func GetMetricsText(reg prometheus.Gatherer) (string, error) {
	handler := HandlerFor(reg)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	body, err := io.ReadAll(w.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read metrics output: %w", err)
	}

	return string(body), nil
}
