package metrics

import (
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

// ---------------------------------------------------------------------------
// Package-level metric variables. Set by RegisterBusinessMetrics and used by
// the helpers below. When nil (i.e. before RegisterBusinessMetrics is
// called), callers simply skip recording.
// ---------------------------------------------------------------------------

// Identity sync metrics
var (
	syncsTotal        *prometheus.CounterVec
	syncCacheHitsTotal prometheus.Counter
	syncCacheSize      prometheus.Gauge
)

// Webhook metrics
var (
	webhookEventsTotal *prometheus.CounterVec
)

// Auth proxy metrics
var (
	proxyVerdictsTotal *prometheus.CounterVec
)

// RegisterBusinessMetrics registers all business-related metrics on the
// provided registry. If reg is nil the call is a no-op.
func RegisterBusinessMetrics(reg *prometheus.Registry) {
	if reg == nil {
		return
	}

	syncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authsync_syncs_total",
			Help: "Total number of identity sync attempts that reached storage.",
		},
		[]string{"status"},
	)

	syncCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authsync_sync_cache_hits_total",
		Help: "Total number of syncs answered from the TTL cache.",
	})

	syncCacheSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "authsync_sync_cache_entries",
		Help: "Current number of entries in the sync cache.",
	})

	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authsync_webhook_events_total",
			Help: "Total number of identity webhook events received.",
		},
		[]string{"type", "status"},
	)

	proxyVerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authsync_proxy_verdicts_total",
			Help: "Total number of classifier verdicts issued by the auth proxy.",
		},
		[]string{"verdict"},
	)

	reg.MustRegister(
		syncsTotal,
		syncCacheHitsTotal,
		syncCacheSize,
		webhookEventsTotal,
		proxyVerdictsTotal,
	)
}

// ---------------------------------------------------------------------------
// Record / Increment helpers
// ---------------------------------------------------------------------------

// RecordSync increments the sync counter for the given outcome ("ok" or
// "error").
func RecordSync(status string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[metrics] recovered from panic in RecordSync: %v", r)
		}
	}()

	if syncsTotal != nil {
		syncsTotal.WithLabelValues(status).Inc()
	}
}

// IncSyncCacheHit increments the cache hit counter.
func IncSyncCacheHit() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[metrics] recovered from panic in IncSyncCacheHit: %v", r)
		}
	}()

	if syncCacheHitsTotal != nil {
		syncCacheHitsTotal.Inc()
	}
}

// SetSyncCacheSize records the current number of cache entries.
func SetSyncCacheSize(n int) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[metrics] recovered from panic in SetSyncCacheSize: %v", r)
		}
	}()

	if syncCacheSize != nil {
		syncCacheSize.Set(float64(n))
	}
}

// IncWebhookEvent increments the webhook event counter for the given event
// type and outcome ("ok", "rejected", "error", "ignored").
func IncWebhookEvent(eventType, status string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[metrics] recovered from panic in IncWebhookEvent: %v", r)
		}
	}()

	if webhookEventsTotal != nil {
		webhookEventsTotal.WithLabelValues(eventType, status).Inc()
	}
}

// IncProxyVerdict increments the verdict counter for the given verdict
// label.
func IncProxyVerdict(verdict string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[metrics] recovered from panic in IncProxyVerdict: %v", r)
		}
	}()

	if proxyVerdictsTotal != nil {
		proxyVerdictsTotal.WithLabelValues(verdict).Inc()
	}
}
