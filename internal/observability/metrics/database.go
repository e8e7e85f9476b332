package metrics

import (
	"database/sql"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Package-level metric variables. Set by RegisterDBMetrics and read by the
// GORM callbacks and the stats collector. When nil (metrics not registered,
// e.g. in tests), callers simply skip recording.
var (
	dbQueriesTotal    *prometheus.CounterVec
	dbQueryDuration   *prometheus.HistogramVec
	dbConnectionsOpen prometheus.Gauge
	dbConnectionsMax  prometheus.Gauge
)

// RegisterDBMetrics registers database metrics on the provided registry.
// If reg is nil the call is a no-op.
func RegisterDBMetrics(reg *prometheus.Registry) {
	if reg == nil {
		return
	}

	dbQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authsync_db_queries_total",
			Help: "Total number of database queries executed.",
		},
		[]string{"operation"},
	)

	dbQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authsync_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	dbConnectionsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "authsync_db_connections_open",
		Help: "Number of open database connections.",
	})

	dbConnectionsMax = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "authsync_db_connections_max",
		Help: "Maximum number of open database connections.",
	})

	reg.MustRegister(
		dbQueriesTotal,
		dbQueryDuration,
		dbConnectionsOpen,
		dbConnectionsMax,
	)
}

// RegisterGORMCallbacks registers Before/After observability callbacks for
// Create, Query, Update, and Delete on the provided *gorm.DB. Callbacks
// never execute SQL and each is wrapped in defer/recover. If db is nil the
// call is a no-op.
func RegisterGORMCallbacks(db *gorm.DB) {
	if db == nil {
		return
	}

	db.Callback().Create().Before("gorm:create").Register("obs:before_create", makeBeforeCallback("create"))
	db.Callback().Create().After("gorm:create").Register("obs:after_create", makeAfterCallback("create"))

	db.Callback().Query().Before("gorm:query").Register("obs:before_query", makeBeforeCallback("query"))
	db.Callback().Query().After("gorm:query").Register("obs:after_query", makeAfterCallback("query"))

	db.Callback().Update().Before("gorm:update").Register("obs:before_update", makeBeforeCallback("update"))
	db.Callback().Update().After("gorm:update").Register("obs:after_update", makeAfterCallback("update"))

	db.Callback().Delete().Before("gorm:delete").Register("obs:before_delete", makeBeforeCallback("delete"))
	db.Callback().Delete().After("gorm:delete").Register("obs:after_delete", makeAfterCallback("delete"))
}

func makeBeforeCallback(operation string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[metrics] recovered from panic in obs:before_%s: %v", operation, r)
			}
		}()
		tx.InstanceSet("obs:start_time", time.Now())
	}
}

// makeAfterCallback returns a GORM callback that records query count and
// duration for the given operation, skipping silently when metrics are not
// registered.
func makeAfterCallback(operation string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[metrics] recovered from panic in obs:after_%s: %v", operation, r)
			}
		}()

		if tx == nil {
			return
		}
		v, ok := tx.InstanceGet("obs:start_time")
		if !ok {
			return
		}
		startTime, ok := v.(time.Time)
		if !ok {
			return
		}

		duration := time.Since(startTime).Seconds()

		if dbQueriesTotal != nil {
			dbQueriesTotal.WithLabelValues(operation).Inc()
		}
		if dbQueryDuration != nil {
			dbQueryDuration.WithLabelValues(operation).Observe(duration)
		}
	}
}

// StartDBStatsCollector launches a background goroutine that periodically
// reads sql.DBStats and updates the connection gauges. If sqlDB is nil the
// call is a no-op.
func StartDBStatsCollector(sqlDB *sql.DB, interval time.Duration) {
	if sqlDB == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("[metrics] recovered from panic in DBStatsCollector: %v", r)
					}
				}()

				stats := sqlDB.Stats()

				if dbConnectionsOpen != nil {
					dbConnectionsOpen.Set(float64(stats.OpenConnections))
				}
				if dbConnectionsMax != nil {
					dbConnectionsMax.Set(float64(stats.MaxOpenConnections))
				}
			}()
		}
	}()
}
