package health

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// startupReady is flipped once main has finished wiring all services. It is
// consumed by the /health/startup endpoint.
var startupReady atomic.Bool

// MarkStartupReady should be called from main after initialisation so that
// /health/startup begins returning 200.
func MarkStartupReady() {
	startupReady.Store(true)
}

// dbCheckTimeout is the default timeout used for database connectivity checks.
const dbCheckTimeout = 2 * time.Second

// EnvReport tells operators which deployment knobs are present without
// leaking their values. Served on /api/health for parity with the legacy
// deployment-diagnostics endpoint.
type EnvReport struct {
	HasWebhookSecret bool `json:"has_webhook_secret"`
	HasAuthOrigin    bool `json:"has_auth_origin"`
	HasJWTSecret     bool `json:"has_jwt_secret"`
	HasDatabase      bool `json:"has_database"`
}

// RegisterRoutes registers the health-check endpoints on the provided
// gin.Engine:
//
//	GET /health         – backward-compatible, always returns {"status":"ok"}
//	GET /health/live    – liveness probe, always 200
//	GET /health/ready   – readiness probe, checks DB connectivity
//	GET /health/startup – startup probe, checks DB + startupReady flag
//	GET /api/health     – legacy diagnostics: status, timestamp, env presence
func RegisterRoutes(r *gin.Engine, db *gorm.DB, env EnvReport) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Liveness – if the process can serve HTTP, it is alive.
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Readiness – ready to accept traffic when the DB is reachable.
	r.GET("/health/ready", func(c *gin.Context) {
		if err := CheckDatabase(db, dbCheckTimeout); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"checks": gin.H{"database": err.Error()},
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"checks": gin.H{"database": "ok"},
		})
	})

	// Startup – the initialisation sequence has completed.
	r.GET("/health/startup", func(c *gin.Context) {
		if !startupReady.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"checks": gin.H{"startup": "not ready"},
			})
			return
		}
		if err := CheckDatabase(db, dbCheckTimeout); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"checks": gin.H{"database": err.Error()},
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"checks": gin.H{
				"startup":  "ready",
				"database": "ok",
			},
		})
	})

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"env":       env,
		})
	})
}
