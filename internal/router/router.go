package router

import (
	"time"

	"authsync-platform/internal/config"
	"authsync-platform/internal/handlers"
	"authsync-platform/internal/middleware"
	"authsync-platform/internal/observability/health"
	"authsync-platform/internal/observability/metrics"
	"authsync-platform/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Setup wires the HTTP surface: health and metrics endpoints, the webhook
// and session sync routes, and the auth reverse proxy on the no-route path.
func Setup(cfg *config.Config, db *gorm.DB, sync *services.UserSyncService) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.Logger())
	r.Use(middleware.ErrorHandler())

	if reg := metrics.GetRegistry(); reg != nil {
		r.Use(metrics.HTTPMetricsMiddleware(reg))
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	health.RegisterRoutes(r, db, health.EnvReport{
		HasWebhookSecret: cfg.Webhook.Secret != "",
		HasAuthOrigin:    cfg.Auth.Origin != "",
		HasJWTSecret:     cfg.Auth.JWTSecret != "",
		HasDatabase:      db != nil,
	})

	webhookHandler, err := handlers.NewWebhookHandler(cfg.Webhook.Secret, sync)
	if err != nil {
		return nil, err
	}
	webhookLimiter := middleware.NewRateLimiter(cfg.Webhook.MaxPerMinute, time.Minute)
	r.POST("/api/webhooks/identity", middleware.RateLimit(webhookLimiter), webhookHandler.Handle)

	sessionHandler := handlers.NewSessionSyncHandler(cfg.Auth.JWTSecret, sync)
	r.GET("/api/sync-current-user", sessionHandler.Handle)

	proxyHandler, err := handlers.NewAuthProxyHandler(cfg.Auth.Origin)
	if err != nil {
		return nil, err
	}
	r.NoRoute(proxyHandler.Handle)

	return r, nil
}
