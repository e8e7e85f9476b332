package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"authsync-platform/internal/config"
	"authsync-platform/internal/database"
	"authsync-platform/internal/observability/health"
	"authsync-platform/internal/observability/metrics"
	"authsync-platform/internal/router"
	"authsync-platform/services"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	reg := metrics.InitRegistry()
	metrics.RegisterDBMetrics(reg)
	metrics.RegisterBusinessMetrics(reg)
	log.Println("Metrics registry initialized")

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	log.Println("Database initialized")

	cache := services.NewSyncCache(cfg.Sync.CacheTTL)
	syncService := services.NewUserSyncService(db, cache)
	log.Printf("User sync service initialized (cache TTL %s)", cfg.Sync.CacheTTL)

	// Reclaim expired cache entries periodically. The cache is correct
	// without this; it only bounds memory in long-lived processes.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			if removed := cache.Cleanup(); removed > 0 {
				log.Printf("[Sync] cache cleanup removed %d expired entries", removed)
			}
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	r, err := router.Setup(cfg, db, syncService)
	if err != nil {
		log.Fatal("Failed to set up router:", err)
	}

	health.MarkStartupReady()

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("Server exited")
}
