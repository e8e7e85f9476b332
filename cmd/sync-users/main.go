// sync-users replays an identity-provider user export against the local
// database. Use it to backfill after enabling the service on an existing
// user base, or to repair drift after an outage swallowed webhook
// deliveries. The export file is a JSON array of provider user objects, the
// same shape webhook events carry in their data field.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"authsync-platform/internal/config"
	"authsync-platform/internal/database"
	"authsync-platform/internal/models"
	"authsync-platform/internal/pglock"
	"authsync-platform/services"
)

// backfillLock serializes backfill runs across operators; two concurrent
// replays of the same export would only race each other's upserts.
const backfillLock = "user-backfill"

func main() {
	var (
		file    = flag.String("file", "", "path to the JSON user export (array of provider user objects)")
		timeout = flag.Duration("timeout", 30*time.Second, "per-user sync timeout")
	)
	flag.Parse()

	if *file == "" {
		log.Fatal("usage: sync-users -file users.json")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read export file: %v", err)
	}

	var users []models.WebhookUserData
	if err := json.Unmarshal(data, &users); err != nil {
		log.Fatalf("Failed to parse export file: %v", err)
	}
	log.Printf("Loaded %d users from %s", len(users), *file)

	cfg := config.Load()
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	locker := pglock.New(db)
	acquired, err := locker.TryLock(backfillLock)
	if err != nil {
		log.Fatalf("Failed to acquire backfill lock: %v", err)
	}
	if !acquired {
		log.Fatal("Another backfill is already running, aborting")
	}
	defer func() { _, _ = locker.Unlock(backfillLock) }()

	// A backfill always writes; the TTL cache has no role here.
	sync := services.NewUserSyncService(db, nil)

	synced, failed := 0, 0
	for _, u := range users {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		result := sync.Refresh(ctx, u.ToIdentity())
		cancel()

		if result.Success {
			synced++
		} else {
			failed++
			log.Printf("Failed to sync user %s: %v", u.ID, result.Err)
		}
	}

	log.Printf("Done: %d synced, %d failed", synced, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
