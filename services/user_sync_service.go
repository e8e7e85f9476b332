package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"authsync-platform/internal/database"
	"authsync-platform/internal/models"
	"authsync-platform/internal/observability/metrics"

	"gorm.io/gorm"
)

// ErrStorage marks any failure reaching the relational store. The sync
// service recovers it locally and returns it inside a SyncResult; it never
// panics past its boundary, because callers treat sync as best-effort.
var ErrStorage = errors.New("storage error")

// SyncResult reports one sync attempt. Cached means the TTL window was
// still open and storage was not touched at all.
type SyncResult struct {
	Success bool   `json:"success"`
	UserID  string `json:"user_id"`
	Cached  bool   `json:"cached"`
	Err     error  `json:"-"`
}

// UserSyncService reconciles identity-provider user records into the local
// User and Customer tables.
type UserSyncService struct {
	db    *gorm.DB
	cache *SyncCache
	now   func() time.Time
}

func NewUserSyncService(db *gorm.DB, cache *SyncCache) *UserSyncService {
	if cache == nil {
		cache = NewSyncCache(DefaultSyncCacheTTL)
	}
	return &UserSyncService{db: db, cache: cache, now: time.Now}
}

// SetNowFunc overrides the service clock, for tests.
func (s *UserSyncService) SetNowFunc(now func() time.Time) {
	s.now = now
}

// Cache exposes the TTL cache, e.g. for the periodic cleanup worker.
func (s *UserSyncService) Cache() *SyncCache {
	return s.cache
}

// DeriveName builds the display name from an identity record: first+last
// name trimmed when a first name exists, otherwise the username, otherwise
// empty. Missing fields are a normal condition, not an error.
func DeriveName(identity models.IdentityRecord) string {
	if identity.FirstName != "" {
		return strings.TrimSpace(identity.FirstName + " " + identity.LastName)
	}
	return identity.Username
}

// SyncUser ensures storage matches the identity record. When the identity
// was synced within the TTL window the call returns immediately without any
// database access; this is the only write-collapsing mechanism for syncs
// triggered on every authenticated page load.
func (s *UserSyncService) SyncUser(ctx context.Context, identity models.IdentityRecord) SyncResult {
	if identity.ID == "" {
		return SyncResult{Err: errors.New("identity id is required")}
	}

	if s.cache.Fresh(identity.ID) {
		metrics.IncSyncCacheHit()
		return SyncResult{Success: true, UserID: identity.ID, Cached: true}
	}

	return s.refresh(ctx, identity)
}

// Refresh syncs unconditionally, skipping the cache read. Webhook
// deliveries use this path: the provider just said the record changed, so
// a stale cache entry must not swallow the update. The cache timestamp is
// still refreshed on success.
func (s *UserSyncService) Refresh(ctx context.Context, identity models.IdentityRecord) SyncResult {
	if identity.ID == "" {
		return SyncResult{Err: errors.New("identity id is required")}
	}
	return s.refresh(ctx, identity)
}

func (s *UserSyncService) refresh(ctx context.Context, identity models.IdentityRecord) SyncResult {
	name := DeriveName(identity)
	now := s.now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where("id = ?", identity.ID).First(&existing).Error
		switch {
		case err == nil:
			// Idempotent update: always runs, even when nothing changed.
			updates := map[string]interface{}{
				"email":             identity.Email,
				"name":              name,
				"image":             identity.ImageURL,
				"email_verified_at": now,
			}
			if err := tx.Model(&models.User{}).Where("id = ?", identity.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("update user %s: %w", identity.ID, err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			user := models.User{
				ID:              identity.ID,
				Email:           identity.Email,
				Name:            name,
				Image:           identity.ImageURL,
				EmailVerifiedAt: &now,
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("create user %s: %w", identity.ID, err)
			}
		default:
			return fmt.Errorf("find user %s: %w", identity.ID, err)
		}

		var customer models.Customer
		err = tx.Where("auth_user_id = ?", identity.ID).First(&customer).Error
		switch {
		case err == nil:
			// Customer name and plan are locally owned after creation.
		case errors.Is(err, gorm.ErrRecordNotFound):
			c := models.Customer{
				AuthUserID: identity.ID,
				Name:       name,
				Plan:       models.PlanFree,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := tx.Create(&c).Error; err != nil {
				return fmt.Errorf("create customer for %s: %w", identity.ID, err)
			}
		default:
			return fmt.Errorf("find customer for %s: %w", identity.ID, err)
		}

		return nil
	})

	if err != nil {
		if database.IsUniqueViolation(err) {
			// A concurrent sync for the same identity won the Customer
			// insert race. Both writers derive identical values, so the
			// store already holds what we were about to write.
			s.cache.MarkSynced(identity.ID)
			metrics.RecordSync("ok")
			return SyncResult{Success: true, UserID: identity.ID}
		}
		log.Printf("[Sync] sync failed for user %s: %v", identity.ID, err)
		metrics.RecordSync("error")
		return SyncResult{UserID: identity.ID, Err: fmt.Errorf("%w: %v", ErrStorage, err)}
	}

	s.cache.MarkSynced(identity.ID)
	metrics.RecordSync("ok")
	return SyncResult{Success: true, UserID: identity.ID}
}

// DeleteUser removes the User row and the Customer row for id. Both
// deletions are attempted even if one fails; the store does not enforce a
// cascade, so neither may be skipped. Errors from both are reported
// together.
func (s *UserSyncService) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("user id is required")
	}

	var customerErr, userErr error
	if err := s.db.WithContext(ctx).Where("auth_user_id = ?", id).Delete(&models.Customer{}).Error; err != nil {
		customerErr = fmt.Errorf("delete customer for %s: %w", id, err)
	}
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{}).Error; err != nil {
		userErr = fmt.Errorf("delete user %s: %w", id, err)
	}

	s.cache.Forget(id)

	if customerErr != nil || userErr != nil {
		joined := errors.Join(customerErr, userErr)
		log.Printf("[Sync] delete failed for user %s: %v", id, joined)
		return fmt.Errorf("%w: %v", ErrStorage, joined)
	}

	log.Printf("[Sync] deleted user %s", id)
	return nil
}
