package services

import (
	"context"
	"testing"
	"time"

	"authsync-platform/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSyncTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Customer{}))
	return db
}

func testIdentity() models.IdentityRecord {
	return models.IdentityRecord{
		ID:        "user_2x9",
		Email:     "ann@example.com",
		FirstName: "Ann",
		LastName:  "Lee",
		ImageURL:  "https://img.example.com/ann.png",
	}
}

func TestDeriveName(t *testing.T) {
	assert.Equal(t, "Ann Lee", DeriveName(models.IdentityRecord{FirstName: "Ann", LastName: "Lee"}))
	assert.Equal(t, "Ann", DeriveName(models.IdentityRecord{FirstName: "Ann"}))
	assert.Equal(t, "ann42", DeriveName(models.IdentityRecord{Username: "ann42"}))
	assert.Equal(t, "", DeriveName(models.IdentityRecord{}))
	// username is only the fallback, never appended
	assert.Equal(t, "Ann", DeriveName(models.IdentityRecord{FirstName: "Ann", Username: "ann42"}))
}

func TestSyncUser_FirstSyncCreatesUserAndCustomer(t *testing.T) {
	db := setupSyncTestDB(t)
	svc := NewUserSyncService(db, NewSyncCache(5*time.Minute))

	result := svc.SyncUser(context.Background(), testIdentity())

	require.True(t, result.Success)
	assert.Equal(t, "user_2x9", result.UserID)
	assert.False(t, result.Cached)

	var user models.User
	require.NoError(t, db.Where("id = ?", "user_2x9").First(&user).Error)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, "Ann Lee", user.Name)
	assert.Equal(t, "https://img.example.com/ann.png", user.Image)
	require.NotNil(t, user.EmailVerifiedAt)

	var customer models.Customer
	require.NoError(t, db.Where("auth_user_id = ?", "user_2x9").First(&customer).Error)
	assert.Equal(t, models.PlanFree, customer.Plan)
	assert.Equal(t, "Ann Lee", customer.Name)
	assert.NotEmpty(t, customer.ID, "customer id is store-generated")
}

func TestSyncUser_SecondCallWithinTTLSkipsStorage(t *testing.T) {
	db := setupSyncTestDB(t)
	svc := NewUserSyncService(db, NewSyncCache(5*time.Minute))

	first := svc.SyncUser(context.Background(), testIdentity())
	require.True(t, first.Success)

	// Close the underlying connection: if the second call touches storage
	// at all it will fail, so a cached success proves zero reads/writes.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	second := svc.SyncUser(context.Background(), testIdentity())
	assert.True(t, second.Success)
	assert.True(t, second.Cached)
	assert.Equal(t, "user_2x9", second.UserID)
}

func TestSyncUser_AtMostOneCustomer(t *testing.T) {
	db := setupSyncTestDB(t)
	cache := NewSyncCache(5 * time.Minute)
	svc := NewUserSyncService(db, cache)

	identity := testIdentity()
	require.True(t, svc.SyncUser(context.Background(), identity).Success)

	// Expire the cache so the second sync does a full storage pass.
	current := time.Now().Add(10 * time.Minute)
	cache.SetNowFunc(func() time.Time { return current })

	second := svc.SyncUser(context.Background(), identity)
	require.True(t, second.Success)
	assert.False(t, second.Cached)

	var userCount, customerCount int64
	db.Model(&models.User{}).Count(&userCount)
	db.Model(&models.Customer{}).Count(&customerCount)
	assert.Equal(t, int64(1), userCount)
	assert.Equal(t, int64(1), customerCount)
}

func TestSyncUser_CacheExpiryTriggersFreshWrite(t *testing.T) {
	db := setupSyncTestDB(t)
	cache := NewSyncCache(5 * time.Minute)
	svc := NewUserSyncService(db, cache)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	cache.SetNowFunc(func() time.Time { return current })
	svc.SetNowFunc(func() time.Time { return current })

	identity := testIdentity()
	require.True(t, svc.SyncUser(context.Background(), identity).Success)

	// Email changes at the provider; within the TTL the change is invisible.
	identity.Email = "ann.lee@example.com"
	cachedResult := svc.SyncUser(context.Background(), identity)
	assert.True(t, cachedResult.Cached)

	var user models.User
	require.NoError(t, db.Where("id = ?", identity.ID).First(&user).Error)
	assert.Equal(t, "ann@example.com", user.Email, "stale inside TTL window by design")

	// After expiry the next sync performs a full read/write cycle.
	current = base.Add(6 * time.Minute)
	refreshed := svc.SyncUser(context.Background(), identity)
	require.True(t, refreshed.Success)
	assert.False(t, refreshed.Cached)

	require.NoError(t, db.Where("id = ?", identity.ID).First(&user).Error)
	assert.Equal(t, "ann.lee@example.com", user.Email)
}

func TestSyncUser_SelfHealsMissingCustomer(t *testing.T) {
	db := setupSyncTestDB(t)
	svc := NewUserSyncService(db, NewSyncCache(5*time.Minute))

	// Simulate a prior partial failure: User exists, Customer does not.
	verified := time.Now()
	require.NoError(t, db.Create(&models.User{
		ID:              "user_2x9",
		Email:           "ann@example.com",
		Name:            "Ann Lee",
		EmailVerifiedAt: &verified,
	}).Error)

	result := svc.SyncUser(context.Background(), testIdentity())
	require.True(t, result.Success)

	var customer models.Customer
	require.NoError(t, db.Where("auth_user_id = ?", "user_2x9").First(&customer).Error)
	assert.Equal(t, models.PlanFree, customer.Plan)

	var user models.User
	require.NoError(t, db.Where("id = ?", "user_2x9").First(&user).Error)
	assert.Equal(t, "user_2x9", user.ID, "user id is never regenerated")

	var userCount int64
	db.Model(&models.User{}).Count(&userCount)
	assert.Equal(t, int64(1), userCount)
}

func TestSyncUser_UpdatesExistingUserInPlace(t *testing.T) {
	db := setupSyncTestDB(t)
	cache := NewSyncCache(5 * time.Minute)
	svc := NewUserSyncService(db, cache)

	identity := testIdentity()
	require.True(t, svc.SyncUser(context.Background(), identity).Success)

	current := time.Now().Add(10 * time.Minute)
	cache.SetNowFunc(func() time.Time { return current })

	identity.FirstName = "Anna"
	identity.ImageURL = "https://img.example.com/anna.png"
	require.True(t, svc.SyncUser(context.Background(), identity).Success)

	var user models.User
	require.NoError(t, db.Where("id = ?", identity.ID).First(&user).Error)
	assert.Equal(t, "Anna Lee", user.Name)
	assert.Equal(t, "https://img.example.com/anna.png", user.Image)
}

func TestSyncUser_MissingOptionalFieldsTolerated(t *testing.T) {
	db := setupSyncTestDB(t)
	svc := NewUserSyncService(db, NewSyncCache(5*time.Minute))

	result := svc.SyncUser(context.Background(), models.IdentityRecord{ID: "user_bare"})
	require.True(t, result.Success)

	var user models.User
	require.NoError(t, db.Where("id = ?", "user_bare").First(&user).Error)
	assert.Empty(t, user.Email)
	assert.Empty(t, user.Name)
}

func TestSyncUser_EmptyIDRejected(t *testing.T) {
	db := setupSyncTestDB(t)
	svc := NewUserSyncService(db, NewSyncCache(5*time.Minute))

	result := svc.SyncUser(context.Background(), models.IdentityRecord{})
	assert.False(t, result.Success)
	assert.Error(t, result.Err)
}

func TestSyncUser_StorageFailureLeavesCacheCold(t *testing.T) {
	db := setupSyncTestDB(t)
	cache := NewSyncCache(5 * time.Minute)
	svc := NewUserSyncService(db, cache)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	result := svc.SyncUser(context.Background(), testIdentity())
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Err, ErrStorage)
	assert.False(t, cache.Fresh("user_2x9"), "failed sync must not mark the cache")
}

func TestDeleteUser_RemovesBothRecords(t *testing.T) {
	db := setupSyncTestDB(t)
	cache := NewSyncCache(5 * time.Minute)
	svc := NewUserSyncService(db, cache)

	require.True(t, svc.SyncUser(context.Background(), testIdentity()).Success)

	require.NoError(t, svc.DeleteUser(context.Background(), "user_2x9"))

	var userCount, customerCount int64
	db.Model(&models.User{}).Count(&userCount)
	db.Model(&models.Customer{}).Count(&customerCount)
	assert.Equal(t, int64(0), userCount)
	assert.Equal(t, int64(0), customerCount)
	assert.False(t, cache.Fresh("user_2x9"))
}

func TestDeleteUser_AttemptsBothOnFailure(t *testing.T) {
	db := setupSyncTestDB(t)
	svc := NewUserSyncService(db, NewSyncCache(5*time.Minute))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = svc.DeleteUser(context.Background(), "user_2x9")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	// Both deletions were attempted and both failures are reported.
	assert.Contains(t, err.Error(), "delete customer")
	assert.Contains(t, err.Error(), "delete user")
}

func TestRefresh_BypassesCacheRead(t *testing.T) {
	db := setupSyncTestDB(t)
	cache := NewSyncCache(5 * time.Minute)
	svc := NewUserSyncService(db, cache)

	identity := testIdentity()
	require.True(t, svc.SyncUser(context.Background(), identity).Success)

	// Provider pushes a change while the cache is still warm.
	identity.Email = "new@example.com"
	result := svc.Refresh(context.Background(), identity)
	require.True(t, result.Success)
	assert.False(t, result.Cached)

	var user models.User
	require.NoError(t, db.Where("id = ?", identity.ID).First(&user).Error)
	assert.Equal(t, "new@example.com", user.Email)
}
