package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Sync.CacheTTL)
	assert.Equal(t, 120, cfg.Webhook.MaxPerMinute)
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SYNC_CACHE_TTL_SECONDS", "60")
	t.Setenv("WEBHOOK_SECRET", "whsec_test")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Sync.CacheTTL)
	assert.Equal(t, "whsec_test", cfg.Webhook.Secret)
}

func TestGetEnvInt_IgnoresGarbage(t *testing.T) {
	t.Setenv("SYNC_CACHE_TTL_SECONDS", "not-a-number")

	cfg := Load()
	assert.Equal(t, 5*time.Minute, cfg.Sync.CacheTTL)
}
