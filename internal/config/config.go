package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Webhook  WebhookConfig
	Auth     AuthConfig
	Sync     SyncConfig
}

type ServerConfig struct {
	Host string
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type WebhookConfig struct {
	// Secret is the shared signing secret for identity-provider webhooks
	// (whsec_... format).
	Secret string
	// MaxPerMinute caps webhook deliveries per client IP.
	MaxPerMinute int
}

type AuthConfig struct {
	// Origin is the upstream URL of the authentication handler that auth
	// actions are proxied to. Empty disables proxying.
	Origin string
	// JWTSecret verifies session tokens on /api/sync-current-user.
	JWTSecret string
}

type SyncConfig struct {
	// CacheTTL bounds how long a successful sync suppresses further
	// storage writes for the same identity.
	CacheTTL time.Duration
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "authsync"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Webhook: WebhookConfig{
			Secret:       getEnv("WEBHOOK_SECRET", ""),
			MaxPerMinute: getEnvInt("WEBHOOK_MAX_PER_MINUTE", 120),
		},
		Auth: AuthConfig{
			Origin:    getEnv("AUTH_ORIGIN", ""),
			JWTSecret: GetJWTSecret(),
		},
		Sync: SyncConfig{
			CacheTTL: time.Duration(getEnvInt("SYNC_CACHE_TTL_SECONDS", 300)) * time.Second,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}
