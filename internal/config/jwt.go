package config

import "os"

// GetJWTSecret returns the secret used to verify session tokens.
// Reads JWT_SECRET; falls back to a development-only default.
func GetJWTSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-jwt-secret" // production deployments must set JWT_SECRET
	}
	return secret
}
