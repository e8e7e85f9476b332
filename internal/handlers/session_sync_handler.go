package handlers

import (
	"net/http"
	"strings"

	"authsync-platform/internal/models"
	"authsync-platform/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// sessionClaims is the subset of session-token claims the sync path reads.
// The subject is the identity-provider user id.
type sessionClaims struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	ImageURL  string `json:"image_url"`
	jwt.RegisteredClaims
}

// SessionSyncHandler serves GET /api/sync-current-user: it validates the
// caller's session token and runs a cache-aware sync for that identity.
// Pages call it on every authenticated load, so the TTL cache is what keeps
// this from writing to storage on each request.
type SessionSyncHandler struct {
	jwtSecret []byte
	sync      *services.UserSyncService
}

func NewSessionSyncHandler(jwtSecret string, sync *services.UserSyncService) *SessionSyncHandler {
	return &SessionSyncHandler{jwtSecret: []byte(jwtSecret), sync: sync}
}

func (h *SessionSyncHandler) Handle(ctx *gin.Context) {
	identity, ok := h.identityFromRequest(ctx)
	if !ok {
		return
	}

	result := h.sync.SyncUser(ctx.Request.Context(), identity)
	if !result.Success {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Sync failed"})
		return
	}

	ctx.JSON(http.StatusOK, result)
}

func (h *SessionSyncHandler) identityFromRequest(ctx *gin.Context) (models.IdentityRecord, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Missing authorization header"})
		return models.IdentityRecord{}, false
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
		return models.IdentityRecord{}, false
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return models.IdentityRecord{}, false
	}

	if claims.Subject == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Token missing subject"})
		return models.IdentityRecord{}, false
	}

	return models.IdentityRecord{
		ID:        claims.Subject,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Username:  claims.Username,
		ImageURL:  claims.ImageURL,
	}, true
}
