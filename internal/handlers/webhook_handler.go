package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"authsync-platform/internal/models"
	"authsync-platform/internal/observability/metrics"
	"authsync-platform/services"

	"github.com/gin-gonic/gin"
	svix "github.com/svix/svix-webhooks/go"
)

// WebhookHandler receives signed identity-provider events and applies them
// through the sync service. Verification failures are 400s so the provider
// does not retry forged or corrupted deliveries; sync failures are 500s so
// it does.
type WebhookHandler struct {
	verifier *svix.Webhook
	sync     *services.UserSyncService
}

// NewWebhookHandler builds the handler. secret is the signing secret shared
// with the provider; an empty secret disables verification, which is only
// acceptable in local development.
func NewWebhookHandler(secret string, sync *services.UserSyncService) (*WebhookHandler, error) {
	h := &WebhookHandler{sync: sync}
	if secret != "" {
		wh, err := svix.NewWebhook(secret)
		if err != nil {
			return nil, err
		}
		h.verifier = wh
	} else {
		log.Println("[Webhook] WARNING: no signing secret configured, accepting unverified events")
	}
	return h, nil
}

// Handle processes POST /api/webhooks/identity.
func (h *WebhookHandler) Handle(ctx *gin.Context) {
	payload, err := io.ReadAll(ctx.Request.Body)
	if err != nil {
		metrics.IncWebhookEvent("unknown", "rejected")
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	if h.verifier != nil {
		if ctx.GetHeader("svix-id") == "" || ctx.GetHeader("svix-timestamp") == "" || ctx.GetHeader("svix-signature") == "" {
			metrics.IncWebhookEvent("unknown", "rejected")
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing signature headers"})
			return
		}
		if err := h.verifier.Verify(payload, ctx.Request.Header); err != nil {
			log.Printf("[Webhook] signature verification failed: %v", err)
			metrics.IncWebhookEvent("unknown", "rejected")
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}
	}

	var event models.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		metrics.IncWebhookEvent("unknown", "rejected")
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload"})
		return
	}

	switch event.Type {
	case models.WebhookUserCreated, models.WebhookUserUpdated:
		// The provider just told us the record changed, so bypass the TTL
		// cache instead of letting a warm entry swallow the update.
		result := h.sync.Refresh(ctx.Request.Context(), event.Data.ToIdentity())
		if !result.Success {
			metrics.IncWebhookEvent(event.Type, "error")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Sync failed"})
			return
		}
		metrics.IncWebhookEvent(event.Type, "ok")
		ctx.JSON(http.StatusOK, gin.H{"success": true, "user_id": result.UserID})

	case models.WebhookUserDeleted:
		if err := h.sync.DeleteUser(ctx.Request.Context(), event.Data.ID); err != nil {
			metrics.IncWebhookEvent(event.Type, "error")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Delete failed"})
			return
		}
		metrics.IncWebhookEvent(event.Type, "ok")
		ctx.JSON(http.StatusOK, gin.H{"success": true, "user_id": event.Data.ID})

	default:
		// Acknowledge so the provider stops retrying event types this
		// service has no interest in.
		log.Printf("[Webhook] ignoring event type %q", event.Type)
		metrics.IncWebhookEvent(event.Type, "ignored")
		ctx.JSON(http.StatusOK, gin.H{"success": true, "ignored": true})
	}
}
