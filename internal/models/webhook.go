package models

// Webhook event types delivered by the identity provider.
const (
	WebhookUserCreated = "user.created"
	WebhookUserUpdated = "user.updated"
	WebhookUserDeleted = "user.deleted"
)

// WebhookEvent is the envelope of a signed identity-provider webhook.
// Unknown event types are acknowledged and ignored.
type WebhookEvent struct {
	Type string          `json:"type"`
	Data WebhookUserData `json:"data"`
}

// WebhookUserData carries the user fields this service consumes. The
// provider sends a much larger object; everything else is deliberately
// dropped at decode time.
type WebhookUserData struct {
	ID             string         `json:"id"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Username       string         `json:"username"`
	ImageURL       string         `json:"image_url"`
}

type EmailAddress struct {
	EmailAddress string `json:"email_address"`
}

// ToIdentity flattens the webhook payload into an IdentityRecord. The
// primary email is the first entry of email_addresses, matching the
// provider's ordering contract.
func (d WebhookUserData) ToIdentity() IdentityRecord {
	email := ""
	if len(d.EmailAddresses) > 0 {
		email = d.EmailAddresses[0].EmailAddress
	}
	return IdentityRecord{
		ID:        d.ID,
		Email:     email,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Username:  d.Username,
		ImageURL:  d.ImageURL,
	}
}
