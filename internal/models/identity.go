package models

// IdentityRecord is the narrow slice of an identity-provider user object
// that the sync service reads. Everything except ID is optional; missing
// fields are synced as empty strings rather than treated as errors.
type IdentityRecord struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	ImageURL  string `json:"image_url"`
}
