package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan is the customer billing plan. New customers always start on FREE;
// upgrades happen elsewhere and are never overwritten by identity sync.
type Plan string

const (
	PlanFree     Plan = "FREE"
	PlanPro      Plan = "PRO"
	PlanBusiness Plan = "BUSINESS"
)

// User mirrors one identity-provider user record. ID is the provider's
// stable user id and doubles as the join key; it is never regenerated
// locally.
type User struct {
	ID              string     `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Email           string     `json:"email" gorm:"index"`
	Name            string     `json:"name"`
	Image           string     `json:"image"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Customer is the billing-side record, created exactly once per user on
// first sync. Name and plan are locally owned after creation.
type Customer struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AuthUserID string    `json:"auth_user_id" gorm:"uniqueIndex;not null;type:varchar(64)"`
	Name       string    `json:"name"`
	Plan       Plan      `json:"plan" gorm:"type:varchar(20);default:FREE"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate ID if not set
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
