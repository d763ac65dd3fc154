package models

import (
	"time"

	"gorm.io/datatypes"
)

// Payment tracks one gateway payment intent for a service request deposit.
type Payment struct {
	BaseModel
	ServiceRequestID   string              `gorm:"type:uuid;not null;index" json:"service_request_id"`
	OrganizerID        string              `gorm:"type:uuid;not null;index" json:"organizer_id"`
	ProfessionalID     string              `gorm:"type:uuid;not null;index" json:"professional_id"`
	Provider           string              `gorm:"type:varchar(20);not null" json:"provider"`
	ProviderIntentID   string              `gorm:"not null;uniqueIndex" json:"provider_intent_id"`
	ClientSecret       string              `json:"client_secret,omitempty"`
	Amount             int64               `gorm:"not null" json:"amount"`
	Currency           string              `gorm:"type:varchar(3);not null" json:"currency"`
	PlatformFee        int64               `gorm:"not null" json:"platform_fee"`
	ProfessionalAmount int64               `gorm:"not null" json:"professional_amount"`
	Status             PaymentIntentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	FailureReason      string              `json:"failure_reason,omitempty"`
	PaidAt             *time.Time          `json:"paid_at,omitempty"`
	LastEventID        string              `json:"-"`
	Metadata           datatypes.JSONMap   `gorm:"type:jsonb" json:"metadata,omitempty"`
}

// Open reports whether the intent can still be completed by the payer.
func (p *Payment) Open() bool {
	return p.Status == IntentStatusRequiresPayment || p.Status == IntentStatusProcessing
}
