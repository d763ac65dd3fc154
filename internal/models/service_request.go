package models

import "time"

type ServiceRequest struct {
	BaseModel
	OrganizerID    string               `gorm:"type:uuid;not null;index" json:"organizer_id"`
	ProfessionalID string               `gorm:"type:uuid;not null;index" json:"professional_id"`
	ConversationID string               `gorm:"type:uuid;index" json:"conversation_id,omitempty"`
	EventName      string               `gorm:"not null" json:"event_name"`
	EventDate      time.Time            `gorm:"not null" json:"event_date"`
	EventLocation  string               `json:"event_location,omitempty"`
	GuestCount     int                  `json:"guest_count,omitempty"`
	ServiceType    string               `json:"service_type,omitempty"`
	Message        string               `gorm:"type:text" json:"message,omitempty"`
	Budget         int64                `json:"budget,omitempty"`
	Status         ServiceRequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	DeclineReason  string               `json:"decline_reason,omitempty"`
	RespondedAt    *time.Time           `json:"responded_at,omitempty"`
	ExpiresAt      time.Time            `gorm:"not null;index" json:"expires_at"`
	CompletedAt    *time.Time           `json:"completed_at,omitempty"`

	DepositAmount int64         `json:"deposit_amount"`
	TotalAmount   int64         `json:"total_amount"`
	Currency      string        `gorm:"type:varchar(3)" json:"currency"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`
}

func (r *ServiceRequest) IsParty(userID string) bool {
	return userID != "" && (r.OrganizerID == userID || r.ProfessionalID == userID)
}

// Overdue reports whether a pending request can no longer be answered.
func (r *ServiceRequest) Overdue(now time.Time) bool {
	return r.Status == RequestStatusPending && !now.Before(r.ExpiresAt)
}
