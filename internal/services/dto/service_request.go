package dto

import (
	"time"

	"eventhire_backend/internal/models"
)

// CreateServiceRequest is sent by an organizer. Amounts are minor units.
type CreateServiceRequest struct {
	ProfessionalID string    `json:"professional_id" validate:"required,uuid"`
	EventName      string    `json:"event_name" validate:"required,min=1,max=200"`
	EventDate      time.Time `json:"event_date" validate:"required"`
	EventLocation  string    `json:"event_location,omitempty" validate:"omitempty,max=300"`
	GuestCount     int       `json:"guest_count,omitempty" validate:"omitempty,min=0,max=100000"`
	ServiceType    string    `json:"service_type,omitempty" validate:"omitempty,max=100"`
	Message        string    `json:"message,omitempty" validate:"omitempty,max=4000"`
	Budget         int64     `json:"budget,omitempty" validate:"omitempty,min=0"`
	TotalAmount    int64     `json:"total_amount,omitempty" validate:"omitempty,min=0"`
	DepositAmount  int64     `json:"deposit_amount,omitempty" validate:"omitempty,min=0"`
	Currency       string    `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
}

type AcceptServiceRequest struct {
	TotalAmount   *int64 `json:"total_amount,omitempty" validate:"omitempty,min=0"`
	DepositAmount *int64 `json:"deposit_amount,omitempty" validate:"omitempty,min=0"`
	Message       string `json:"message,omitempty" validate:"omitempty,max=2000"`
}

type DeclineServiceRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=1000"`
}

type ServiceRequestListQuery struct {
	Status models.ServiceRequestStatus `form:"status" validate:"omitempty,is-request-status"`
	PaginationQuery
}

type ServiceRequestResponse struct {
	ID             string                      `json:"id"`
	OrganizerID    string                      `json:"organizer_id"`
	ProfessionalID string                      `json:"professional_id"`
	ConversationID string                      `json:"conversation_id,omitempty"`
	EventName      string                      `json:"event_name"`
	EventDate      time.Time                   `json:"event_date"`
	EventLocation  string                      `json:"event_location,omitempty"`
	GuestCount     int                         `json:"guest_count,omitempty"`
	ServiceType    string                      `json:"service_type,omitempty"`
	Message        string                      `json:"message,omitempty"`
	Budget         int64                       `json:"budget,omitempty"`
	Status         models.ServiceRequestStatus `json:"status"`
	DeclineReason  string                      `json:"decline_reason,omitempty"`
	RespondedAt    *time.Time                  `json:"responded_at,omitempty"`
	ExpiresAt      time.Time                   `json:"expires_at"`
	CompletedAt    *time.Time                  `json:"completed_at,omitempty"`
	DepositAmount  int64                       `json:"deposit_amount"`
	TotalAmount    int64                       `json:"total_amount"`
	Currency       string                      `json:"currency"`
	PaymentStatus  models.PaymentStatus        `json:"payment_status"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

func NewServiceRequestResponse(r *models.ServiceRequest) *ServiceRequestResponse {
	return &ServiceRequestResponse{
		ID:             r.ID,
		OrganizerID:    r.OrganizerID,
		ProfessionalID: r.ProfessionalID,
		ConversationID: r.ConversationID,
		EventName:      r.EventName,
		EventDate:      r.EventDate,
		EventLocation:  r.EventLocation,
		GuestCount:     r.GuestCount,
		ServiceType:    r.ServiceType,
		Message:        r.Message,
		Budget:         r.Budget,
		Status:         r.Status,
		DeclineReason:  r.DeclineReason,
		RespondedAt:    r.RespondedAt,
		ExpiresAt:      r.ExpiresAt,
		CompletedAt:    r.CompletedAt,
		DepositAmount:  r.DepositAmount,
		TotalAmount:    r.TotalAmount,
		Currency:       r.Currency,
		PaymentStatus:  r.PaymentStatus,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func NewServiceRequestList(items []models.ServiceRequest) []*ServiceRequestResponse {
	out := make([]*ServiceRequestResponse, 0, len(items))
	for i := range items {
		out = append(out, NewServiceRequestResponse(&items[i]))
	}
	return out
}
