package dto

import (
	"time"

	"eventhire_backend/internal/models"
)

type PaymentResponse struct {
	ID                 string                     `json:"id"`
	ServiceRequestID   string                     `json:"service_request_id"`
	Provider           string                     `json:"provider"`
	ProviderIntentID   string                     `json:"provider_intent_id"`
	ClientSecret       string                     `json:"client_secret,omitempty"`
	Amount             int64                      `json:"amount"`
	Currency           string                     `json:"currency"`
	PlatformFee        int64                      `json:"platform_fee"`
	ProfessionalAmount int64                      `json:"professional_amount"`
	Status             models.PaymentIntentStatus `json:"status"`
	FailureReason      string                     `json:"failure_reason,omitempty"`
	PaidAt             *time.Time                 `json:"paid_at,omitempty"`
	CreatedAt          time.Time                  `json:"created_at"`
}

// NewPaymentResponse hides the client secret unless withSecret is set;
// only the paying organizer needs it.
func NewPaymentResponse(p *models.Payment, withSecret bool) *PaymentResponse {
	resp := &PaymentResponse{
		ID:                 p.ID,
		ServiceRequestID:   p.ServiceRequestID,
		Provider:           p.Provider,
		ProviderIntentID:   p.ProviderIntentID,
		Amount:             p.Amount,
		Currency:           p.Currency,
		PlatformFee:        p.PlatformFee,
		ProfessionalAmount: p.ProfessionalAmount,
		Status:             p.Status,
		FailureReason:      p.FailureReason,
		PaidAt:             p.PaidAt,
		CreatedAt:          p.CreatedAt,
	}
	if withSecret && p.Open() {
		resp.ClientSecret = p.ClientSecret
	}
	return resp
}

type WebhookResponse struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Applied bool   `json:"applied"`
}
