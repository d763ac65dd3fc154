// Package events carries domain events from the services to asynchronous
// consumers such as email notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	ServiceRequestCreated   Type = "service_request.created"
	ServiceRequestAccepted  Type = "service_request.accepted"
	ServiceRequestDeclined  Type = "service_request.declined"
	ServiceRequestExpired   Type = "service_request.expired"
	ServiceRequestCompleted Type = "service_request.completed"
	ServiceRequestPaid      Type = "service_request.paid"
	PaymentFailed           Type = "payment.failed"
	MessageSent             Type = "message.sent"
	UserRegistered          Type = "user.registered"
	PasswordResetRequested  Type = "user.password_reset_requested"
)

type Event struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// New wraps payload in an event with a fresh id.
func New(t Type, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

func (e Event) Decode(into any) error {
	return json.Unmarshal(e.Payload, into)
}

// ServiceRequestPayload accompanies every service_request.* event.
type ServiceRequestPayload struct {
	RequestID      string    `json:"request_id"`
	OrganizerID    string    `json:"organizer_id"`
	ProfessionalID string    `json:"professional_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	EventName      string    `json:"event_name"`
	EventDate      time.Time `json:"event_date"`
	Status         string    `json:"status"`
	ExpiresAt      time.Time `json:"expires_at"`
	DepositAmount  int64     `json:"deposit_amount,omitempty"`
	TotalAmount    int64     `json:"total_amount,omitempty"`
	Currency       string    `json:"currency,omitempty"`
	Reason         string    `json:"reason,omitempty"`
}

type PaymentPayload struct {
	PaymentID      string `json:"payment_id"`
	RequestID      string `json:"request_id"`
	OrganizerID    string `json:"organizer_id"`
	ProfessionalID string `json:"professional_id"`
	EventName      string `json:"event_name"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Reason         string `json:"reason,omitempty"`
}

type MessagePayload struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id,omitempty"`
	SenderType     string    `json:"sender_type"`
	RecipientIDs   []string  `json:"recipient_ids"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type UserPayload struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Role        string `json:"role,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Token       string `json:"token,omitempty"`
}

// Publisher hands an event to the transport. Implementations must not
// block for long; callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type Handler func(ctx context.Context, ev Event) error

// PublishPayload builds and publishes an event in one call.
func PublishPayload(ctx context.Context, p Publisher, t Type, payload any) error {
	if p == nil {
		return nil
	}
	ev, err := New(t, payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, ev)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
