package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"eventhire_backend/internal/models"

	"github.com/google/uuid"
)

// MockGateway keeps intents in memory. Tests and local development move
// intents along with Succeed, Fail and Cancel, or post signed webhook
// payloads built by SignedWebhook.
type MockGateway struct {
	mu            sync.Mutex
	intents       map[string]*Intent
	webhookSecret string
}

func NewMockGateway(webhookSecret string) *MockGateway {
	return &MockGateway{intents: make(map[string]*Intent), webhookSecret: webhookSecret}
}

func (g *MockGateway) Name() string { return "mock" }

func (g *MockGateway) CreateIntent(_ context.Context, p CreateIntentParams) (*Intent, error) {
	if p.Amount <= 0 {
		return nil, fmt.Errorf("mock: amount must be positive")
	}
	id := "pi_mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	md := make(map[string]string, len(p.Metadata))
	for k, v := range p.Metadata {
		md[k] = v
	}
	in := &Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString()[:8],
		Amount:       p.Amount,
		Currency:     p.Currency,
		Status:       models.IntentStatusRequiresPayment,
		Metadata:     md,
	}
	g.mu.Lock()
	g.intents[id] = in
	g.mu.Unlock()
	cp := *in
	return &cp, nil
}

func (g *MockGateway) GetIntent(_ context.Context, id string) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[id]
	if !ok {
		return nil, ErrIntentNotFound
	}
	cp := *in
	return &cp, nil
}

func (g *MockGateway) setStatus(id string, status models.PaymentIntentStatus, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[id]
	if !ok {
		return ErrIntentNotFound
	}
	in.Status = status
	in.FailureReason = reason
	return nil
}

func (g *MockGateway) Succeed(id string) error {
	return g.setStatus(id, models.IntentStatusSucceeded, "")
}

func (g *MockGateway) Fail(id, reason string) error {
	return g.setStatus(id, models.IntentStatusFailed, reason)
}

func (g *MockGateway) Cancel(id string) error {
	return g.setStatus(id, models.IntentStatusCanceled, "canceled")
}

type mockWebhook struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	IntentID      string `json:"intent_id"`
	FailureReason string `json:"failure_reason,omitempty"`
}

func (g *MockGateway) sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignedWebhook builds a webhook body for intentID and its signature.
func (g *MockGateway) SignedWebhook(eventID, eventType, intentID, reason string) ([]byte, string) {
	payload, _ := json.Marshal(mockWebhook{ID: eventID, Type: eventType, IntentID: intentID, FailureReason: reason})
	return payload, g.sign(payload)
}

// ParseWebhook checks an HMAC-SHA256 hex signature when a secret is
// configured, then applies the event to the stored intent.
func (g *MockGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if g.webhookSecret != "" && !hmac.Equal([]byte(g.sign(payload)), []byte(strings.TrimSpace(signature))) {
		return nil, ErrInvalidSignature
	}
	var w mockWebhook
	if err := json.Unmarshal(payload, &w); err != nil || w.ID == "" || w.Type == "" {
		return nil, ErrMalformedEvent
	}
	ev := &WebhookEvent{ID: w.ID, Type: w.Type}
	if w.IntentID == "" {
		return ev, nil
	}

	var err error
	switch w.Type {
	case EventIntentSucceeded:
		err = g.Succeed(w.IntentID)
	case EventIntentFailed:
		err = g.Fail(w.IntentID, w.FailureReason)
	case EventIntentCanceled:
		err = g.Cancel(w.IntentID)
	case EventIntentProcessing:
		err = g.setStatus(w.IntentID, models.IntentStatusProcessing, "")
	}
	if errors.Is(err, ErrIntentNotFound) {
		// Intents created elsewhere still reach the receiver.
		ev.Intent = &Intent{ID: w.IntentID, FailureReason: w.FailureReason}
		return ev, nil
	}
	if err != nil {
		return nil, err
	}
	in, err := g.GetIntent(context.Background(), w.IntentID)
	if err != nil {
		return nil, err
	}
	ev.Intent = in
	return ev, nil
}
