package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"eventhire_backend/internal/auth"
	"eventhire_backend/internal/events"
	"eventhire_backend/internal/models"
	"eventhire_backend/internal/payments"
	"eventhire_backend/internal/repositories"
	"eventhire_backend/internal/services/dto"

	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func (p *recordingPublisher) last(t events.Type) (events.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Type == t {
			return p.events[i], true
		}
	}
	return events.Event{}, false
}

type notification struct {
	users []string
	kind  string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) NotifyUsers(userIDs []string, kind string, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{users: append([]string(nil), userIDs...), kind: kind})
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.kind)
	}
	return out
}

type testEnv struct {
	store     *repositories.Store
	svc       *ServiceContainer
	tokens    *auth.TokenManager
	gateway   *payments.MockGateway
	publisher *recordingPublisher
	notifier  *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, _ := repositories.NewInMemoryStore()
	env := &testEnv{
		store:     store,
		tokens:    auth.NewTokenManager("test-secret", "test", time.Hour, auth.NewMemoryRevoker()),
		gateway:   payments.NewMockGateway("whsec_test"),
		publisher: &recordingPublisher{},
		notifier:  &recordingNotifier{},
	}
	env.svc = NewServiceContainer(Dependencies{
		Store:     store,
		Tokens:    env.tokens,
		Publisher: env.publisher,
		Notifier:  env.notifier,
		Gateway:   env.gateway,
		Auth:      AuthConfig{RefreshTTL: 24 * time.Hour},
		Booking:   BookingConfig{RequestTTL: 72 * time.Hour, DepositPercent: 25, Currency: "usd"},
		Payment:   PaymentConfig{PlatformFeePercent: 10},
	})
	return env
}

func (e *testEnv) register(t *testing.T, email string, role models.UserRole) string {
	t.Helper()
	user, err := e.svc.AuthService.Register(context.Background(), &dto.RegisterRequest{
		Email:       email,
		Password:    "Sup3rSecret!",
		Role:        role,
		DisplayName: "Test " + string(role),
		City:        "Lisbon",
	})
	require.NoError(t, err)
	return user.ID
}

// pair registers an organizer and a professional.
func (e *testEnv) pair(t *testing.T) (organizerID, professionalID string) {
	t.Helper()
	return e.register(t, "org@example.com", models.UserRoleOrganizer),
		e.register(t, "pro@example.com", models.UserRoleProfessional)
}

func (e *testEnv) createRequest(t *testing.T, organizerID, professionalID string) *dto.ServiceRequestResponse {
	t.Helper()
	sr, err := e.svc.ServiceRequestService.Create(context.Background(), organizerID, models.UserRoleOrganizer, &dto.CreateServiceRequest{
		ProfessionalID: professionalID,
		EventName:      "Summer Gala",
		EventDate:      time.Now().Add(30 * 24 * time.Hour),
		GuestCount:     120,
		Budget:         500000,
	})
	require.NoError(t, err)
	return sr
}

func (e *testEnv) acceptedRequest(t *testing.T, total int64) (*dto.ServiceRequestResponse, string, string) {
	t.Helper()
	org, pro := e.pair(t)
	sr := e.createRequest(t, org, pro)
	accepted, err := e.svc.ServiceRequestService.Accept(context.Background(), sr.ID, pro, &dto.AcceptServiceRequest{TotalAmount: &total})
	require.NoError(t, err)
	return accepted, org, pro
}
