package services

import (
	"context"
	"strings"
	"time"

	"eventhire_backend/internal/events"
	"eventhire_backend/internal/logger"
	"eventhire_backend/pkg/apperrors"
)

// Notifier pushes realtime updates to connected clients of the given users.
type Notifier interface {
	NotifyUsers(userIDs []string, kind string, payload any)
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) NotifyUsers([]string, string, any) {}

func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// publishEvent hands an event to the publisher. Delivery problems are
// logged and never fail the calling operation.
func publishEvent(ctx context.Context, p events.Publisher, t events.Type, payload any) {
	if err := events.PublishPayload(ctx, p, t, payload); err != nil {
		logger.CtxWithError(ctx, "failed to publish event", err, "event_type", t)
	}
}

// eventName trims name and rejects names that are blank after trimming.
func eventName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.ValidationError(map[string]string{"event_name": "must not be blank"})
	}
	return name, nil
}

// percentOf rounds amount*pct/100 half up in minor units.
func percentOf(amount int64, pct int) int64 {
	return (amount*int64(pct) + 50) / 100
}
