package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventhire_backend/internal/email"
	"eventhire_backend/internal/events"
	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/models"
	"eventhire_backend/internal/repositories"
)

// EventSubscriber is implemented by the in-process bus and the AMQP consumer.
type EventSubscriber interface {
	Subscribe(h events.Handler, types ...events.Type)
}

// NotificationService turns domain events into emails.
type NotificationService interface {
	Handle(ctx context.Context, ev events.Event) error
	Register(sub EventSubscriber)
}

type notificationService struct {
	store  *repositories.Store
	mailer *email.Mailer
}

func NewNotificationService(store *repositories.Store, mailer *email.Mailer) NotificationService {
	return &notificationService{store: store, mailer: mailer}
}

var notifiedEvents = []events.Type{
	events.UserRegistered,
	events.PasswordResetRequested,
	events.ServiceRequestCreated,
	events.ServiceRequestAccepted,
	events.ServiceRequestDeclined,
	events.ServiceRequestExpired,
	events.ServiceRequestCompleted,
	events.ServiceRequestPaid,
	events.PaymentFailed,
	events.MessageSent,
}

// messagePreviewLength caps the message excerpt quoted in emails.
const messagePreviewLength = 200

func (s *notificationService) Register(sub EventSubscriber) {
	sub.Subscribe(s.Handle, notifiedEvents...)
}

func (s *notificationService) Handle(ctx context.Context, ev events.Event) error {
	switch ev.Type {
	case events.UserRegistered, events.PasswordResetRequested:
		var p events.UserPayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		return s.userEmail(ctx, ev.Type, p)

	case events.ServiceRequestCreated, events.ServiceRequestAccepted, events.ServiceRequestDeclined,
		events.ServiceRequestExpired, events.ServiceRequestCompleted, events.ServiceRequestPaid:
		var p events.ServiceRequestPayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		return s.requestEmail(ctx, ev.Type, p)

	case events.PaymentFailed:
		var p events.PaymentPayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		return s.send(ctx, p.OrganizerID, email.TemplatePaymentFailed, email.TemplateData{
			"EventName": p.EventName,
			"RequestID": p.RequestID,
			"Reason":    p.Reason,
			"Amount":    email.FormatMoney(p.Amount, p.Currency),
		})

	case events.MessageSent:
		var p events.MessagePayload
		if err := ev.Decode(&p); err != nil {
			return err
		}
		return s.messageEmail(ctx, p)
	}
	return nil
}

// messageEmail tells the other participants about a message sent by a
// user. System messages have their own request emails.
func (s *notificationService) messageEmail(ctx context.Context, p events.MessagePayload) error {
	if p.SenderType == string(models.SenderSystem) || len(p.RecipientIDs) == 0 {
		return nil
	}
	conv, err := s.store.Conversations.FindByID(ctx, p.ConversationID)
	if err != nil {
		if errors.Is(err, repositories.ErrConversationNotFound) {
			logger.CtxWarn(ctx, "message conversation not found", "conversation_id", p.ConversationID)
			return nil
		}
		return err
	}
	names, err := s.store.Profiles.DisplayNames(ctx, []string{p.SenderID})
	if err != nil {
		return fmt.Errorf("load display names: %w", err)
	}

	preview := []rune(p.Content)
	if len(preview) > messagePreviewLength {
		preview = append(preview[:messagePreviewLength], '…')
	}
	data := email.TemplateData{
		"SenderName":     names[p.SenderID],
		"EventName":      conv.EventName,
		"ConversationID": conv.ID,
		"Preview":        string(preview),
	}

	var errs []error
	for _, id := range p.RecipientIDs {
		if id == p.SenderID {
			continue
		}
		errs = append(errs, s.send(ctx, id, email.TemplateNewMessage, data))
	}
	return errors.Join(errs...)
}

func (s *notificationService) userEmail(ctx context.Context, t events.Type, p events.UserPayload) error {
	name := email.TemplateVerifyEmail
	if t == events.PasswordResetRequested {
		name = email.TemplatePasswordReset
	}
	data := email.TemplateData{"Name": p.DisplayName, "Token": p.Token}
	if p.DisplayName == "" {
		data["Name"] = p.Email
	}
	return s.mailer.SendTemplate(ctx, p.Email, name, data)
}

func (s *notificationService) requestEmail(ctx context.Context, t events.Type, p events.ServiceRequestPayload) error {
	names, err := s.store.Profiles.DisplayNames(ctx, []string{p.OrganizerID, p.ProfessionalID})
	if err != nil {
		return fmt.Errorf("load display names: %w", err)
	}
	data := email.TemplateData{
		"OrganizerName":    names[p.OrganizerID],
		"ProfessionalName": names[p.ProfessionalID],
		"EventName":        p.EventName,
		"EventDate":        p.EventDate.Format("Mon, Jan 2 2006"),
		"ExpiresAt":        p.ExpiresAt.Format(time.RFC1123),
		"RequestID":        p.RequestID,
		"Deposit":          email.FormatMoney(p.DepositAmount, p.Currency),
		"Amount":           email.FormatMoney(p.DepositAmount, p.Currency),
		"Reason":           p.Reason,
	}

	switch t {
	case events.ServiceRequestCreated:
		return s.send(ctx, p.ProfessionalID, email.TemplateRequestCreated, data)
	case events.ServiceRequestAccepted:
		return s.send(ctx, p.OrganizerID, email.TemplateRequestAccepted, data)
	case events.ServiceRequestDeclined:
		return s.send(ctx, p.OrganizerID, email.TemplateRequestDeclined, data)
	case events.ServiceRequestExpired:
		return s.send(ctx, p.OrganizerID, email.TemplateRequestExpired, data)
	case events.ServiceRequestCompleted:
		return errors.Join(
			s.send(ctx, p.OrganizerID, email.TemplateRequestCompleted, data),
			s.send(ctx, p.ProfessionalID, email.TemplateRequestCompleted, data),
		)
	case events.ServiceRequestPaid:
		return errors.Join(
			s.send(ctx, p.OrganizerID, email.TemplatePaymentSucceeded, data),
			s.send(ctx, p.ProfessionalID, email.TemplatePaymentSucceeded, data),
		)
	}
	return nil
}

// send looks the recipient up and mails them. Unknown users are skipped.
func (s *notificationService) send(ctx context.Context, userID, template string, data email.TemplateData) error {
	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			logger.CtxWarn(ctx, "notification recipient not found", "user_id", userID, "template", template)
			return nil
		}
		return err
	}
	msgData := make(email.TemplateData, len(data)+1)
	for k, v := range data {
		msgData[k] = v
	}
	return s.mailer.SendTemplate(ctx, user.Email, template, msgData)
}
