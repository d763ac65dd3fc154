package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventhire_backend/internal/email"
	"eventhire_backend/internal/events"
	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/metrics"
	"eventhire_backend/internal/models"
	"eventhire_backend/internal/repositories"
	"eventhire_backend/internal/services/dto"
	"eventhire_backend/pkg/apperrors"
)

const expireBatchSize = 100

type ServiceRequestService interface {
	Create(ctx context.Context, userID string, role models.UserRole, req *dto.CreateServiceRequest) (*dto.ServiceRequestResponse, error)
	Get(ctx context.Context, requestID, userID string, role models.UserRole) (*dto.ServiceRequestResponse, error)
	List(ctx context.Context, userID string, role models.UserRole, q *dto.ServiceRequestListQuery) (*dto.PaginatedResponse, error)
	Accept(ctx context.Context, requestID, userID string, req *dto.AcceptServiceRequest) (*dto.ServiceRequestResponse, error)
	Decline(ctx context.Context, requestID, userID string, req *dto.DeclineServiceRequest) (*dto.ServiceRequestResponse, error)
	Complete(ctx context.Context, requestID, userID string, role models.UserRole) (*dto.ServiceRequestResponse, error)
	// ExpireOverdue moves every pending request past its deadline to expired.
	ExpireOverdue(ctx context.Context) (int64, error)
	// MarkPaid moves an accepted request to paid. It is meant to run inside
	// the payment transaction; the caller publishes the resulting event.
	MarkPaid(ctx context.Context, requestID string) (*models.ServiceRequest, error)
}

type BookingConfig struct {
	RequestTTL     time.Duration
	DepositPercent int
	Currency       string
}

type serviceRequestService struct {
	store     *repositories.Store
	publisher events.Publisher
	notifier  Notifier
	cfg       BookingConfig
	now       func() time.Time
}

func NewServiceRequestService(store *repositories.Store, publisher events.Publisher, notifier Notifier, cfg BookingConfig) ServiceRequestService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if cfg.RequestTTL <= 0 {
		cfg.RequestTTL = 72 * time.Hour
	}
	if cfg.DepositPercent <= 0 {
		cfg.DepositPercent = 25
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &serviceRequestService{
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		cfg:       cfg,
		now:       utcNow,
	}
}

func (s *serviceRequestService) Create(ctx context.Context, userID string, role models.UserRole, req *dto.CreateServiceRequest) (*dto.ServiceRequestResponse, error) {
	if role != models.UserRoleOrganizer {
		return nil, apperrors.ErrInvalidUserRole
	}
	name, err := eventName(req.EventName)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !req.EventDate.After(now) {
		return nil, apperrors.ValidationError(map[string]string{"event_date": "must be in the future"})
	}
	if req.DepositAmount > req.TotalAmount {
		return nil, apperrors.ValidationError(map[string]string{"deposit_amount": "must not exceed total_amount"})
	}
	if err := s.checkProfessional(ctx, req.ProfessionalID); err != nil {
		return nil, err
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.cfg.Currency
	}
	eventDate := req.EventDate.UTC()
	expiresAt := now.Add(s.cfg.RequestTTL)
	if eventDate.Before(expiresAt) {
		expiresAt = eventDate
	}

	sr := &models.ServiceRequest{
		OrganizerID:    userID,
		ProfessionalID: req.ProfessionalID,
		EventName:      name,
		EventDate:      eventDate,
		EventLocation:  strings.TrimSpace(req.EventLocation),
		GuestCount:     req.GuestCount,
		ServiceType:    strings.TrimSpace(req.ServiceType),
		Message:        strings.TrimSpace(req.Message),
		Budget:         req.Budget,
		Status:         models.RequestStatusPending,
		ExpiresAt:      expiresAt,
		DepositAmount:  req.DepositAmount,
		TotalAmount:    req.TotalAmount,
		Currency:       currency,
		PaymentStatus:  models.PaymentStatusUnpaid,
	}

	var sysMsg *models.Message
	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		conv, _, err := getOrCreateConversation(ctx, s.store.Conversations, userID, req.ProfessionalID, sr.EventName, &eventDate)
		if err != nil {
			return err
		}
		if conv.Status != models.ConversationStatusActive {
			if err := s.store.Conversations.UpdateStatus(ctx, conv.ID, conv.Status, models.ConversationStatusActive); err != nil {
				return err
			}
			conv.Status = models.ConversationStatusActive
		}
		sr.ConversationID = conv.ID
		if err := s.store.ServiceRequests.Create(ctx, sr); err != nil {
			return err
		}
		sysMsg, err = appendMessage(ctx, s.store.Conversations, conv, "", models.SenderSystem,
			fmt.Sprintf("New service request for %q on %s.", sr.EventName, sr.EventDate.Format("Jan 2, 2006")), now)
		return err
	})
	if err != nil {
		return nil, mapServiceRequestError(err)
	}

	logger.CtxInfo(ctx, "service request created", "request_id", sr.ID, "professional_id", sr.ProfessionalID)
	s.announce(ctx, sr, sysMsg, events.ServiceRequestCreated, "")
	return dto.NewServiceRequestResponse(sr), nil
}

func (s *serviceRequestService) checkProfessional(ctx context.Context, professionalID string) error {
	user, err := s.store.Users.FindByID(ctx, professionalID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrUserNotFound.WithDetails(map[string]string{"professional_id": professionalID})
		}
		return apperrors.InternalError(err)
	}
	if user.Role != models.UserRoleProfessional || user.Status == models.UserStatusSuspended {
		return apperrors.ErrProfessionalUnavailable
	}
	profile, err := s.store.Profiles.FindProfessionalByUserID(ctx, professionalID)
	if err != nil {
		return mapProfileError(err)
	}
	if !profile.IsPublic {
		return apperrors.ErrProfessionalUnavailable
	}
	return nil
}

func (s *serviceRequestService) Get(ctx context.Context, requestID, userID string, role models.UserRole) (*dto.ServiceRequestResponse, error) {
	sr, err := s.find(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !sr.IsParty(userID) && role != models.UserRoleAdmin {
		return nil, apperrors.ErrServiceRequestAccessDenied
	}
	return dto.NewServiceRequestResponse(sr), nil
}

func (s *serviceRequestService) List(ctx context.Context, userID string, role models.UserRole, q *dto.ServiceRequestListQuery) (*dto.PaginatedResponse, error) {
	filter := repositories.ServiceRequestFilter{Status: q.Status, Page: q.ToPage()}
	switch role {
	case models.UserRoleOrganizer:
		filter.OrganizerID = userID
	case models.UserRoleProfessional:
		filter.ProfessionalID = userID
	case models.UserRoleAdmin:
	default:
		return nil, apperrors.ErrInvalidUserRole
	}

	items, total, err := s.store.ServiceRequests.List(ctx, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewPaginatedResponse(dto.NewServiceRequestList(items), total, filter.Page), nil
}

func (s *serviceRequestService) Accept(ctx context.Context, requestID, userID string, req *dto.AcceptServiceRequest) (*dto.ServiceRequestResponse, error) {
	now := s.now()
	sr, sysMsg, err := s.update(ctx, requestID, func(sr *models.ServiceRequest) (string, error) {
		if sr.ProfessionalID != userID {
			return "", apperrors.ErrServiceRequestAccessDenied
		}
		if err := s.checkPending(sr, now, models.RequestStatusAccepted); err != nil {
			return "", err
		}

		total := sr.TotalAmount
		if req.TotalAmount != nil {
			total = *req.TotalAmount
		}
		deposit := sr.DepositAmount
		switch {
		case req.DepositAmount != nil:
			deposit = *req.DepositAmount
		case req.TotalAmount != nil || deposit == 0:
			deposit = percentOf(total, s.cfg.DepositPercent)
		}
		if total <= 0 || deposit <= 0 || deposit > total {
			return "", apperrors.ErrInvalidPaymentAmount.WithDetails(map[string]int64{
				"total_amount":   total,
				"deposit_amount": deposit,
			})
		}

		sr.TotalAmount = total
		sr.DepositAmount = deposit
		sr.Status = models.RequestStatusAccepted
		sr.RespondedAt = &now

		text := fmt.Sprintf("Request accepted. Deposit due: %s of %s.",
			email.FormatMoney(deposit, sr.Currency), email.FormatMoney(total, sr.Currency))
		if note := strings.TrimSpace(req.Message); note != "" {
			text += " " + note
		}
		return text, nil
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, sr, sysMsg, events.ServiceRequestAccepted, "")
	return dto.NewServiceRequestResponse(sr), nil
}

func (s *serviceRequestService) Decline(ctx context.Context, requestID, userID string, req *dto.DeclineServiceRequest) (*dto.ServiceRequestResponse, error) {
	now := s.now()
	reason := strings.TrimSpace(req.Reason)
	sr, sysMsg, err := s.update(ctx, requestID, func(sr *models.ServiceRequest) (string, error) {
		if sr.ProfessionalID != userID {
			return "", apperrors.ErrServiceRequestAccessDenied
		}
		if err := s.checkPending(sr, now, models.RequestStatusDeclined); err != nil {
			return "", err
		}
		sr.Status = models.RequestStatusDeclined
		sr.DeclineReason = reason
		sr.RespondedAt = &now

		if reason != "" {
			return "Request declined: " + reason, nil
		}
		return "Request declined.", nil
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, sr, sysMsg, events.ServiceRequestDeclined, reason)
	return dto.NewServiceRequestResponse(sr), nil
}

// Complete closes a paid request. The organizer may complete at any time
// after payment, the professional only once the event date has passed.
func (s *serviceRequestService) Complete(ctx context.Context, requestID, userID string, role models.UserRole) (*dto.ServiceRequestResponse, error) {
	now := s.now()
	sr, sysMsg, err := s.update(ctx, requestID, func(sr *models.ServiceRequest) (string, error) {
		if !sr.IsParty(userID) {
			return "", apperrors.ErrServiceRequestAccessDenied
		}
		if !sr.Status.CanTransitionTo(models.RequestStatusCompleted) {
			return "", invalidTransition(sr.Status, models.RequestStatusCompleted)
		}
		if userID == sr.ProfessionalID && now.Before(sr.EventDate) {
			return "", apperrors.ErrInvalidOperation("service_request", "The professional can complete a request only after the event date")
		}
		sr.Status = models.RequestStatusCompleted
		sr.CompletedAt = &now
		return "Service completed. Thank you!", nil
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, sr, sysMsg, events.ServiceRequestCompleted, "")
	return dto.NewServiceRequestResponse(sr), nil
}

func (s *serviceRequestService) ExpireOverdue(ctx context.Context) (int64, error) {
	var expired int64
	for {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		now := s.now()
		batch, err := s.store.ServiceRequests.ListOverdue(ctx, now, expireBatchSize)
		if err != nil {
			return expired, err
		}

		var progressed int
		for i := range batch {
			ok, err := s.expireOne(ctx, batch[i].ID, now)
			if err != nil {
				logger.CtxWithError(ctx, "failed to expire service request", err, "request_id", batch[i].ID)
				continue
			}
			if ok {
				expired++
				progressed++
			}
		}
		if len(batch) < expireBatchSize || progressed == 0 {
			return expired, nil
		}
	}
}

func (s *serviceRequestService) expireOne(ctx context.Context, requestID string, now time.Time) (bool, error) {
	sr, sysMsg, err := s.update(ctx, requestID, func(sr *models.ServiceRequest) (string, error) {
		if !sr.Overdue(now) {
			return "", repositories.ErrStaleStatus
		}
		sr.Status = models.RequestStatusExpired
		return "Request expired without a response.", nil
	})
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.CodeInvalidStatus {
			return false, nil
		}
		return false, err
	}
	s.announce(ctx, sr, sysMsg, events.ServiceRequestExpired, "")
	return true, nil
}

func (s *serviceRequestService) MarkPaid(ctx context.Context, requestID string) (*models.ServiceRequest, error) {
	now := s.now()
	var sr *models.ServiceRequest
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		sr, err = s.find(ctx, requestID)
		if err != nil {
			return err
		}
		if sr.Status == models.RequestStatusPaid && sr.PaymentStatus == models.PaymentStatusPaid {
			return nil
		}
		if !sr.Status.CanTransitionTo(models.RequestStatusPaid) {
			return invalidTransition(sr.Status, models.RequestStatusPaid)
		}
		sr.Status = models.RequestStatusPaid
		sr.PaymentStatus = models.PaymentStatusPaid
		if err := s.store.ServiceRequests.UpdateIfStatus(ctx, sr, models.RequestStatusAccepted); err != nil {
			return err
		}
		metrics.ServiceRequestTransitions.WithLabelValues(string(models.RequestStatusPaid)).Inc()

		conv, err := s.store.Conversations.FindByID(ctx, sr.ConversationID)
		if err != nil {
			return err
		}
		_, err = appendMessage(ctx, s.store.Conversations, conv, "", models.SenderSystem,
			fmt.Sprintf("Deposit of %s received. The booking is confirmed.", email.FormatMoney(sr.DepositAmount, sr.Currency)), now)
		return err
	})
	if err != nil {
		return nil, mapServiceRequestError(err)
	}
	return sr, nil
}

// update loads the request, applies mutate and persists it together with a
// system message in one transaction. mutate returns the message text.
func (s *serviceRequestService) update(ctx context.Context, requestID string, mutate func(*models.ServiceRequest) (string, error)) (*models.ServiceRequest, *models.Message, error) {
	var sr *models.ServiceRequest
	var msg *models.Message
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		sr, err = s.find(ctx, requestID)
		if err != nil {
			return err
		}
		expected := sr.Status
		text, err := mutate(sr)
		if err != nil {
			return err
		}
		if err := s.store.ServiceRequests.UpdateIfStatus(ctx, sr, expected); err != nil {
			return err
		}
		if sr.ConversationID == "" {
			return nil
		}
		conv, err := s.store.Conversations.FindByID(ctx, sr.ConversationID)
		if err != nil {
			return err
		}
		msg, err = appendMessage(ctx, s.store.Conversations, conv, "", models.SenderSystem, text, s.now())
		return err
	})
	if err != nil {
		return nil, nil, mapServiceRequestError(err)
	}
	metrics.ServiceRequestTransitions.WithLabelValues(string(sr.Status)).Inc()
	logger.CtxInfo(ctx, "service request status changed", "request_id", sr.ID, "status", sr.Status)
	return sr, msg, nil
}

func (s *serviceRequestService) checkPending(sr *models.ServiceRequest, now time.Time, next models.ServiceRequestStatus) error {
	if !sr.Status.CanTransitionTo(next) {
		return invalidTransition(sr.Status, next)
	}
	if sr.Overdue(now) {
		return apperrors.ErrServiceRequestExpired
	}
	return nil
}

func (s *serviceRequestService) find(ctx context.Context, requestID string) (*models.ServiceRequest, error) {
	sr, err := s.store.ServiceRequests.FindByID(ctx, requestID)
	if err != nil {
		return nil, mapServiceRequestError(err)
	}
	return sr, nil
}

// announce publishes the lifecycle event and pushes the system message to
// both parties.
func (s *serviceRequestService) announce(ctx context.Context, sr *models.ServiceRequest, msg *models.Message, t events.Type, reason string) {
	if msg != nil {
		s.notifier.NotifyUsers([]string{sr.OrganizerID, sr.ProfessionalID}, NotifyMessageNew, dto.NewMessageResponse(msg))
	}
	publishEvent(ctx, s.publisher, t, requestPayload(sr, reason))
}

func requestPayload(sr *models.ServiceRequest, reason string) events.ServiceRequestPayload {
	return events.ServiceRequestPayload{
		RequestID:      sr.ID,
		OrganizerID:    sr.OrganizerID,
		ProfessionalID: sr.ProfessionalID,
		ConversationID: sr.ConversationID,
		EventName:      sr.EventName,
		EventDate:      sr.EventDate,
		Status:         string(sr.Status),
		ExpiresAt:      sr.ExpiresAt,
		DepositAmount:  sr.DepositAmount,
		TotalAmount:    sr.TotalAmount,
		Currency:       sr.Currency,
		Reason:         reason,
	}
}

func invalidTransition(from, to models.ServiceRequestStatus) *apperrors.AppError {
	return apperrors.ErrInvalidStatus("service_request",
		fmt.Sprintf("Cannot move a %s request to %s", from, to)).
		WithDetails(map[string]string{"status": string(from), "target": string(to)})
}

func mapServiceRequestError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repositories.ErrServiceRequestNotFound):
		return apperrors.ErrServiceRequestNotFound
	case errors.Is(err, repositories.ErrStaleStatus):
		return apperrors.ErrInvalidStatus("service_request", "Service request status changed, reload and retry")
	case errors.Is(err, repositories.ErrConversationNotFound):
		return apperrors.ErrConversationNotFound
	case errors.Is(err, repositories.ErrConversationExists):
		return apperrors.ErrConflict(err, "service_request", "Conversation is being created concurrently, retry")
	}
	return apperrors.InternalError(err)
}
