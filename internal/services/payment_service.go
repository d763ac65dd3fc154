package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventhire_backend/internal/events"
	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/metrics"
	"eventhire_backend/internal/models"
	"eventhire_backend/internal/payments"
	"eventhire_backend/internal/repositories"
	"eventhire_backend/internal/services/dto"
	"eventhire_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

type PaymentService interface {
	// CreateDepositIntent opens a deposit intent for an accepted request or
	// returns the one already open.
	CreateDepositIntent(ctx context.Context, requestID, userID string) (*dto.PaymentResponse, error)
	// Confirm re-reads the intent from the provider and applies its outcome.
	Confirm(ctx context.Context, paymentID, userID string) (*dto.PaymentResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*dto.WebhookResponse, error)
	ListForRequest(ctx context.Context, requestID, userID string, role models.UserRole) ([]*dto.PaymentResponse, error)
}

type PaymentConfig struct {
	PlatformFeePercent int
}

type paymentService struct {
	store     *repositories.Store
	gateway   payments.Gateway
	requests  ServiceRequestService
	publisher events.Publisher
	cfg       PaymentConfig
	now       func() time.Time
}

func NewPaymentService(
	store *repositories.Store,
	gateway payments.Gateway,
	requests ServiceRequestService,
	publisher events.Publisher,
	cfg PaymentConfig,
) PaymentService {
	return &paymentService{
		store:     store,
		gateway:   gateway,
		requests:  requests,
		publisher: publisher,
		cfg:       cfg,
		now:       utcNow,
	}
}

func (s *paymentService) CreateDepositIntent(ctx context.Context, requestID, userID string) (*dto.PaymentResponse, error) {
	sr, err := s.store.ServiceRequests.FindByID(ctx, requestID)
	if err != nil {
		return nil, mapServiceRequestError(err)
	}
	if sr.OrganizerID != userID {
		return nil, apperrors.ErrServiceRequestAccessDenied
	}
	if sr.PaymentStatus == models.PaymentStatusPaid || sr.Status == models.RequestStatusPaid || sr.Status == models.RequestStatusCompleted {
		return nil, apperrors.ErrAlreadyPaid
	}
	if sr.Status != models.RequestStatusAccepted {
		return nil, apperrors.ErrInvalidStatus("payment", "Only accepted requests can be paid").
			WithDetails(map[string]string{"status": string(sr.Status)})
	}
	if sr.DepositAmount <= 0 {
		return nil, apperrors.ErrInvalidPaymentAmount
	}

	open, err := s.store.Payments.FindOpenByRequest(ctx, sr.ID)
	switch {
	case err == nil:
		if open.Amount == sr.DepositAmount {
			logger.CtxDebug(ctx, "reusing open payment intent", "payment_id", open.ID)
			return dto.NewPaymentResponse(open, true), nil
		}
	case !errors.Is(err, repositories.ErrPaymentNotFound):
		return nil, apperrors.InternalError(err)
	}

	previous, err := s.store.Payments.ListByRequest(ctx, sr.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	fee := percentOf(sr.DepositAmount, s.cfg.PlatformFeePercent)
	metadata := map[string]string{
		"service_request_id": sr.ID,
		"organizer_id":       sr.OrganizerID,
		"professional_id":    sr.ProfessionalID,
	}
	intent, err := s.gateway.CreateIntent(ctx, payments.CreateIntentParams{
		Amount:         sr.DepositAmount,
		Currency:       sr.Currency,
		Description:    fmt.Sprintf("Deposit for %s", sr.EventName),
		Metadata:       metadata,
		IdempotencyKey: fmt.Sprintf("deposit:%s:%d", sr.ID, len(previous)),
	})
	if err != nil {
		metrics.PaymentIntents.WithLabelValues(s.gateway.Name(), "error").Inc()
		return nil, mapGatewayError(err)
	}
	metrics.PaymentIntents.WithLabelValues(s.gateway.Name(), "created").Inc()

	md := datatypes.JSONMap{}
	for k, v := range metadata {
		md[k] = v
	}
	payment := &models.Payment{
		ServiceRequestID:   sr.ID,
		OrganizerID:        sr.OrganizerID,
		ProfessionalID:     sr.ProfessionalID,
		Provider:           s.gateway.Name(),
		ProviderIntentID:   intent.ID,
		ClientSecret:       intent.ClientSecret,
		Amount:             sr.DepositAmount,
		Currency:           sr.Currency,
		PlatformFee:        fee,
		ProfessionalAmount: sr.DepositAmount - fee,
		Status:             intent.Status,
		Metadata:           md,
	}
	if payment.Status == "" {
		payment.Status = models.IntentStatusRequiresPayment
	}

	err = s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if open != nil {
			open.Status = models.IntentStatusCanceled
			open.FailureReason = "superseded"
			if err := s.store.Payments.Update(ctx, open); err != nil {
				return err
			}
		}
		if err := s.store.Payments.Create(ctx, payment); err != nil {
			return err
		}
		sr.PaymentStatus = models.PaymentStatusPending
		return s.store.ServiceRequests.UpdateIfStatus(ctx, sr, models.RequestStatusAccepted)
	})
	if err != nil {
		return nil, mapPaymentError(err)
	}

	logger.CtxInfo(ctx, "deposit intent created",
		"payment_id", payment.ID, "request_id", sr.ID, "amount", payment.Amount, "provider", payment.Provider)
	return dto.NewPaymentResponse(payment, true), nil
}

func (s *paymentService) Confirm(ctx context.Context, paymentID, userID string) (*dto.PaymentResponse, error) {
	payment, err := s.store.Payments.FindByID(ctx, paymentID)
	if err != nil {
		return nil, mapPaymentError(err)
	}
	if payment.OrganizerID != userID {
		return nil, apperrors.ErrServiceRequestAccessDenied
	}

	intent, err := s.gateway.GetIntent(ctx, payment.ProviderIntentID)
	if err != nil {
		return nil, mapGatewayError(err)
	}
	if _, err := s.applyIntent(ctx, payment, intent.Status, intent.FailureReason, ""); err != nil {
		return nil, err
	}
	return dto.NewPaymentResponse(payment, true), nil
}

// HandleWebhook verifies and applies a provider notification. Events for
// unknown intents and unhandled types are acknowledged without effect so the
// provider stops retrying them.
func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*dto.WebhookResponse, error) {
	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		switch {
		case errors.Is(err, payments.ErrInvalidSignature):
			return nil, apperrors.ErrInvalidWebhookSignature
		case errors.Is(err, payments.ErrMalformedEvent):
			return nil, apperrors.NewBadRequestError("Malformed webhook payload")
		}
		return nil, apperrors.InternalError(err)
	}

	resp := &dto.WebhookResponse{EventID: ev.ID, Type: ev.Type}
	if ev.Intent == nil {
		metrics.WebhookEvents.WithLabelValues(ev.Type, "ignored").Inc()
		return resp, nil
	}

	switch ev.Type {
	case payments.EventIntentSucceeded, payments.EventIntentFailed, payments.EventIntentCanceled, payments.EventIntentProcessing:
	default:
		metrics.WebhookEvents.WithLabelValues(ev.Type, "ignored").Inc()
		return resp, nil
	}

	payment, err := s.store.Payments.FindByIntentID(ctx, ev.Intent.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			logger.CtxWarn(ctx, "webhook for unknown payment intent", "intent_id", ev.Intent.ID, "event_id", ev.ID)
			metrics.WebhookEvents.WithLabelValues(ev.Type, "unknown_intent").Inc()
			return resp, nil
		}
		return nil, apperrors.InternalError(err)
	}
	if ev.ID != "" && payment.LastEventID == ev.ID {
		metrics.WebhookEvents.WithLabelValues(ev.Type, "duplicate").Inc()
		return resp, nil
	}

	applied, err := s.applyIntent(ctx, payment, webhookStatus(ev), ev.Intent.FailureReason, ev.ID)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues(ev.Type, "error").Inc()
		return nil, err
	}
	resp.Applied = applied
	if applied {
		metrics.WebhookEvents.WithLabelValues(ev.Type, "applied").Inc()
	} else {
		metrics.WebhookEvents.WithLabelValues(ev.Type, "duplicate").Inc()
	}
	return resp, nil
}

func webhookStatus(ev *payments.WebhookEvent) models.PaymentIntentStatus {
	switch ev.Type {
	case payments.EventIntentSucceeded:
		return models.IntentStatusSucceeded
	case payments.EventIntentFailed:
		return models.IntentStatusFailed
	case payments.EventIntentCanceled:
		return models.IntentStatusCanceled
	case payments.EventIntentProcessing:
		return models.IntentStatusProcessing
	}
	return ev.Intent.Status
}

// applyIntent moves payment to status and propagates the outcome to the
// service request. It reports false when nothing changed, which makes
// redelivered events no-ops. A payment that succeeded is never downgraded.
func (s *paymentService) applyIntent(ctx context.Context, payment *models.Payment, status models.PaymentIntentStatus, reason, eventID string) (bool, error) {
	if payment.Status == status || payment.Status == models.IntentStatusSucceeded {
		return false, nil
	}
	if payment.Status.Final() && status != models.IntentStatusSucceeded {
		return false, nil
	}

	now := s.now()
	var paidRequest *models.ServiceRequest
	var request *models.ServiceRequest

	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		payment.Status = status
		if eventID != "" {
			payment.LastEventID = eventID
		}

		switch status {
		case models.IntentStatusSucceeded:
			payment.PaidAt = &now
			payment.FailureReason = ""
			if err := s.store.Payments.Update(ctx, payment); err != nil {
				return err
			}
			sr, err := s.requests.MarkPaid(ctx, payment.ServiceRequestID)
			if err != nil {
				if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.CodeInvalidStatus {
					logger.CtxError(ctx, "payment succeeded for a request that cannot be marked paid",
						"payment_id", payment.ID, "request_id", payment.ServiceRequestID, "error", err)
					return nil
				}
				return err
			}
			paidRequest = sr

		case models.IntentStatusFailed, models.IntentStatusCanceled:
			payment.FailureReason = reason
			if status == models.IntentStatusCanceled && reason == "" {
				payment.FailureReason = "canceled"
			}
			if err := s.store.Payments.Update(ctx, payment); err != nil {
				return err
			}
			sr, err := s.store.ServiceRequests.FindByID(ctx, payment.ServiceRequestID)
			if err != nil {
				return err
			}
			request = sr
			if sr.Status != models.RequestStatusAccepted || sr.PaymentStatus == models.PaymentStatusPaid {
				return nil
			}
			sr.PaymentStatus = models.PaymentStatusFailed
			if status == models.IntentStatusCanceled {
				sr.PaymentStatus = models.PaymentStatusUnpaid
			}
			return s.store.ServiceRequests.UpdateIfStatus(ctx, sr, models.RequestStatusAccepted)

		default:
			return s.store.Payments.Update(ctx, payment)
		}
		return nil
	})
	if err != nil {
		return false, mapPaymentError(err)
	}

	logger.CtxInfo(ctx, "payment status changed", "payment_id", payment.ID, "status", status)
	metrics.PaymentIntents.WithLabelValues(payment.Provider, string(status)).Inc()

	switch {
	case paidRequest != nil:
		publishEvent(ctx, s.publisher, events.ServiceRequestPaid, requestPayload(paidRequest, ""))
	case status == models.IntentStatusFailed && request != nil:
		publishEvent(ctx, s.publisher, events.PaymentFailed, events.PaymentPayload{
			PaymentID:      payment.ID,
			RequestID:      payment.ServiceRequestID,
			OrganizerID:    payment.OrganizerID,
			ProfessionalID: payment.ProfessionalID,
			EventName:      request.EventName,
			Amount:         payment.Amount,
			Currency:       payment.Currency,
			Reason:         payment.FailureReason,
		})
	}
	return true, nil
}

func (s *paymentService) ListForRequest(ctx context.Context, requestID, userID string, role models.UserRole) ([]*dto.PaymentResponse, error) {
	sr, err := s.store.ServiceRequests.FindByID(ctx, requestID)
	if err != nil {
		return nil, mapServiceRequestError(err)
	}
	if !sr.IsParty(userID) && role != models.UserRoleAdmin {
		return nil, apperrors.ErrServiceRequestAccessDenied
	}

	list, err := s.store.Payments.ListByRequest(ctx, sr.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	out := make([]*dto.PaymentResponse, 0, len(list))
	for i := range list {
		out = append(out, dto.NewPaymentResponse(&list[i], userID == sr.OrganizerID))
	}
	return out, nil
}

func mapGatewayError(err error) error {
	switch {
	case errors.Is(err, payments.ErrUnavailable):
		return apperrors.ErrPaymentProviderUnavailable.WithError(err)
	case errors.Is(err, payments.ErrIntentNotFound):
		return apperrors.ErrPaymentNotFound.WithError(err)
	}
	return apperrors.ExternalServiceError(err, "payment", "Payment provider request failed")
}

func mapPaymentError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repositories.ErrPaymentNotFound):
		return apperrors.ErrPaymentNotFound
	case errors.Is(err, repositories.ErrPaymentAlreadyExists):
		return apperrors.ErrConflict(err, "payment", "Payment intent already recorded")
	}
	return mapServiceRequestError(err)
}
