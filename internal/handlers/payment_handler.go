package handlers

import (
	"errors"
	"io"
	"net/http"

	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/services"
	"eventhire_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// maxWebhookBody bounds provider webhook payloads.
const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	*BaseHandler
	paymentService services.PaymentService
}

func NewPaymentHandler(base *BaseHandler, paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		BaseHandler:    base,
		paymentService: paymentService,
	}
}

// ConfirmPayment re-reads the intent from the provider. Clients call it
// after the checkout widget reports completion.
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	id, ok := RequireParam(c, "id")
	if !ok {
		return
	}

	payment, err := h.paymentService.Confirm(c.Request.Context(), id, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// Webhook godoc
// @Summary  Payment provider webhook
// @Tags     payments
// @Accept   json
// @Produce  json
// @Param    Stripe-Signature header string true "Provider signature"
// @Success  200 {object} dto.WebhookResponse
// @Router   /api/v1/payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	ctx := c.Request.Context()

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apperrors.HandleError(c, apperrors.NewBadRequestError("webhook payload too large"))
			return
		}
		logger.CtxWithError(ctx, "Failed to read webhook body", err)
		apperrors.HandleError(c, apperrors.NewBadRequestError("failed to read body"))
		return
	}

	result, err := h.paymentService.HandleWebhook(ctx, payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
