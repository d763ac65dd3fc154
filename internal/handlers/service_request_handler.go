package handlers

import (
	"net/http"

	"eventhire_backend/internal/services"
	"eventhire_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ServiceRequestHandler struct {
	*BaseHandler
	requestService services.ServiceRequestService
	paymentService services.PaymentService
}

func NewServiceRequestHandler(base *BaseHandler, requestService services.ServiceRequestService, paymentService services.PaymentService) *ServiceRequestHandler {
	return &ServiceRequestHandler{
		BaseHandler:    base,
		requestService: requestService,
		paymentService: paymentService,
	}
}

// CreateRequest godoc
// @Summary  Send a service request to a professional
// @Tags     service-requests
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    request body dto.CreateServiceRequest true "Request"
// @Success  201 {object} dto.ServiceRequestResponse
// @Router   /api/v1/service-requests [post]
func (h *ServiceRequestHandler) CreateRequest(c *gin.Context) {
	userID, role, ok := h.GetUserAndRole(c)
	if !ok {
		return
	}

	var req dto.CreateServiceRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	created, err := h.requestService.Create(c.Request.Context(), userID, role, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *ServiceRequestHandler) ListRequests(c *gin.Context) {
	userID, role, ok := h.GetUserAndRole(c)
	if !ok {
		return
	}

	var q dto.ServiceRequestListQuery
	if !h.BindAndValidate_Query(c, &q) {
		return
	}

	result, err := h.requestService.List(c.Request.Context(), userID, role, &q)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ServiceRequestHandler) GetRequest(c *gin.Context) {
	userID, role, ok := h.GetUserAndRole(c)
	if !ok {
		return
	}
	id, ok := RequireParam(c, "id")
	if !ok {
		return
	}

	req, err := h.requestService.Get(c.Request.Context(), id, userID, role)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// AcceptRequest godoc
// @Summary  Accept a pending request, optionally quoting a total and deposit
// @Tags     service-requests
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id      path string                   true  "Request ID"
// @Param    request body dto.AcceptServiceRequest false "Quote"
// @Success  200 {object} dto.ServiceRequestResponse
// @Router   /api/v1/service-requests/{id}/accept [post]
func (h *ServiceRequestHandler) AcceptRequest(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	id, ok := RequireParam(c, "id")
	if !ok {
		return
	}

	var req dto.AcceptServiceRequest
	if !h.BindOptional_JSON(c, &req) {
		return
	}

	updated, err := h.requestService.Accept(c.Request.Context(), id, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *ServiceRequestHandler) DeclineRequest(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	id, ok := RequireParam(c, "id")
	if !ok {
		return
	}

	var req dto.DeclineServiceRequest
	if !h.BindOptional_JSON(c, &req) {
		return
	}

	updated, err := h.requestService.Decline(c.Request.Context(), id, userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *ServiceRequestHandler) CompleteRequest(c *gin.Context) {
	userID, role, ok := h.GetUserAndRole(c)
	if !ok {
		return
	}
	id, ok := RequireParam(c, "id")
	if !ok {
		return
	}

	updated, err := h.requestService.Complete(c.Request.Context(), id, userID, role)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// CreatePayment godoc
// @Summary  Open a deposit payment intent for an accepted request
// @Tags     payments
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "Request ID"
// @Success  201 {object} dto.PaymentResponse
// @Router   /api/v1/service-requests/{id}/payments [post]
func (h *ServiceRequestHandler) CreatePayment(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	id, ok := RequireParam(c, "id")
	if !ok {
		return
	}

	payment, err := h.paymentService.CreateDepositIntent(c.Request.Context(), id, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

func (h *ServiceRequestHandler) ListPayments(c *gin.Context) {
	userID, role, ok := h.GetUserAndRole(c)
	if !ok {
		return
	}
	id, ok := RequireParam(c, "id")
	if !ok {
		return
	}

	payments, err := h.paymentService.ListForRequest(c.Request.Context(), id, userID, role)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payments})
}
