package handlers

import (
	"net/http"

	"eventhire_backend/internal/services"
	"eventhire_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type FeedbackHandler struct {
	*BaseHandler
	feedbackService services.FeedbackService
}

func NewFeedbackHandler(base *BaseHandler, feedbackService services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{
		BaseHandler:     base,
		feedbackService: feedbackService,
	}
}

// SubmitFeedback accepts anonymous and authenticated feedback alike.
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	var req dto.CreateFeedbackRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}
	userID, _ := OptionalUser(c)

	fb, err := h.feedbackService.Submit(c.Request.Context(), userID, c.Request.UserAgent(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, fb)
}

func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	var q dto.FeedbackListQuery
	if !h.BindAndValidate_Query(c, &q) {
		return
	}

	result, err := h.feedbackService.List(c.Request.Context(), &q)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
