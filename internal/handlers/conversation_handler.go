package handlers

import (
	"context"
	"net/http"

	"eventhire_backend/internal/services"
	"eventhire_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	*BaseHandler
	conversationService services.ConversationService
}

func NewConversationHandler(base *BaseHandler, conversationService services.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		BaseHandler:         base,
		conversationService: conversationService,
	}
}

// StartConversation godoc
// @Summary  Open (or return) the conversation with a professional for an event
// @Tags     conversations
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    request body dto.StartConversationRequest true "Conversation"
// @Success  201 {object} dto.ConversationResponse
// @Success  200 {object} dto.ConversationResponse
// @Router   /api/v1/conversations [post]
func (h *ConversationHandler) StartConversation(c *gin.Context) {
	userID, role, ok := h.GetUserAndRole(c)
	if !ok {
		return
	}

	var req dto.StartConversationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	conv, err := h.conversationService.Start(c.Request.Context(), userID, role, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	status := http.StatusOK
	if conv.Created {
		status = http.StatusCreated
	}
	c.JSON(status, conv)
}

func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID, role, ok := h.GetUserAndRole(c)
	if !ok {
		return
	}

	var q dto.ConversationListQuery
	if !h.BindAndValidate_Query(c, &q) {
		return
	}

	result, err := h.conversationService.List(c.Request.Context(), userID, role, &q)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ConversationHandler) GetConversation(c *gin.Context) {
	h.withConversation(c, h.conversationService.Get)
}

func (h *ConversationHandler) CloseConversation(c *gin.Context) {
	h.withConversation(c, h.conversationService.Close)
}

func (h *ConversationHandler) ArchiveConversation(c *gin.Context) {
	h.withConversation(c, h.conversationService.Archive)
}

func (h *ConversationHandler) ReopenConversation(c *gin.Context) {
	h.withConversation(c, h.conversationService.Reopen)
}

func (h *ConversationHandler) withConversation(c *gin.Context, op func(ctx context.Context, conversationID, userID string) (*dto.ConversationResponse, error)) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	id, ok := RequireParam(c, "id")
	if !ok {
		return
	}

	conv, err := op(c.Request.Context(), id, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, conv)
}

// SendMessage godoc
// @Summary  Post a message to a conversation
// @Tags     conversations
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id      path string                 true "Conversation ID"
// @Param    request body dto.SendMessageRequest true "Message"
// @Success  201 {object} dto.MessageResponse
// @Router   /api/v1/conversations/{id}/messages [post]
func (h *ConversationHandler) SendMessage(c *gin.Context) {
	userID, role, ok := h.GetUserAndRole(c)
	if !ok {
		return
	}
	id, ok := RequireParam(c, "id")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	msg, err := h.conversationService.SendMessage(c.Request.Context(), id, userID, role, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// ListMessages godoc
// @Summary  Messages in chronological order, optionally after a cursor
// @Tags     conversations
// @Produce  json
// @Security BearerAuth
// @Param    id       path  string true  "Conversation ID"
// @Param    after    query string false "RFC3339 timestamp"
// @Param    after_id query string false "Message ID at the after timestamp"
// @Param    limit    query int    false "Max messages (default 50)"
// @Success  200 {object} dto.MessageListResponse
// @Router   /api/v1/conversations/{id}/messages [get]
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	id, ok := RequireParam(c, "id")
	if !ok {
		return
	}

	var q dto.MessageListQuery
	if !h.BindAndValidate_Query(c, &q) {
		return
	}

	result, err := h.conversationService.ListMessages(c.Request.Context(), id, userID, &q)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ConversationHandler) MarkRead(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	id, ok := RequireParam(c, "id")
	if !ok {
		return
	}

	result, err := h.conversationService.MarkRead(c.Request.Context(), id, userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *ConversationHandler) UnreadCounts(c *gin.Context) {
	userID, role, ok := h.GetUserAndRole(c)
	if !ok {
		return
	}

	result, err := h.conversationService.UnreadCounts(c.Request.Context(), userID, role)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
