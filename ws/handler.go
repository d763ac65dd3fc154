package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/models"
	"eventhire_backend/internal/services/dto"
	"eventhire_backend/internal/validator"
	"eventhire_backend/pkg/apperrors"
	"eventhire_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Conversations is the part of the conversation service reachable over
// the socket.
type Conversations interface {
	SendMessage(ctx context.Context, conversationID, userID string, role models.UserRole, req *dto.SendMessageRequest) (*dto.MessageResponse, error)
	MarkRead(ctx context.Context, conversationID, userID string) (*dto.MarkReadResponse, error)
}

type Handler struct {
	hub           *Hub
	conversations Conversations
	validator     *validator.Validator
	upgrader      websocket.Upgrader
}

// NewHandler upgrades authenticated requests. An empty allowedOrigins
// list accepts any origin.
func NewHandler(hub *Hub, conversations Conversations, v *validator.Validator, allowedOrigins []string) *Handler {
	h := &Handler{hub: hub, conversations: conversations, validator: v}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeWS must run behind the auth middleware.
func (h *Handler) ServeWS(c *gin.Context) {
	userID := c.GetString(contextkeys.UserIDKey)
	if userID == "" {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
		return
	}
	roleVal, _ := c.Get(contextkeys.RoleKey)
	role, _ := roleVal.(models.UserRole)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.CtxWithError(c.Request.Context(), "ws upgrade failed", err)
		return
	}

	client := &Client{
		UserID:  userID,
		Role:    role,
		conn:    conn,
		send:    make(chan Envelope, sendBuffer),
		quit:    make(chan struct{}),
		hub:     h.hub,
		handler: h,
	}
	if !h.hub.attach(client) {
		_ = conn.Close()
		return
	}

	// the request context ends when the handler returns
	ctx := logger.WithUserID(context.WithoutCancel(c.Request.Context()), userID)
	go client.writePump()
	go client.readPump(ctx)
}

func (h *Handler) decode(raw json.RawMessage, into any) error {
	if err := json.Unmarshal(raw, into); err != nil {
		return apperrors.NewBadRequestError("invalid payload: " + err.Error())
	}
	if err := h.validator.Validate(into); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			return apperrors.ValidationError(vErr.Errors)
		}
		return err
	}
	return nil
}
