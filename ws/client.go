package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/models"
	"eventhire_backend/internal/services/dto"
	"eventhire_backend/pkg/apperrors"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	sendBuffer     = 64
)

// Incoming is a frame sent by the client.
type Incoming struct {
	Action string          `json:"action"`
	Ref    string          `json:"ref,omitempty"`
	Data   json.RawMessage `json:"data"`
}

type sendMessageData struct {
	ConversationID string `json:"conversation_id" validate:"required,uuid"`
	dto.SendMessageRequest
}

type markReadData struct {
	ConversationID string `json:"conversation_id" validate:"required,uuid"`
}

type Client struct {
	UserID string
	Role   models.UserRole

	conn    *websocket.Conn
	send    chan Envelope
	hub     *Hub
	handler *Handler

	quit     chan struct{}
	quitOnce sync.Once
}

// close stops the write loop; send is never closed so late replies are
// simply dropped.
func (c *Client) close() {
	c.quitOnce.Do(func() { close(c.quit) })
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.detach(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Incoming
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.CtxWithError(ctx, "ws read failed", err)
			}
			return
		}
		c.handleMessage(ctx, msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.quit:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reply answers the connection that sent a frame. Replies never block the
// read loop.
func (c *Client) reply(kind, ref string, payload any) {
	if ref != "" {
		payload = map[string]any{"ref": ref, "result": payload}
	}
	select {
	case c.send <- Envelope{Type: kind, Payload: payload}:
	default:
	}
}

func (c *Client) fail(ref string, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.InternalError(err)
	}
	c.reply("error", ref, appErr)
}

func (c *Client) handleMessage(ctx context.Context, msg Incoming) {
	switch msg.Action {
	case "ping":
		c.reply("pong", msg.Ref, nil)

	case "send_message":
		var data sendMessageData
		if err := c.handler.decode(msg.Data, &data); err != nil {
			c.fail(msg.Ref, err)
			return
		}
		// the sender also receives message.new through the hub
		if _, err := c.handler.conversations.SendMessage(ctx, data.ConversationID, c.UserID, c.Role, &data.SendMessageRequest); err != nil {
			c.fail(msg.Ref, err)
		}

	case "mark_read":
		var data markReadData
		if err := c.handler.decode(msg.Data, &data); err != nil {
			c.fail(msg.Ref, err)
			return
		}
		res, err := c.handler.conversations.MarkRead(ctx, data.ConversationID, c.UserID)
		if err != nil {
			c.fail(msg.Ref, err)
			return
		}
		c.reply("conversation.marked_read", msg.Ref, res)

	default:
		c.fail(msg.Ref, apperrors.NewBadRequestError("unknown action: "+msg.Action))
	}
}
