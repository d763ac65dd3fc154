package dto

import (
	"time"

	"eventhire_backend/internal/models"
)

type StartConversationRequest struct {
	ProfessionalID string     `json:"professional_id" validate:"required,uuid"`
	EventName      string     `json:"event_name" validate:"required,min=1,max=200"`
	EventDate      *time.Time `json:"event_date,omitempty"`
}

type ConversationListQuery struct {
	Status models.ConversationStatus `form:"status" validate:"omitempty,is-conversation-status"`
	PaginationQuery
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}

// MessageListQuery drives polling: After is an RFC3339 timestamp and
// AfterID breaks ties between messages created in the same instant.
type MessageListQuery struct {
	After   string `form:"after"`
	AfterID string `form:"after_id" validate:"omitempty,uuid"`
	Limit   int    `form:"limit" validate:"omitempty,min=1,max=200"`
}

type ParticipantResponse struct {
	UserID      string          `json:"user_id"`
	Role        models.UserRole `json:"role"`
	DisplayName string          `json:"display_name,omitempty"`
}

type ConversationResponse struct {
	ID             string                    `json:"id"`
	OrganizerID    string                    `json:"organizer_id"`
	ProfessionalID string                    `json:"professional_id"`
	EventName      string                    `json:"event_name"`
	EventDate      *time.Time                `json:"event_date,omitempty"`
	Status         models.ConversationStatus `json:"status"`
	LastMessageAt  *time.Time                `json:"last_message_at,omitempty"`
	CreatedAt      time.Time                 `json:"created_at"`
	UnreadCount    int64                     `json:"unread_count"`
	LastMessage    *MessageResponse          `json:"last_message,omitempty"`
	Counterpart    *ParticipantResponse      `json:"counterpart,omitempty"`

	// Created is set by Start when the conversation did not exist yet.
	Created bool `json:"-"`
}

func NewConversationResponse(c *models.Conversation) *ConversationResponse {
	return &ConversationResponse{
		ID:             c.ID,
		OrganizerID:    c.OrganizerID,
		ProfessionalID: c.ProfessionalID,
		EventName:      c.EventName,
		EventDate:      c.EventDate,
		Status:         c.Status,
		LastMessageAt:  c.LastMessageAt,
		CreatedAt:      c.CreatedAt,
	}
}

type MessageResponse struct {
	ID             string            `json:"id"`
	ConversationID string            `json:"conversation_id"`
	SenderID       string            `json:"sender_id,omitempty"`
	SenderType     models.SenderType `json:"sender_type"`
	Content        string            `json:"content"`
	Read           bool              `json:"read"`
	ReadAt         *time.Time        `json:"read_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

func NewMessageResponse(m *models.Message) *MessageResponse {
	return &MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderType:     m.SenderType,
		Content:        m.Content,
		Read:           m.Read,
		ReadAt:         m.ReadAt,
		CreatedAt:      m.CreatedAt,
	}
}

type MessageListResponse struct {
	Messages []*MessageResponse `json:"messages"`
	// NextAfter and NextAfterID are the cursor for the next poll.
	NextAfter   *time.Time `json:"next_after,omitempty"`
	NextAfterID string     `json:"next_after_id,omitempty"`
}

type MarkReadResponse struct {
	Marked int64 `json:"marked"`
}

type UnreadCountsResponse struct {
	Total         int64            `json:"total"`
	Conversations map[string]int64 `json:"conversations"`
}
