package models

import "time"

// Conversation is the thread for one organizer, professional and event.
type Conversation struct {
	BaseModel
	OrganizerID            string             `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_triple" json:"organizer_id"`
	ProfessionalID         string             `gorm:"type:uuid;not null;uniqueIndex:idx_conversation_triple" json:"professional_id"`
	EventName              string             `gorm:"not null;uniqueIndex:idx_conversation_triple" json:"event_name"`
	EventDate              *time.Time         `json:"event_date,omitempty"`
	Status                 ConversationStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	LastMessageAt          *time.Time         `gorm:"index" json:"last_message_at,omitempty"`
	OrganizerLastReadAt    *time.Time         `json:"organizer_last_read_at,omitempty"`
	ProfessionalLastReadAt *time.Time         `json:"professional_last_read_at,omitempty"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (c.OrganizerID == userID || c.ProfessionalID == userID)
}

// OtherParticipant returns the id of the party that is not userID.
func (c *Conversation) OtherParticipant(userID string) string {
	if c.OrganizerID == userID {
		return c.ProfessionalID
	}
	return c.OrganizerID
}

// SortTime orders conversations by recent activity.
func (c *Conversation) SortTime() time.Time {
	if c.LastMessageAt != nil {
		return *c.LastMessageAt
	}
	return c.CreatedAt
}

type Message struct {
	BaseModel
	ConversationID string     `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       string     `gorm:"type:varchar(36)" json:"sender_id,omitempty"`
	SenderType     SenderType `gorm:"type:varchar(20);not null" json:"sender_type"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	Read           bool       `gorm:"default:false;index" json:"read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
}

// Less orders messages by creation time, ties broken by id.
func (m *Message) Less(other *Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID < other.ID
	}
	return m.CreatedAt.Before(other.CreatedAt)
}
