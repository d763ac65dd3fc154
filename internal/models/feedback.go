package models

import "gorm.io/datatypes"

type Feedback struct {
	BaseModel
	UserID    *string           `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Email     string            `json:"email,omitempty"`
	Sentiment Sentiment         `gorm:"type:varchar(20);not null;index" json:"sentiment"`
	Message   string            `gorm:"type:text;not null" json:"message"`
	Page      string            `json:"page,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Context   datatypes.JSONMap `gorm:"type:jsonb" json:"context,omitempty"`
}
