package dto

import (
	"time"

	"eventhire_backend/internal/models"
)

type CreateFeedbackRequest struct {
	Sentiment models.Sentiment       `json:"sentiment" validate:"required,is-sentiment"`
	Message   string                 `json:"message" validate:"required,min=1,max=2000"`
	Page      string                 `json:"page,omitempty" validate:"omitempty,max=500"`
	Email     string                 `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

type FeedbackListQuery struct {
	Sentiment models.Sentiment `form:"sentiment" validate:"omitempty,is-sentiment"`
	PaginationQuery
}

type FeedbackResponse struct {
	ID        string                 `json:"id"`
	UserID    *string                `json:"user_id,omitempty"`
	Email     string                 `json:"email,omitempty"`
	Sentiment models.Sentiment       `json:"sentiment"`
	Message   string                 `json:"message"`
	Page      string                 `json:"page,omitempty"`
	UserAgent string                 `json:"user_agent,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func NewFeedbackResponse(f *models.Feedback) *FeedbackResponse {
	return &FeedbackResponse{
		ID:        f.ID,
		UserID:    f.UserID,
		Email:     f.Email,
		Sentiment: f.Sentiment,
		Message:   f.Message,
		Page:      f.Page,
		UserAgent: f.UserAgent,
		Context:   f.Context,
		CreatedAt: f.CreatedAt,
	}
}
