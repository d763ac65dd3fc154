package services

import (
	"context"
	"strings"

	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/models"
	"eventhire_backend/internal/repositories"
	"eventhire_backend/internal/services/dto"
	"eventhire_backend/pkg/apperrors"

	"gorm.io/datatypes"
)

type FeedbackService interface {
	// Submit stores feedback. userID is empty for anonymous visitors.
	Submit(ctx context.Context, userID, userAgent string, req *dto.CreateFeedbackRequest) (*dto.FeedbackResponse, error)
	List(ctx context.Context, q *dto.FeedbackListQuery) (*dto.PaginatedResponse, error)
}

type feedbackService struct {
	store *repositories.Store
}

func NewFeedbackService(store *repositories.Store) FeedbackService {
	return &feedbackService{store: store}
}

func (s *feedbackService) Submit(ctx context.Context, userID, userAgent string, req *dto.CreateFeedbackRequest) (*dto.FeedbackResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apperrors.ValidationError(map[string]string{"message": "is required"})
	}

	fb := &models.Feedback{
		Email:     strings.TrimSpace(req.Email),
		Sentiment: req.Sentiment,
		Message:   message,
		Page:      strings.TrimSpace(req.Page),
		UserAgent: truncate(userAgent, 500),
	}
	if userID != "" {
		fb.UserID = &userID
		if fb.Email == "" {
			if user, err := s.store.Users.FindByID(ctx, userID); err == nil {
				fb.Email = user.Email
			}
		}
	}
	if len(req.Context) > 0 {
		fb.Context = datatypes.JSONMap(req.Context)
	}

	if err := s.store.Feedback.Create(ctx, fb); err != nil {
		return nil, apperrors.InternalError(err)
	}
	logger.CtxInfo(ctx, "feedback received", "feedback_id", fb.ID, "sentiment", fb.Sentiment)
	return dto.NewFeedbackResponse(fb), nil
}

func (s *feedbackService) List(ctx context.Context, q *dto.FeedbackListQuery) (*dto.PaginatedResponse, error) {
	filter := repositories.FeedbackFilter{Sentiment: q.Sentiment, Page: q.ToPage()}
	items, total, err := s.store.Feedback.List(ctx, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	out := make([]*dto.FeedbackResponse, 0, len(items))
	for i := range items {
		out = append(out, dto.NewFeedbackResponse(&items[i]))
	}
	return dto.NewPaginatedResponse(out, total, filter.Page), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
