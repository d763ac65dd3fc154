package repositories

import (
	"context"

	"eventhire_backend/internal/models"

	"gorm.io/gorm"
)

type FeedbackFilter struct {
	Sentiment models.Sentiment
	Page
}

type FeedbackRepository interface {
	Create(ctx context.Context, fb *models.Feedback) error
	List(ctx context.Context, filter FeedbackFilter) ([]models.Feedback, int64, error)
}

type feedbackRepository struct {
	gormRepo
}

func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{gormRepo{db: db}}
}

func (r *feedbackRepository) Create(ctx context.Context, fb *models.Feedback) error {
	return r.conn(ctx).Create(fb).Error
}

func (r *feedbackRepository) List(ctx context.Context, f FeedbackFilter) ([]models.Feedback, int64, error) {
	q := r.conn(ctx).Model(&models.Feedback{})
	if f.Sentiment != "" {
		q = q.Where("sentiment = ?", f.Sentiment)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Feedback
	err := q.Order("created_at DESC, id ASC").
		Limit(f.Limit()).
		Offset(f.Offset()).
		Find(&items).Error
	return items, total, err
}
