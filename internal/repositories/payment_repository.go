package repositories

import (
	"context"

	"eventhire_backend/internal/models"

	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	FindByIntentID(ctx context.Context, intentID string) (*models.Payment, error)
	// FindOpenByRequest returns the newest payment still awaiting the payer.
	FindOpenByRequest(ctx context.Context, serviceRequestID string) (*models.Payment, error)
	ListByRequest(ctx context.Context, serviceRequestID string) ([]models.Payment, error)
	Update(ctx context.Context, payment *models.Payment) error
}

type paymentRepository struct {
	gormRepo
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{gormRepo{db: db}}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return duplicate(r.conn(ctx).Create(payment).Error, ErrPaymentAlreadyExists)
}

func (r *paymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	if err := r.conn(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrPaymentNotFound)
	}
	return &p, nil
}

func (r *paymentRepository) FindByIntentID(ctx context.Context, intentID string) (*models.Payment, error) {
	var p models.Payment
	if err := r.conn(ctx).First(&p, "provider_intent_id = ?", intentID).Error; err != nil {
		return nil, notFound(err, ErrPaymentNotFound)
	}
	return &p, nil
}

func (r *paymentRepository) FindOpenByRequest(ctx context.Context, serviceRequestID string) (*models.Payment, error) {
	var p models.Payment
	err := r.conn(ctx).
		Where("service_request_id = ? AND status IN ?", serviceRequestID,
			[]models.PaymentIntentStatus{models.IntentStatusRequiresPayment, models.IntentStatusProcessing}).
		Order("created_at DESC").
		First(&p).Error
	if err != nil {
		return nil, notFound(err, ErrPaymentNotFound)
	}
	return &p, nil
}

func (r *paymentRepository) ListByRequest(ctx context.Context, serviceRequestID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.conn(ctx).Where("service_request_id = ?", serviceRequestID).
		Order("created_at ASC, id ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	result := r.conn(ctx).Model(payment).Select("*").Omit("created_at").Updates(payment)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
