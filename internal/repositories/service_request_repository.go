package repositories

import (
	"context"
	"time"

	"eventhire_backend/internal/models"

	"gorm.io/gorm"
)

type ServiceRequestFilter struct {
	OrganizerID    string
	ProfessionalID string
	Status         models.ServiceRequestStatus
	// EventAfter keeps requests whose event is at or after this instant.
	EventAfter *time.Time
	Page
}

type ServiceRequestRepository interface {
	Create(ctx context.Context, req *models.ServiceRequest) error
	FindByID(ctx context.Context, id string) (*models.ServiceRequest, error)
	List(ctx context.Context, filter ServiceRequestFilter) ([]models.ServiceRequest, int64, error)
	// UpdateIfStatus persists req only while the stored row still has
	// status expected; otherwise it returns ErrStaleStatus.
	UpdateIfStatus(ctx context.Context, req *models.ServiceRequest, expected models.ServiceRequestStatus) error
	ListOverdue(ctx context.Context, at time.Time, limit int) ([]models.ServiceRequest, error)
	CountByStatus(ctx context.Context, filter ServiceRequestFilter) (map[models.ServiceRequestStatus]int64, error)
}

type serviceRequestRepository struct {
	gormRepo
}

func NewServiceRequestRepository(db *gorm.DB) ServiceRequestRepository {
	return &serviceRequestRepository{gormRepo{db: db}}
}

func (r *serviceRequestRepository) Create(ctx context.Context, req *models.ServiceRequest) error {
	return r.conn(ctx).Create(req).Error
}

func (r *serviceRequestRepository) FindByID(ctx context.Context, id string) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	if err := r.conn(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrServiceRequestNotFound)
	}
	return &req, nil
}

func (r *serviceRequestRepository) scoped(ctx context.Context, f ServiceRequestFilter) *gorm.DB {
	q := r.conn(ctx).Model(&models.ServiceRequest{})
	if f.OrganizerID != "" {
		q = q.Where("organizer_id = ?", f.OrganizerID)
	}
	if f.ProfessionalID != "" {
		q = q.Where("professional_id = ?", f.ProfessionalID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.EventAfter != nil {
		q = q.Where("event_date >= ?", *f.EventAfter)
	}
	return q
}

func (r *serviceRequestRepository) List(ctx context.Context, f ServiceRequestFilter) ([]models.ServiceRequest, int64, error) {
	q := r.scoped(ctx, f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reqs []models.ServiceRequest
	err := q.Order("created_at DESC, id ASC").
		Limit(f.Limit()).
		Offset(f.Offset()).
		Find(&reqs).Error
	return reqs, total, err
}

func (r *serviceRequestRepository) UpdateIfStatus(ctx context.Context, req *models.ServiceRequest, expected models.ServiceRequestStatus) error {
	req.UpdatedAt = now()
	result := r.conn(ctx).Model(&models.ServiceRequest{}).
		Where("id = ? AND status = ?", req.ID, expected).
		Select("*").Omit("id", "created_at").
		Updates(req)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, req.ID); err != nil {
			return err
		}
		return ErrStaleStatus
	}
	return nil
}

func (r *serviceRequestRepository) ListOverdue(ctx context.Context, at time.Time, limit int) ([]models.ServiceRequest, error) {
	var reqs []models.ServiceRequest
	err := r.conn(ctx).
		Where("status = ? AND expires_at <= ?", models.RequestStatusPending, at).
		Order("expires_at ASC").
		Limit(limit).
		Find(&reqs).Error
	return reqs, err
}

func (r *serviceRequestRepository) CountByStatus(ctx context.Context, f ServiceRequestFilter) (map[models.ServiceRequestStatus]int64, error) {
	type row struct {
		Status models.ServiceRequestStatus
		Count  int64
	}
	var rows []row
	f.Status = ""
	err := r.scoped(ctx, f).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.ServiceRequestStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
