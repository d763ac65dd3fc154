package repositories

import (
	"context"
	"strings"

	"eventhire_backend/internal/models"

	"gorm.io/gorm"
)

// Sort orders accepted by SearchProfessionals.
const (
	SortRating   = "rating"
	SortRateAsc  = "rate_asc"
	SortRateDesc = "rate_desc"
	SortNewest   = "newest"
)

type ProfessionalFilter struct {
	Category models.ServiceCategory
	City     string
	MinRate  *int64
	MaxRate  *int64
	Query    string
	Sort     string
	// IncludeHidden lists profiles with is_public=false as well.
	IncludeHidden bool
	Page
}

type ProfileRepository interface {
	CreateProfessional(ctx context.Context, profile *models.ProfessionalProfile) error
	CreateOrganizer(ctx context.Context, profile *models.OrganizerProfile) error
	FindProfessionalByUserID(ctx context.Context, userID string) (*models.ProfessionalProfile, error)
	FindOrganizerByUserID(ctx context.Context, userID string) (*models.OrganizerProfile, error)
	UpdateProfessional(ctx context.Context, profile *models.ProfessionalProfile) error
	UpdateOrganizer(ctx context.Context, profile *models.OrganizerProfile) error
	SearchProfessionals(ctx context.Context, filter ProfessionalFilter) ([]models.ProfessionalProfile, int64, error)
	// DisplayNames maps user ids to the display name of whichever profile they own.
	DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error)
}

type profileRepository struct {
	gormRepo
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{gormRepo{db: db}}
}

func (r *profileRepository) CreateProfessional(ctx context.Context, profile *models.ProfessionalProfile) error {
	return duplicate(r.conn(ctx).Create(profile).Error, ErrProfileAlreadyExists)
}

func (r *profileRepository) CreateOrganizer(ctx context.Context, profile *models.OrganizerProfile) error {
	return duplicate(r.conn(ctx).Create(profile).Error, ErrProfileAlreadyExists)
}

func (r *profileRepository) FindProfessionalByUserID(ctx context.Context, userID string) (*models.ProfessionalProfile, error) {
	var p models.ProfessionalProfile
	if err := r.conn(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	return &p, nil
}

func (r *profileRepository) FindOrganizerByUserID(ctx context.Context, userID string) (*models.OrganizerProfile, error) {
	var p models.OrganizerProfile
	if err := r.conn(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	return &p, nil
}

func (r *profileRepository) UpdateProfessional(ctx context.Context, profile *models.ProfessionalProfile) error {
	result := r.conn(ctx).Model(profile).Select("*").Omit("created_at", "user_id").Updates(profile)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *profileRepository) UpdateOrganizer(ctx context.Context, profile *models.OrganizerProfile) error {
	result := r.conn(ctx).Model(profile).Select("*").Omit("created_at", "user_id").Updates(profile)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *profileRepository) SearchProfessionals(ctx context.Context, f ProfessionalFilter) ([]models.ProfessionalProfile, int64, error) {
	q := r.conn(ctx).Model(&models.ProfessionalProfile{})

	if !f.IncludeHidden {
		q = q.Where("is_public = ?", true)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if city := strings.TrimSpace(f.City); city != "" {
		q = q.Where("lower(city) = lower(?)", city)
	}
	if f.MinRate != nil {
		q = q.Where("hourly_rate >= ?", *f.MinRate)
	}
	if f.MaxRate != nil {
		q = q.Where("hourly_rate <= ?", *f.MaxRate)
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		like := "%" + query + "%"
		q = q.Where("display_name ILIKE ? OR bio ILIKE ? OR array_to_string(services, ' ') ILIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var profiles []models.ProfessionalProfile
	err := q.Order(professionalOrder(f.Sort)).
		Limit(f.Limit()).
		Offset(f.Offset()).
		Find(&profiles).Error
	return profiles, total, err
}

func professionalOrder(sort string) string {
	switch sort {
	case SortRateAsc:
		return "hourly_rate ASC, id ASC"
	case SortRateDesc:
		return "hourly_rate DESC, id ASC"
	case SortNewest:
		return "created_at DESC, id ASC"
	default:
		return "rating DESC, review_count DESC, id ASC"
	}
}

func (r *profileRepository) DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}

	type row struct {
		UserID      string
		DisplayName string
	}
	var rows []row
	if err := r.conn(ctx).Model(&models.ProfessionalProfile{}).
		Select("user_id, display_name").Where("user_id IN ?", userIDs).Scan(&rows).Error; err != nil {
		return nil, err
	}
	var orgRows []row
	if err := r.conn(ctx).Model(&models.OrganizerProfile{}).
		Select("user_id, display_name").Where("user_id IN ?", userIDs).Scan(&orgRows).Error; err != nil {
		return nil, err
	}
	for _, n := range append(rows, orgRows...) {
		names[n.UserID] = n.DisplayName
	}
	return names, nil
}
