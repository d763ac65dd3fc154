package repositories

import (
	"context"

	"eventhire_backend/internal/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByVerificationToken(ctx context.Context, token string) (*models.User, error)
	FindByResetToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
}

type userRepository struct {
	gormRepo
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{gormRepo{db: db}}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return duplicate(r.conn(ctx).Create(user).Error, ErrUserAlreadyExists)
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "lower(email) = lower(?)", email)
}

func (r *userRepository) FindByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}
	return r.findOne(ctx, "verification_token = ?", token)
}

func (r *userRepository) FindByResetToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}
	return r.findOne(ctx, "reset_token = ?", token)
}

func (r *userRepository) findOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	if err := r.conn(ctx).Where(query, args...).First(&user).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	result := r.conn(ctx).Model(user).Select("*").Omit("created_at").Updates(user)
	if result.Error != nil {
		return duplicate(result.Error, ErrUserAlreadyExists)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&models.User{}).Where("role = ?", role).Count(&count).Error
	return count, err
}
