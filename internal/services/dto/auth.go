package dto

import (
	"time"

	"eventhire_backend/internal/models"
)

// RegisterRequest creates an organizer or professional account together
// with an empty profile of the matching kind.
type RegisterRequest struct {
	Email       string                 `json:"email" validate:"required,email,max=255"`
	Password    string                 `json:"password" validate:"required,min=8,max=72"`
	Role        models.UserRole        `json:"role" validate:"required,is-signup-role"`
	DisplayName string                 `json:"display_name" validate:"required,min=2,max=100"`
	City        string                 `json:"city" validate:"omitempty,max=100"`
	CompanyName string                 `json:"company_name,omitempty" validate:"omitempty,max=150"`
	Category    models.ServiceCategory `json:"category,omitempty" validate:"omitempty,is-category"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirm struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresAt    time.Time     `json:"expires_at"`
	User         *UserResponse `json:"user"`
}

type UserResponse struct {
	ID           string                       `json:"id"`
	Email        string                       `json:"email"`
	Role         models.UserRole              `json:"role"`
	Status       models.UserStatus            `json:"status"`
	IsVerified   bool                         `json:"is_verified"`
	LastLoginAt  *time.Time                   `json:"last_login_at,omitempty"`
	CreatedAt    time.Time                    `json:"created_at"`
	Professional *ProfessionalProfileResponse `json:"professional_profile,omitempty"`
	Organizer    *OrganizerProfileResponse    `json:"organizer_profile,omitempty"`
}

func NewUserResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		Status:      u.Status,
		IsVerified:  u.IsVerified,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
