package dto

import (
	"io"
	"time"

	"eventhire_backend/internal/models"
)

// UpdateProfileRequest is a partial update; nil fields are left untouched.
// Organizer and professional fields are ignored for the other role.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,min=2,max=100"`
	City        *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Bio         *string `json:"bio,omitempty" validate:"omitempty,max=2000"`

	CompanyName *string `json:"company_name,omitempty" validate:"omitempty,max=150"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=30"`

	Category        *models.ServiceCategory `json:"category,omitempty" validate:"omitempty,is-category"`
	Services        []string                `json:"services,omitempty" validate:"omitempty,max=20,dive,min=1,max=60"`
	HourlyRate      *int64                  `json:"hourly_rate,omitempty" validate:"omitempty,min=0"`
	MinBookingHours *int                    `json:"min_booking_hours,omitempty" validate:"omitempty,min=0,max=24"`
	IsPublic        *bool                   `json:"is_public,omitempty"`
}

type ProfessionalProfileResponse struct {
	UserID          string                 `json:"user_id"`
	DisplayName     string                 `json:"display_name"`
	Category        models.ServiceCategory `json:"category"`
	Services        []string               `json:"services"`
	HourlyRate      int64                  `json:"hourly_rate"`
	MinBookingHours int                    `json:"min_booking_hours"`
	Bio             string                 `json:"bio"`
	City            string                 `json:"city"`
	PhotoURL        string                 `json:"photo_url,omitempty"`
	IsPublic        bool                   `json:"is_public"`
	Rating          float64                `json:"rating"`
	ReviewCount     int                    `json:"review_count"`
	CreatedAt       time.Time              `json:"created_at"`
}

func NewProfessionalProfileResponse(p *models.ProfessionalProfile) *ProfessionalProfileResponse {
	services := []string(p.Services)
	if services == nil {
		services = []string{}
	}
	return &ProfessionalProfileResponse{
		UserID:          p.UserID,
		DisplayName:     p.DisplayName,
		Category:        p.Category,
		Services:        services,
		HourlyRate:      p.HourlyRate,
		MinBookingHours: p.MinBookingHours,
		Bio:             p.Bio,
		City:            p.City,
		PhotoURL:        p.PhotoURL,
		IsPublic:        p.IsPublic,
		Rating:          p.Rating,
		ReviewCount:     p.ReviewCount,
		CreatedAt:       p.CreatedAt,
	}
}

type OrganizerProfileResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	CompanyName string `json:"company_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	City        string `json:"city"`
	Bio         string `json:"bio,omitempty"`
}

func NewOrganizerProfileResponse(p *models.OrganizerProfile) *OrganizerProfileResponse {
	return &OrganizerProfileResponse{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		CompanyName: p.CompanyName,
		Phone:       p.Phone,
		City:        p.City,
		Bio:         p.Bio,
	}
}

// ProfessionalSearchQuery filters the public directory.
type ProfessionalSearchQuery struct {
	Category models.ServiceCategory `form:"category" validate:"omitempty,is-category"`
	City     string                 `form:"city" validate:"omitempty,max=100"`
	MinRate  *int64                 `form:"min_rate" validate:"omitempty,min=0"`
	MaxRate  *int64                 `form:"max_rate" validate:"omitempty,min=0"`
	Query    string                 `form:"q" validate:"omitempty,max=100"`
	Sort     string                 `form:"sort" validate:"omitempty,is-directory-sort"`
	PaginationQuery
}

// PhotoUpload is a profile photo read from a multipart form.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}
