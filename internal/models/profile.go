package models

import (
	"strings"

	"github.com/lib/pq"
)

type ProfessionalProfile struct {
	BaseModel
	UserID          string          `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	DisplayName     string          `gorm:"not null" json:"display_name"`
	Category        ServiceCategory `gorm:"type:varchar(30);index" json:"category"`
	Services        pq.StringArray  `gorm:"type:text[]" json:"services"`
	HourlyRate      int64           `json:"hourly_rate"` // minor units
	MinBookingHours int             `json:"min_booking_hours"`
	Bio             string          `gorm:"type:text" json:"bio"`
	City            string          `gorm:"index" json:"city"`
	PhotoURL        string          `json:"photo_url,omitempty"`
	PhotoKey        string          `json:"-"`
	IsPublic        bool            `gorm:"default:true" json:"is_public"`
	Rating          float64         `gorm:"default:0" json:"rating"`
	ReviewCount     int             `gorm:"default:0" json:"review_count"`
}

// Matches is the text search used by the in-memory directory; postgres
// uses ILIKE on the same columns.
func (p *ProfessionalProfile) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.DisplayName), q) || strings.Contains(strings.ToLower(p.Bio), q) {
		return true
	}
	for _, s := range p.Services {
		if strings.Contains(strings.ToLower(s), q) {
			return true
		}
	}
	return false
}

type OrganizerProfile struct {
	BaseModel
	UserID      string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	DisplayName string `gorm:"not null" json:"display_name"`
	CompanyName string `json:"company_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	City        string `json:"city"`
	Bio         string `gorm:"type:text" json:"bio,omitempty"`
}
