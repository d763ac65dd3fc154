package models

import "time"

type User struct {
	BaseModel
	Email             string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash      string     `gorm:"not null" json:"-"`
	Role              UserRole   `gorm:"type:varchar(20);not null;index" json:"role"`
	Status            UserStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	IsVerified        bool       `gorm:"default:false" json:"is_verified"`
	VerificationToken string     `gorm:"index" json:"-"`
	ResetToken        string     `gorm:"index" json:"-"`
	ResetTokenExp     *time.Time `json:"-"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`

	ProfessionalProfile *ProfessionalProfile `gorm:"foreignKey:UserID" json:"-"`
	OrganizerProfile    *OrganizerProfile    `gorm:"foreignKey:UserID" json:"-"`
	RefreshTokens       []RefreshToken       `gorm:"foreignKey:UserID" json:"-"`
}

type RefreshToken struct {
	BaseModel
	UserID    string    `gorm:"type:uuid;not null;index"`
	Token     string    `gorm:"not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
