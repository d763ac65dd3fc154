package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"eventhire_backend/internal/models"

	"gopkg.in/yaml.v2"
)

// SeedProfessional is one entry of the professionals seed file.
type SeedProfessional struct {
	Email           string   `yaml:"email"`
	DisplayName     string   `yaml:"display_name"`
	Category        string   `yaml:"category"`
	Services        []string `yaml:"services"`
	HourlyRate      int64    `yaml:"hourly_rate"`
	MinBookingHours int      `yaml:"min_booking_hours"`
	City            string   `yaml:"city"`
	Bio             string   `yaml:"bio"`
	PhotoURL        string   `yaml:"photo_url"`
	Rating          float64  `yaml:"rating"`
	ReviewCount     int      `yaml:"review_count"`
	Hidden          bool     `yaml:"hidden"`
}

type seedFile struct {
	Professionals []SeedProfessional `yaml:"professionals"`
}

// disabledPassword never matches a bcrypt comparison, so seeded accounts
// cannot sign in until they reset their password.
const disabledPassword = "!"

// LoadProfessionalsFile parses a professionals seed file.
func LoadProfessionalsFile(path string) ([]SeedProfessional, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for i, p := range f.Professionals {
		if strings.TrimSpace(p.Email) == "" || strings.TrimSpace(p.DisplayName) == "" {
			return nil, fmt.Errorf("seed entry %d: email and display_name are required", i)
		}
		if p.Category != "" && !models.ServiceCategory(p.Category).Valid() {
			return nil, fmt.Errorf("seed entry %d: unknown category %q", i, p.Category)
		}
	}
	return f.Professionals, nil
}

// SeedProfessionals creates an active professional account and profile for
// every entry whose email is not taken yet. It returns how many were
// created.
func SeedProfessionals(ctx context.Context, store *Store, items []SeedProfessional) (int, error) {
	created := 0
	for _, item := range items {
		err := store.Tx.WithinTx(ctx, func(ctx context.Context) error {
			user := &models.User{
				Email:        strings.ToLower(strings.TrimSpace(item.Email)),
				PasswordHash: disabledPassword,
				Role:         models.UserRoleProfessional,
				Status:       models.UserStatusActive,
				IsVerified:   true,
			}
			if err := store.Users.Create(ctx, user); err != nil {
				return err
			}
			category := models.ServiceCategory(item.Category)
			if category == "" {
				category = models.CategoryOther
			}
			return store.Profiles.CreateProfessional(ctx, &models.ProfessionalProfile{
				UserID:          user.ID,
				DisplayName:     item.DisplayName,
				Category:        category,
				Services:        item.Services,
				HourlyRate:      item.HourlyRate,
				MinBookingHours: item.MinBookingHours,
				Bio:             item.Bio,
				City:            item.City,
				PhotoURL:        item.PhotoURL,
				IsPublic:        !item.Hidden,
				Rating:          item.Rating,
				ReviewCount:     item.ReviewCount,
			})
		})
		if errors.Is(err, ErrUserAlreadyExists) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", item.Email, err)
		}
		created++
	}
	return created, nil
}

// NewLegacyDirectory builds an in-memory professionals directory from a
// seed file. It serves directory reads when the primary store has nothing
// to show.
func NewLegacyDirectory(ctx context.Context, path string) (ProfileRepository, int, error) {
	items, err := LoadProfessionalsFile(path)
	if err != nil {
		return nil, 0, err
	}
	store, _ := NewInMemoryStore()
	n, err := SeedProfessionals(ctx, store, items)
	if err != nil {
		return nil, n, err
	}
	return store.Profiles, n, nil
}
