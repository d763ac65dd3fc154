package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eventhire_backend/internal/auth"
	"eventhire_backend/internal/config"
	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/models"
	"eventhire_backend/internal/repositories"
)

// seedData creates the first admin and loads the professionals seed file.
// On postgres the seed file becomes a separate legacy directory; on the
// in-memory store it is loaded into the store itself.
func seedData(ctx context.Context, cfg *config.Config, store *repositories.Store) (repositories.ProfileRepository, error) {
	if err := seedFirstAdmin(ctx, store, cfg); err != nil {
		return nil, fmt.Errorf("seed first admin: %w", err)
	}

	path := cfg.Seed.ProfessionalsFile
	if path == "" {
		return nil, nil
	}

	if cfg.UsesMemoryStore() {
		items, err := repositories.LoadProfessionalsFile(path)
		if err != nil {
			return nil, err
		}
		n, err := repositories.SeedProfessionals(ctx, store, items)
		if err != nil {
			return nil, err
		}
		logger.Info("Professionals seeded", "file", path, "created", n)
		return nil, nil
	}

	legacy, n, err := repositories.NewLegacyDirectory(ctx, path)
	if err != nil {
		return nil, err
	}
	logger.Info("Legacy directory loaded", "file", path, "profiles", n)
	return legacy, nil
}

func seedFirstAdmin(ctx context.Context, store *repositories.Store, cfg *config.Config) error {
	adminEmail := strings.ToLower(strings.TrimSpace(cfg.FirstAdminEmail))
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Debug("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set, skipping admin seeding")
		return nil
	}

	_, err := store.Users.FindByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("Admin user already exists, skipping creation", "email", adminEmail)
		return nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return fmt.Errorf("check for admin user: %w", err)
	}

	logger.Warn("No admin user found with specified email, creating first admin", "email", adminEmail)

	hashed, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        adminEmail,
		PasswordHash: hashed,
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
		IsVerified:   true,
	}
	if err := store.Users.Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil
		}
		return fmt.Errorf("create admin user: %w", err)
	}

	logger.Info("First admin user created", "email", adminEmail, "id", admin.ID)
	return nil
}
