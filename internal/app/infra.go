package app

import (
	"context"
	"fmt"
	"time"

	"eventhire_backend/database"
	"eventhire_backend/internal/auth"
	"eventhire_backend/internal/config"
	"eventhire_backend/internal/email"
	"eventhire_backend/internal/logger"
	"eventhire_backend/internal/payments"
	"eventhire_backend/internal/ratelimit"
	"eventhire_backend/internal/repositories"
	"eventhire_backend/internal/storage"
	"eventhire_backend/internal/workers"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// mockWebhookSecret signs mock gateway webhooks when no secret is set.
const mockWebhookSecret = "whsec_mock"

// openStore picks postgres when a DSN is configured and the in-memory
// store otherwise.
func openStore(cfg *config.Config) (*repositories.Store, *gorm.DB, error) {
	if cfg.UsesMemoryStore() {
		logger.Warn("No database url configured, using the in-memory store")
		store, _ := repositories.NewInMemoryStore()
		return store, nil, nil
	}

	logger.Info("Connecting to database...")
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, err
		}
	}
	return repositories.NewGormStore(db), db, nil
}

// newRedis returns nil when no address is configured.
func newRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}
	logger.Info("Redis connected", "addr", cfg.Redis.Addr)
	return client, nil
}

// newRevoker shares revocations through redis when available. The memory
// revoker's purge is returned for the cleanup worker.
func newRevoker(client redis.UniversalClient) (auth.Revoker, workers.Purger) {
	if client != nil {
		return auth.NewRedisRevoker(client), nil
	}
	r := auth.NewMemoryRevoker()
	return r, r.Purge
}

func newAuthLimiter(client redis.UniversalClient, cfg *config.Config) (ratelimit.Limiter, workers.Purger, error) {
	window := time.Duration(cfg.RateLimit.AuthWindow) * time.Second
	if client != nil {
		l, err := ratelimit.NewRedisFixedWindow(client, "eventhire:ratelimit:auth", cfg.RateLimit.AuthRequests, window)
		return l, nil, err
	}
	l := ratelimit.NewLocal(cfg.RateLimit.AuthRequests, window)
	return l, func() int { return l.Cleanup(time.Hour) }, nil
}

func newGateway(cfg *config.Config) (payments.Gateway, error) {
	switch cfg.Payments.Provider {
	case "stripe":
		return payments.NewStripeGateway(cfg.Payments.StripeSecretKey, cfg.Payments.StripeWebhookKey)
	default:
		secret := cfg.Payments.StripeWebhookKey
		if secret == "" {
			secret = mockWebhookSecret
		}
		return payments.NewMockGateway(secret), nil
	}
}

func newStorage(cfg *config.Config) (storage.Storage, error) {
	return storage.NewStorage(storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		BaseURL:   cfg.Storage.BaseURL,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
		UseSSL:    cfg.Storage.UseSSL,
	})
}

func newEmailProvider(cfg *config.Config) (email.Provider, error) {
	from := email.Address{Name: cfg.Email.FromName, Email: cfg.Email.FromEmail}
	switch cfg.Email.Provider {
	case "sendgrid":
		return email.NewSendGridProvider(cfg.Email.SendGridAPIKey, from)
	case "smtp":
		return email.NewSMTPProvider(email.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
			From:     from,
		})
	default:
		return email.NewLogProvider(), nil
	}
}

func newMailer(cfg *config.Config, provider email.Provider) (*email.Mailer, error) {
	templates := email.NewTemplateManager()
	if cfg.Email.TemplatesDir != "" {
		if err := templates.LoadTemplates(cfg.Email.TemplatesDir); err != nil {
			return nil, fmt.Errorf("load email templates: %w", err)
		}
		logger.Info("Email templates loaded", "dir", cfg.Email.TemplatesDir)
	}
	return email.NewMailer(provider, templates, cfg.Server.PublicURL), nil
}
