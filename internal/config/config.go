package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host            string   `yaml:"host"`
		Port            int      `yaml:"port"`
		Env             string   `yaml:"env"`
		PublicURL       string   `yaml:"public_url"`
		AllowedOrigins  []string `yaml:"allowed_origins"`
		ShutdownTimeout int      `yaml:"shutdown_timeout"` // seconds
	} `yaml:"server"`

	Database struct {
		// DSN empty selects the in-memory store.
		DSN          string `yaml:"url"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
		AutoMigrate  bool   `yaml:"auto_migrate"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
		Issuer string `yaml:"issuer"`
		// RefreshTTL is in hours.
		RefreshTTL           int  `yaml:"refresh_ttl"`
		RequireVerifiedEmail bool `yaml:"require_verified_email"`
	} `yaml:"jwt"`

	Booking struct {
		RequestTTLHours    int    `yaml:"request_ttl_hours"`
		DepositPercent     int    `yaml:"deposit_percent"`
		PlatformFeePercent int    `yaml:"platform_fee_percent"`
		Currency           string `yaml:"currency"`
	} `yaml:"booking"`

	Payments struct {
		Provider         string `yaml:"provider"` // stripe, mock
		StripeSecretKey  string `yaml:"stripe_secret_key"`
		StripeWebhookKey string `yaml:"stripe_webhook_secret"`
	} `yaml:"payments"`

	Email struct {
		Provider       string `yaml:"provider"` // sendgrid, smtp, log
		SendGridAPIKey string `yaml:"sendgrid_api_key"`
		SMTPHost       string `yaml:"smtp_host"`
		SMTPPort       int    `yaml:"smtp_port"`
		SMTPUsername   string `yaml:"smtp_user"`
		SMTPPassword   string `yaml:"smtp_password"`
		FromEmail      string `yaml:"from_email"`
		FromName       string `yaml:"from_name"`
		TemplatesDir   string `yaml:"templates_dir"`
	} `yaml:"email"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Events struct {
		Driver   string `yaml:"driver"` // memory, amqp
		AMQPURL  string `yaml:"amqp_url"`
		Exchange string `yaml:"exchange"`
		Queue    string `yaml:"queue"`
	} `yaml:"events"`

	Storage struct {
		Type      string `yaml:"type"` // local, minio
		BasePath  string `yaml:"base_path"`
		BaseURL   string `yaml:"base_url"`
		Bucket    string `yaml:"bucket"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Endpoint  string `yaml:"endpoint"`
		UseSSL    bool   `yaml:"use_ssl"`
	} `yaml:"storage"`

	Upload struct {
		MaxSize      int64    `yaml:"max_size"`
		AllowedTypes []string `yaml:"allowed_types"`
		MaxPhotoSide int      `yaml:"max_photo_side"` // pixels
	} `yaml:"upload"`

	RateLimit struct {
		AuthRequests int `yaml:"auth_requests"`
		AuthWindow   int `yaml:"auth_window"` // seconds
	} `yaml:"rate_limit"`

	Workers struct {
		ExpiryInterval       int `yaml:"expiry_interval"`        // seconds
		ArchiveInterval      int `yaml:"archive_interval"`       // seconds
		ArchiveAfterDays     int `yaml:"archive_after_days"`
		TokenCleanupInterval int `yaml:"token_cleanup_interval"` // seconds
	} `yaml:"workers"`

	Seed struct {
		ProfessionalsFile string `yaml:"professionals_file"`
	} `yaml:"seed"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

// LoadConfig reads the YAML file named by CONFIG_PATH (default
// config/config.yaml) if it exists, then applies environment overrides and
// defaults.
func LoadConfig() (*Config, error) {
	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	f, err := os.Open(configPath)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// environment only
	default:
		return nil, fmt.Errorf("open config file %s: %w", configPath, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Parse decodes YAML bytes with defaults applied. Environment is not read.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Database.DSN, "DATABASE_URL")
	setString(&c.Server.Env, "SERVER_ENV")
	setInt(&c.Server.Port, "SERVER_PORT")
	setString(&c.Server.PublicURL, "PUBLIC_URL")
	setString(&c.JWT.Secret, "JWT_SECRET")
	setString(&c.Payments.Provider, "PAYMENTS_PROVIDER")
	setString(&c.Payments.StripeSecretKey, "STRIPE_SECRET_KEY")
	setString(&c.Payments.StripeWebhookKey, "STRIPE_WEBHOOK_SECRET")
	setString(&c.Email.Provider, "EMAIL_PROVIDER")
	setString(&c.Email.SendGridAPIKey, "SENDGRID_API_KEY")
	setString(&c.Email.FromEmail, "EMAIL_FROM")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Events.Driver, "EVENTS_DRIVER")
	setString(&c.Events.AMQPURL, "AMQP_URL")
	setString(&c.Storage.Type, "STORAGE_TYPE")
	setString(&c.Storage.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Storage.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Storage.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Seed.ProfessionalsFile, "SEED_PROFESSIONALS_FILE")
	setString(&c.FirstAdminEmail, "FIRST_ADMIN_EMAIL")
	setString(&c.FirstAdminPassword, "FIRST_ADMIN_PASSWORD")
}

func (c *Config) applyDefaults() {
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 4000
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.JWT.TTL == 0 {
		c.JWT.TTL = 60
	}
	if c.JWT.RefreshTTL == 0 {
		c.JWT.RefreshTTL = 7 * 24
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "eventhire"
	}
	if c.Booking.RequestTTLHours == 0 {
		c.Booking.RequestTTLHours = 72
	}
	if c.Booking.DepositPercent == 0 {
		c.Booking.DepositPercent = 25
	}
	if c.Booking.PlatformFeePercent == 0 {
		c.Booking.PlatformFeePercent = 10
	}
	if c.Booking.Currency == "" {
		c.Booking.Currency = "usd"
	}
	c.Booking.Currency = strings.ToLower(c.Booking.Currency)
	if c.Payments.Provider == "" {
		c.Payments.Provider = "mock"
		if c.Payments.StripeSecretKey != "" {
			c.Payments.Provider = "stripe"
		}
	}
	if c.Email.Provider == "" {
		c.Email.Provider = "log"
		if c.Email.SendGridAPIKey != "" {
			c.Email.Provider = "sendgrid"
		}
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Email.FromEmail == "" {
		c.Email.FromEmail = "no-reply@eventhire.local"
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "EventHire"
	}
	if c.Events.Driver == "" {
		c.Events.Driver = "memory"
	}
	if c.Events.Exchange == "" {
		c.Events.Exchange = "eventhire.events"
	}
	if c.Events.Queue == "" {
		c.Events.Queue = "eventhire.notifications"
	}
	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.BasePath == "" {
		c.Storage.BasePath = "./uploads"
	}
	if c.Storage.BaseURL == "" {
		c.Storage.BaseURL = "/files"
	}
	if c.Storage.Bucket == "" {
		c.Storage.Bucket = "eventhire"
	}
	if c.Upload.MaxSize == 0 {
		c.Upload.MaxSize = 5 * 1024 * 1024
	}
	if len(c.Upload.AllowedTypes) == 0 {
		c.Upload.AllowedTypes = []string{"image/jpeg", "image/png", "image/webp"}
	}
	if c.Upload.MaxPhotoSide == 0 {
		c.Upload.MaxPhotoSide = 1600
	}
	if c.RateLimit.AuthRequests == 0 {
		c.RateLimit.AuthRequests = 20
	}
	if c.RateLimit.AuthWindow == 0 {
		c.RateLimit.AuthWindow = 60
	}
	if c.Workers.ExpiryInterval == 0 {
		c.Workers.ExpiryInterval = 300
	}
	if c.Workers.ArchiveInterval == 0 {
		c.Workers.ArchiveInterval = 24 * 3600
	}
	if c.Workers.ArchiveAfterDays == 0 {
		c.Workers.ArchiveAfterDays = 30
	}
	if c.Workers.TokenCleanupInterval == 0 {
		c.Workers.TokenCleanupInterval = 3600
	}
}

// Validate rejects combinations the application cannot start with.
func (c *Config) Validate() error {
	var problems []string

	if c.JWT.Secret == "" {
		if c.IsProduction() {
			problems = append(problems, "jwt.secret is required in production")
		} else {
			c.JWT.Secret = "dev-secret-change-me"
		}
	}
	if c.Booking.DepositPercent < 1 || c.Booking.DepositPercent > 100 {
		problems = append(problems, "booking.deposit_percent must be within 1..100")
	}
	if c.Booking.PlatformFeePercent < 0 || c.Booking.PlatformFeePercent >= 100 {
		problems = append(problems, "booking.platform_fee_percent must be within 0..99")
	}
	switch c.Payments.Provider {
	case "mock":
	case "stripe":
		if c.Payments.StripeSecretKey == "" {
			problems = append(problems, "payments.stripe_secret_key is required for the stripe provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown payments.provider %q", c.Payments.Provider))
	}
	switch c.Email.Provider {
	case "log", "smtp":
	case "sendgrid":
		if c.Email.SendGridAPIKey == "" {
			problems = append(problems, "email.sendgrid_api_key is required for the sendgrid provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown email.provider %q", c.Email.Provider))
	}
	switch c.Events.Driver {
	case "memory":
	case "amqp":
		if c.Events.AMQPURL == "" {
			problems = append(problems, "events.amqp_url is required for the amqp driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown events.driver %q", c.Events.Driver))
	}
	switch c.Storage.Type {
	case "local", "minio":
	default:
		problems = append(problems, fmt.Sprintf("unknown storage.type %q", c.Storage.Type))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func (c *Config) UsesMemoryStore() bool {
	return c.Database.DSN == ""
}

func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.TTL) * time.Minute
}

func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.JWT.RefreshTTL) * time.Hour
}

func (c *Config) RequestTTL() time.Duration {
	return time.Duration(c.Booking.RequestTTLHours) * time.Hour
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
