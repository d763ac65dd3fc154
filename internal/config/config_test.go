package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("jwt:\n  secret: s\nbooking:\n  currency: EUR\n"))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Server.Env)
	assert.True(t, cfg.UsesMemoryStore())
	assert.Equal(t, "mock", cfg.Payments.Provider)
	assert.Equal(t, "log", cfg.Email.Provider)
	assert.Equal(t, "memory", cfg.Events.Driver)
	assert.Equal(t, "eur", cfg.Booking.Currency)
	assert.Equal(t, 25, cfg.Booking.DepositPercent)
	assert.Equal(t, 72*time.Hour, cfg.RequestTTL())
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL())
	assert.Equal(t, 1600, cfg.Upload.MaxPhotoSide)
}

func TestParse_ProviderInference(t *testing.T) {
	cfg, err := Parse([]byte("payments:\n  stripe_secret_key: sk_test_1\nemail:\n  sendgrid_api_key: SG.x\n"))
	require.NoError(t, err)
	assert.Equal(t, "stripe", cfg.Payments.Provider)
	assert.Equal(t, "sendgrid", cfg.Email.Provider)
	assert.NotEmpty(t, cfg.JWT.Secret, "development gets a fallback secret")
}

func TestValidate_Problems(t *testing.T) {
	for name, yaml := range map[string]string{
		"production without secret": "server:\n  env: production\n",
		"deposit out of range":      "booking:\n  deposit_percent: 150\n",
		"stripe without key":        "payments:\n  provider: stripe\n",
		"amqp without url":          "events:\n  driver: amqp\n",
		"unknown storage":           "storage:\n  type: ftp\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 5000\njwt:\n  secret: from-file\n"), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("DATABASE_URL", "postgres://localhost/eventhire")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 5000, cfg.Server.Port, "unparseable ints are ignored")
	assert.False(t, cfg.UsesMemoryStore())
}

func TestLoadConfig_MissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("JWT_SECRET", "env-only")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "env-only", cfg.JWT.Secret)
	assert.Equal(t, 4000, cfg.Server.Port)
}
