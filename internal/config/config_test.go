package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("LOYVERSE_API_TOKEN", "tok_test")
	t.Setenv("WEBHOOK_URL", "https://hook.example.com/abc")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultLoyverseURL, cfg.LoyverseAPIURL)
	assert.Equal(t, DefaultSchedule, cfg.CheckSchedule)
	assert.Equal(t, 3000, cfg.APIPort)
	assert.Equal(t, 30*time.Second, cfg.LoyverseTimeout)
	assert.Equal(t, 10*time.Second, cfg.WebhookTimeout)
	assert.False(t, cfg.CheckOnStart)
	assert.False(t, cfg.JournalEnabled())
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "8081")
	t.Setenv("CHECK_SCHEDULE", "*/5 * * * *")
	t.Setenv("WEBHOOK_TIMEOUT", "3s")
	t.Setenv("LOYVERSE_TIMEOUT", "12")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("DATABASE_URL", "postgres://localhost/pointsync")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.APIPort)
	assert.Equal(t, "*/5 * * * *", cfg.CheckSchedule)
	assert.Equal(t, 3*time.Second, cfg.WebhookTimeout)
	assert.Equal(t, 12*time.Second, cfg.LoyverseTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigins)
	assert.True(t, cfg.JournalEnabled())
	assert.Equal(t, "production", cfg.Environment)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("LOYVERSE_API_TOKEN", "")
	t.Setenv("WEBHOOK_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOYVERSE_API_TOKEN")
	assert.Contains(t, err.Error(), "WEBHOOK_URL")
}

func TestLoadInvalidSchedule(t *testing.T) {
	setRequired(t)
	t.Setenv("CHECK_SCHEDULE", "every minute")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHECK_SCHEDULE")
}

func TestEnvIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("POINTSYNC_TEST_INT", "abc")
	assert.Equal(t, 7, envInt("POINTSYNC_TEST_INT", 7))
}

func TestReadSkipsValidation(t *testing.T) {
	t.Setenv("LOYVERSE_API_TOKEN", "")
	t.Setenv("WEBHOOK_URL", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/pointsync")

	cfg := Read()
	assert.NoError(t, cfg.ValidateDatabase())
	assert.Error(t, cfg.ValidateSource())
	assert.Error(t, cfg.ValidateWebhook())
}

func TestValidateDatabase(t *testing.T) {
	err := (&Config{}).ValidateDatabase()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
