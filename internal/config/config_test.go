package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:5052", cfg.Server.Addr())
	assert.Equal(t, "usd", cfg.Provider.Currency)
	assert.Equal(t, "session_id", cfg.Gate.SessionParam)
	assert.Equal(t, "fg_session", cfg.Gate.CookieName)
	assert.Equal(t, 10*time.Second, cfg.Gate.VerifyTimeout)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 5*time.Second, cfg.Snapshot.SettleDelay)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CHECKOUT_CURRENCY", "eur")
	t.Setenv("GATE_VERIFY_TIMEOUT", "3s")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("EMAIL_MOCK_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "eur", cfg.Provider.Currency)
	assert.Equal(t, 3*time.Second, cfg.Gate.VerifyTimeout)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.True(t, cfg.Email.MockMode)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-number")
	t.Setenv("GATE_VERIFY_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 10*time.Second, cfg.Gate.VerifyTimeout)
}

func TestRequireProvider(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireProvider())

	cfg.Provider.SecretKey = "sk_test_123"
	assert.NoError(t, cfg.RequireProvider())
}

func TestRequireSMTP(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireSMTP())

	cfg.SMTP.Host = "smtp.example.org"
	cfg.SMTP.Recipient = "results@example.org"
	assert.NoError(t, cfg.RequireSMTP())
}
