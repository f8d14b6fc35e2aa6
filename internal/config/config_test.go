package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SMTP_TIMEOUT_SECONDS", "")
	t.Setenv("SKIP_AUTH", "true")
	t.Setenv("MONGO_TRANSACTIONS", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.SkipAuth)
	assert.False(t, cfg.MongoTransactions)
	assert.Equal(t, 15*time.Second, cfg.SMTPTimeout, "invalid integer falls back")
	assert.Equal(t, 1025, cfg.SMTPLocalTestPort)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SMTP_TIMEOUT_SECONDS", "3")
	t.Setenv("SMTP_LOCAL_TEST_PORT", "2525")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CONSISTENCY_SWEEP_SCHEDULE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.SMTPTimeout)
	assert.Equal(t, 2525, cfg.SMTPLocalTestPort)
	assert.True(t, cfg.IsProduction())
	assert.Empty(t, cfg.ConsistencySweepSchedule, "set but empty disables the sweep")
}
