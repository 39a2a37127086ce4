package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("REDIS_HOST", "")
	t.Setenv("SEED_ENABLED", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.PDF.Timeout)
	assert.Equal(t, "ar", cfg.PDF.DefaultLanguage)
	assert.Equal(t, int64(5*1024*1024), cfg.Branding.MaxSize)
	assert.Equal(t, "kyc:approval-events", cfg.Redis.Channel)
	assert.False(t, cfg.Redis.Enabled())
	assert.True(t, cfg.Seed.Enabled)
	assert.Equal(t, "Asia/Riyadh", cfg.Seed.Timezone)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("SEED_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.True(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Seed.Enabled)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal port=6543")
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("KYC_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnvOrDefault("KYC_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnvOrDefault("KYC_TEST_MISSING", "fallback"))
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })
}
