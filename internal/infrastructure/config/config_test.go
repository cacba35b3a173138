package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RISKD_DATABASE_URL", "postgres://localhost/riskd_test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/riskd_test", cfg.Database.URL)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 30*time.Second, cfg.Advisory.Timeout)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RISKD_DATABASE_URL", "postgres://localhost/riskd_test")
	t.Setenv("RISKD_LOG_LEVEL", "debug")
	t.Setenv("RISKD_ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "production", cfg.Environment)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("RISKD_DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}
