package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxFileSize)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 8*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, 2.0, cfg.Retry.BackoffFactor)
	assert.Equal(t, []string{"retry", "enhance", "fallback"}, cfg.Retry.Strategies)
	assert.Equal(t, 7, cfg.Progress.RetentionDays)
	assert.Equal(t, 2*time.Second, cfg.Progress.DebounceDelay)
	assert.Equal(t, 30*time.Minute, cfg.Progress.SessionIdleTimeout)
	assert.Equal(t, time.Minute, cfg.Progress.SessionSweepInterval)
	assert.False(t, cfg.AIEnabled())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("RETRY_MAX_RETRIES", "5")
	t.Setenv("RETRY_STRATEGIES", "retry, Fallback")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.True(t, cfg.AIEnabled())
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, []string{"retry", "fallback"}, cfg.Retry.Strategies)
}

func TestLoadConfigRejectsBadBackoff(t *testing.T) {
	t.Setenv("RETRY_BACKOFF_FACTOR", "0.5")

	_, err := LoadConfig()
	assert.Error(t, err)
}
