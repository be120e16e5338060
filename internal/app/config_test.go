package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "session")
	t.Setenv("CSRF_SECRET", "csrf")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, int64(1), cfg.ManagerPostID)
	assert.Equal(t, int64(2), cfg.AssistantPostID)
	assert.Equal(t, time.Minute, cfg.SnapshotRetryDelay)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("MANAGER_POST_ID", "7")
	t.Setenv("ASSISTANT_POST_ID", "9")
	t.Setenv("SNAPSHOT_RETRY_DELAY", "5m")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, int64(7), cfg.ManagerPostID)
	assert.Equal(t, int64(9), cfg.AssistantPostID)
	assert.Equal(t, 5*time.Minute, cfg.SnapshotRetryDelay)
}

func TestLoadConfigRejectsSamePostIDs(t *testing.T) {
	setRequired(t)
	t.Setenv("MANAGER_POST_ID", "3")
	t.Setenv("ASSISTANT_POST_ID", "3")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRequiresSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("CSRF_SECRET", "")
	_, err := LoadConfig()
	assert.Error(t, err)
}
