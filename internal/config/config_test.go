package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FUNDSCORE_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, 6*time.Hour, cfg.ScoreCacheTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FUNDSCORE_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("SCORING_WORKERS", "4")
	t.Setenv("SCORE_CACHE_ENABLED", "false")
	t.Setenv("SCORE_CACHE_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 4, cfg.Workers)
	assert.False(t, cfg.CacheEnabled)
	assert.Equal(t, 30*time.Minute, cfg.ScoreCacheTTL)
}

func TestValidate_RejectsBadWorkerCount(t *testing.T) {
	t.Setenv("FUNDSCORE_DATA_DIR", t.TempDir())
	t.Setenv("SCORING_WORKERS", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabasePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FUNDSCORE_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.DatabasePath("universe"), "universe.db")
}
