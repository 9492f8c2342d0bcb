package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WATCHLIST", "")
	t.Setenv("WATCHLIST_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultWatchlist, cfg.Analysis.Watchlist)
	assert.Equal(t, int64(500_000_000_000), cfg.Analysis.MarketCapThreshold)
	assert.Equal(t, 365, cfg.Analysis.ROIWindowDays)
	assert.Equal(t, 5, cfg.Analysis.TopN)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoadWatchlistFromEnv(t *testing.T) {
	t.Setenv("WATCHLIST", " aapl, MSFT ,,aapl,nvda")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA"}, cfg.Analysis.Watchlist)
}

func TestLoadWatchlistFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbols:\n  - tsm\n  - V\n  - JPM\n"), 0o600))

	t.Setenv("WATCHLIST", "")
	t.Setenv("WATCHLIST_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"TSM", "V", "JPM"}, cfg.Analysis.Watchlist)
}

func TestLoadWatchlistFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadWatchlistFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read watchlist file")
	})

	t.Run("empty list", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("symbols: []\n"), 0o600))

		_, err := LoadWatchlistFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "has no symbols")
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MARKET_CAP_THRESHOLD", "1000")
	t.Setenv("TOP_N", "3")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_TTL", "30s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("DB_USER", "svc")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_NAME", "roi")
	t.Setenv("DB_SSLMODE", "require")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(1000), cfg.Analysis.MarketCapThreshold)
	assert.Equal(t, 3, cfg.Analysis.TopN)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "postgres://svc:secret@db:5433/roi?sslmode=require", cfg.Database.ConnectionString())
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("TOP_N", "lots")
	t.Setenv("SCHEDULER_ENABLED", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Analysis.TopN)
	assert.True(t, cfg.Scheduler.Enabled)
}
