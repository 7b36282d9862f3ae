package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("REFERENCE_BASE_URL", "http://masterdata.local")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, 50, cfg.FetchBatchSize)
	assert.Equal(t, 8, cfg.HydrationConcurrency)
	assert.Equal(t, 6*time.Hour, cfg.ReferenceCacheTTL)
	assert.Equal(t, "*/30 * * * *", cfg.WarmupCron)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigRequiresReferenceURL(t *testing.T) {
	t.Setenv("REFERENCE_BASE_URL", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsNonPositiveBatch(t *testing.T) {
	t.Setenv("REFERENCE_BASE_URL", "http://masterdata.local")
	t.Setenv("FETCH_BATCH_SIZE", "0")

	_, err := LoadConfig()
	assert.EqualError(t, err, "fetch batch size must be positive")
}

func TestIsProduction(t *testing.T) {
	assert.True(t, (&Config{AppEnv: "production"}).IsProduction())
	var nilCfg *Config
	assert.False(t, nilCfg.IsProduction())
}
