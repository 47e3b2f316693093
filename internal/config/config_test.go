package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv() {
	envVars := []string{
		"PIPELINE_CONCURRENCY", "PIPELINE_SHUTDOWN_TIMEOUT",
		"DATABASE_URL", "DATABASE_MAX_CONNECTIONS", "DATABASE_MIN_CONNECTIONS",
		"DATABASE_MAX_IDLE_TIME", "DATABASE_MAX_CONN_LIFETIME",
		"REDIS_URL", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
		"LOG_LEVEL", "LOG_FORMAT",
		"DUPLICATE_LOOKBACK_DAYS", "COMPLETENESS_FLOOR_ARTICLE", "COMPLETENESS_FLOOR_COMPANY",
		"MIN_CONFIDENCE_FOR_PUBLISH", "RESCRAPE_ON_LOW_CONFIDENCE", "MAX_RERESEARCH_ATTEMPTS",
		"IMAGE_COUNT_ARTICLE", "IMAGE_COUNT_COMPANY", "COMPLETENESS_FLOOR_POLICY",
		"SKIP_GRAPH_SYNC_SKIPS_CONTEXT",
		"RETRY_MAX_ATTEMPTS", "RETRY_BASE_MS", "RETRY_MAX_MS",
		"RECONCILE_ENABLED", "RECONCILE_CRON_SPEC", "RECONCILE_BATCH_SIZE", "RECONCILE_JOB_TIMEOUT",
	}
	for _, key := range envVars {
		os.Unsetenv(key)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 10, cfg.Server.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, 20, cfg.Database.MaxConnections)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.Equal(t, 7, cfg.Pipeline.DuplicateLookbackDays)
	assert.Equal(t, 60, cfg.Pipeline.CompletenessFloorArticle)
	assert.Equal(t, 50, cfg.Pipeline.CompletenessFloorCompany)
	assert.InDelta(t, 0.70, cfg.Pipeline.MinConfidenceForPublish, 0.0001)
	assert.True(t, cfg.Pipeline.RescrapeOnLowConfidence)
	assert.Equal(t, 1, cfg.Pipeline.MaxReresearchAttempts)
	assert.Equal(t, 7, cfg.Pipeline.ImageCountArticle)
	assert.Equal(t, 2, cfg.Pipeline.ImageCountCompany)
	assert.Equal(t, CompletenessFloorDraft, cfg.Pipeline.CompletenessFloorPolicy)

	newsSearch, ok := cfg.RateLimit.PerAdapter["news_search"]
	require.True(t, ok)
	assert.InDelta(t, 5.0, newsSearch.RatePerSecond, 0.0001)

	assert.True(t, cfg.Reconcile.Enabled)
	assert.Equal(t, "0 */15 * * * *", cfg.Reconcile.CronSpec)
	assert.Equal(t, 50, cfg.Reconcile.BatchSize)
	assert.Equal(t, 5*time.Minute, cfg.Reconcile.JobTimeout)
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv()
	defer clearEnv()

	os.Setenv("PIPELINE_CONCURRENCY", "25")
	os.Setenv("COMPLETENESS_FLOOR_ARTICLE", "70")
	os.Setenv("COMPLETENESS_FLOOR_POLICY", "retry")
	os.Setenv("MAX_RERESEARCH_ATTEMPTS", "0")
	os.Setenv("RECONCILE_ENABLED", "false")
	os.Setenv("RECONCILE_CRON_SPEC", "0 0 * * * *")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Server.Concurrency)
	assert.Equal(t, 70, cfg.Pipeline.CompletenessFloorArticle)
	assert.Equal(t, CompletenessFloorRetry, cfg.Pipeline.CompletenessFloorPolicy)
	assert.Equal(t, 0, cfg.Pipeline.MaxReresearchAttempts)
	assert.False(t, cfg.Reconcile.Enabled)
	assert.Equal(t, "0 0 * * * *", cfg.Reconcile.CronSpec)
}

func TestLoad_RejectsInvalidCompletenessFloorPolicy(t *testing.T) {
	clearEnv()
	defer clearEnv()

	os.Setenv("COMPLETENESS_FLOOR_POLICY", "bogus")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsOutOfRangeReresearchAttempts(t *testing.T) {
	clearEnv()
	defer clearEnv()

	os.Setenv("MAX_RERESEARCH_ATTEMPTS", "2")

	_, err := Load()
	assert.Error(t, err)
}
