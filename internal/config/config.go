// Package config provides configuration management for the content pipeline.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full process configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Logging   LoggingConfig
	Pipeline  PipelineConfig
	RateLimit RateLimitConfig
	Retry     RetryConfig
	Reconcile ReconcileConfig
}

// ServerConfig holds worker-process level configuration.
type ServerConfig struct {
	Concurrency     int // number of queue messages processed at once
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds relational store configuration.
type DatabaseConfig struct {
	URL             string
	MaxConnections  int
	MinConnections  int
	MaxIdleTime     time.Duration
	MaxConnLifetime time.Duration
}

// RedisConfig holds configuration for the distributed rate limiter backend.
type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string // debug|info|warn|error
	Format string // json|text
}

// CompletenessFloorPolicy controls what happens when a payload scores
// below its floor at persistence time. See spec §4.10 and the Open
// Question decision recorded in SPEC_FULL.md.
type CompletenessFloorPolicy string

const (
	// CompletenessFloorRetry re-synthesizes once against the same research
	// bundle; no further research is gathered for the retry.
	CompletenessFloorRetry CompletenessFloorPolicy = "retry"
	// CompletenessFloorDraft persists with status=draft and an event.
	CompletenessFloorDraft CompletenessFloorPolicy = "draft"
)

// PipelineConfig holds the workflow-level policy knobs from spec §6.
type PipelineConfig struct {
	DuplicateLookbackDays     int
	CompletenessFloorArticle  int
	CompletenessFloorCompany  int
	MinConfidenceForPublish   float64
	RescrapeOnLowConfidence   bool
	MaxReresearchAttempts     int
	ImageCountArticle         int
	ImageCountCompany         int
	CompletenessFloorPolicy   CompletenessFloorPolicy
	SkipGraphSyncSkipsContext bool // not read by any phase; P3 runs regardless of skip_graph_sync

	MaxPhaseParallelism int // bounds concurrent phases within one DAG wave
	CrawlConcurrency    int // bounds the P2/P2' crawl sub-fanout
	SearchGeo           string
	SearchTimeWindow    string
}

// RateLimitConfig holds a token-bucket rate per named adapter.
type RateLimitConfig struct {
	PerAdapter map[string]AdapterRateLimit
}

// AdapterRateLimit is a token-bucket specification for one adapter.
type AdapterRateLimit struct {
	RatePerSecond float64
	Burst         int
}

// RetryConfig holds the default activity retry policy (spec §4.1).
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// ReconcileConfig controls the spec §4.9 scheduled reconciliation pass
// that retries graph syncs left pending by a soft-skip.
type ReconcileConfig struct {
	Enabled    bool
	CronSpec   string // standard 6-field (seconds-enabled) cron expression
	BatchSize  int
	JobTimeout time.Duration
}

// Load builds a Config from the environment (and an optional .env file).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Concurrency:     getEnvInt("PIPELINE_CONCURRENCY", 10),
			ShutdownTimeout: getEnvDuration("PIPELINE_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", "postgres://localhost:5432/quest_content?sslmode=disable"),
			MaxConnections:  getEnvInt("DATABASE_MAX_CONNECTIONS", 20),
			MinConnections:  getEnvInt("DATABASE_MIN_CONNECTIONS", 2),
			MaxIdleTime:     getEnvDuration("DATABASE_MAX_IDLE_TIME", 5*time.Minute),
			MaxConnLifetime: getEnvDuration("DATABASE_MAX_CONN_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Pipeline: PipelineConfig{
			DuplicateLookbackDays:     getEnvInt("DUPLICATE_LOOKBACK_DAYS", 7),
			CompletenessFloorArticle:  getEnvInt("COMPLETENESS_FLOOR_ARTICLE", 60),
			CompletenessFloorCompany: getEnvInt("COMPLETENESS_FLOOR_COMPANY", 50),
			MinConfidenceForPublish:   getEnvFloat("MIN_CONFIDENCE_FOR_PUBLISH", 0.70),
			RescrapeOnLowConfidence:   getEnvBool("RESCRAPE_ON_LOW_CONFIDENCE", true),
			MaxReresearchAttempts:     getEnvInt("MAX_RERESEARCH_ATTEMPTS", 1),
			ImageCountArticle:         getEnvInt("IMAGE_COUNT_ARTICLE", 7),
			ImageCountCompany:         getEnvInt("IMAGE_COUNT_COMPANY", 2),
			CompletenessFloorPolicy:   CompletenessFloorPolicy(getEnv("COMPLETENESS_FLOOR_POLICY", string(CompletenessFloorDraft))),
			SkipGraphSyncSkipsContext: getEnvBool("SKIP_GRAPH_SYNC_SKIPS_CONTEXT", true),
			MaxPhaseParallelism:       getEnvInt("MAX_PHASE_PARALLELISM", 4),
			CrawlConcurrency:          getEnvInt("CRAWL_CONCURRENCY", 5),
			SearchGeo:                 getEnv("SEARCH_GEO", "us"),
			SearchTimeWindow:          getEnv("SEARCH_TIME_WINDOW", "30d"),
		},
		RateLimit: RateLimitConfig{
			PerAdapter: map[string]AdapterRateLimit{
				"news_search":   {RatePerSecond: getEnvFloat("RATE_LIMIT_NEWS_SEARCH", 5), Burst: getEnvInt("RATE_LIMIT_NEWS_SEARCH_BURST", 10)},
				"deep_research": {RatePerSecond: getEnvFloat("RATE_LIMIT_DEEP_RESEARCH", 2), Burst: getEnvInt("RATE_LIMIT_DEEP_RESEARCH_BURST", 4)},
				"crawler":       {RatePerSecond: getEnvFloat("RATE_LIMIT_CRAWLER", 5), Burst: getEnvInt("RATE_LIMIT_CRAWLER_BURST", 10)},
				"llm_complete":  {RatePerSecond: getEnvFloat("RATE_LIMIT_LLM", 3), Burst: getEnvInt("RATE_LIMIT_LLM_BURST", 6)},
				"image_generate": {RatePerSecond: getEnvFloat("RATE_LIMIT_IMAGE", 1), Burst: getEnvInt("RATE_LIMIT_IMAGE_BURST", 3)},
				"store_upsert":  {RatePerSecond: getEnvFloat("RATE_LIMIT_STORE", 20), Burst: getEnvInt("RATE_LIMIT_STORE_BURST", 40)},
				"graph_upsert":  {RatePerSecond: getEnvFloat("RATE_LIMIT_GRAPH", 5), Burst: getEnvInt("RATE_LIMIT_GRAPH_BURST", 10)},
				"url_validate":  {RatePerSecond: getEnvFloat("RATE_LIMIT_URL_VALIDATE", 10), Burst: getEnvInt("RATE_LIMIT_URL_VALIDATE_BURST", 20)},
			},
		},
		Retry: RetryConfig{
			MaxAttempts: getEnvInt("RETRY_MAX_ATTEMPTS", 3),
			BaseDelay:   getEnvDuration("RETRY_BASE_MS", time.Second),
			MaxDelay:    getEnvDuration("RETRY_MAX_MS", 60*time.Second),
		},
		Reconcile: ReconcileConfig{
			Enabled:    getEnvBool("RECONCILE_ENABLED", true),
			CronSpec:   getEnv("RECONCILE_CRON_SPEC", "0 */15 * * * *"),
			BatchSize:  getEnvInt("RECONCILE_BATCH_SIZE", 50),
			JobTimeout: getEnvDuration("RECONCILE_JOB_TIMEOUT", 5*time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Pipeline.CompletenessFloorPolicy != CompletenessFloorRetry && c.Pipeline.CompletenessFloorPolicy != CompletenessFloorDraft {
		return fmt.Errorf("invalid completeness floor policy: %s", c.Pipeline.CompletenessFloorPolicy)
	}
	if c.Pipeline.MaxReresearchAttempts < 0 || c.Pipeline.MaxReresearchAttempts > 1 {
		return fmt.Errorf("max_reresearch_attempts must be 0 or 1, got %d", c.Pipeline.MaxReresearchAttempts)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
