package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

var conf = mustLoad()

type Config struct {
	Configuration struct {
		// Upload limits
		MaxFileSizeMB int `envconfig:"MAX_FILE_SIZE_MB" default:"10"`
		MaxBatchSize  int `envconfig:"MAX_BATCH_SIZE" default:"10"`

		// Response cache (in-memory, LRU + TTL)
		CacheCapacity               int `envconfig:"CACHE_CAPACITY" default:"1000"`
		CacheTTLInSeconds           int `envconfig:"CACHE_TTL_IN_SECONDS" default:"3600"`
		CacheSweepIntervalInSeconds int `envconfig:"CACHE_SWEEP_INTERVAL_IN_SECONDS" default:"300"`

		// OCR engine selection: "tesseract" (local) or "remote"
		OCREngine           string `envconfig:"OCR_ENGINE" default:"tesseract"`
		OCRTimeoutInSeconds int    `envconfig:"OCR_TIMEOUT_IN_SECONDS" default:"30"`
		RemoteOCRBaseURL    string `envconfig:"REMOTE_OCR_BASE_URL" default:""`
		RemoteOCRAPIKey     string `envconfig:"REMOTE_OCR_API_KEY" default:""`

		// Rate limiting (two tiers: fresh work, then cache-only)
		RateLimitPerSecond        int `envconfig:"RATE_LIMIT_PER_SECOND" default:"2"`
		RateLimitBurstLimit       int `envconfig:"RATE_LIMIT_BURST_LIMIT" default:"5"`
		CachedRateLimitPerSecond  int `envconfig:"CACHED_RATE_LIMIT_PER_SECOND" default:"10"`
		CachedRateLimitBurstLimit int `envconfig:"CACHED_RATE_LIMIT_BURST_LIMIT" default:"20"`

		// Circuit breaker for the OCR engine
		CircuitBreakerThreshold    int `envconfig:"CIRCUIT_BREAKER_THRESHOLD" default:"5"`
		CircuitBreakerCooldownSecs int `envconfig:"CIRCUIT_BREAKER_COOLDOWN_SECS" default:"300"`

		// Admin endpoints (/stats, /cache, /cache/clear) require this token
		AccessToken string `envconfig:"ACCESS_TOKEN" default:""`
		// API key that bypasses rate limiting when set
		APIKey string `envconfig:"API_KEY" default:""`
		// When true, extraction endpoints require the API key
		APIKeyRequired bool `envconfig:"API_KEY_REQUIRED" default:"false"`

		// Stats persistence
		StatsDBPath               string `envconfig:"STATS_DB_PATH" default:"/data/stats.db"`
		StatsAutoSaveIntervalSecs int    `envconfig:"STATS_AUTOSAVE_INTERVAL_SECS" default:"60"`

		// CORS
		AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
	}

	FeatureFlags struct {
		CacheCompression bool `envconfig:"FF_CACHE_COMPRESSION" default:"true"`
	}
}

// MaxFileSizeBytes returns the upload ceiling in bytes.
func (c Config) MaxFileSizeBytes() int64 {
	return int64(c.Configuration.MaxFileSizeMB) * 1024 * 1024
}

// CacheTTL returns the cache TTL as a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Configuration.CacheTTLInSeconds) * time.Second
}

// CacheSweepInterval returns the background sweep interval as a duration.
func (c Config) CacheSweepInterval() time.Duration {
	return time.Duration(c.Configuration.CacheSweepIntervalInSeconds) * time.Second
}

// OCRTimeout returns the per-call OCR engine timeout.
func (c Config) OCRTimeout() time.Duration {
	return time.Duration(c.Configuration.OCRTimeoutInSeconds) * time.Second
}

// load loads the configuration from the environment.
func load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Warnf("Error loading env config: %v", err)
	}

	cfg := Config{}
	err = envconfig.Process("", &cfg)
	return cfg, err
}

func mustLoad() Config {
	c, err := load()
	if err != nil {
		log.WithError(err).Warnf("Unable to load configuration")
	}

	return c
}

func Get() Config {
	return conf
}
