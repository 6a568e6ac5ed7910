package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load()
	if err != nil {
		t.Fatalf("load() failed: %v", err)
	}

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"MaxFileSizeMB", cfg.Configuration.MaxFileSizeMB, 10},
		{"MaxBatchSize", cfg.Configuration.MaxBatchSize, 10},
		{"CacheCapacity", cfg.Configuration.CacheCapacity, 1000},
		{"CacheTTLInSeconds", cfg.Configuration.CacheTTLInSeconds, 3600},
		{"CacheSweepIntervalInSeconds", cfg.Configuration.CacheSweepIntervalInSeconds, 300},
		{"OCREngine", cfg.Configuration.OCREngine, "tesseract"},
		{"OCRTimeoutInSeconds", cfg.Configuration.OCRTimeoutInSeconds, 30},
		{"RateLimitPerSecond", cfg.Configuration.RateLimitPerSecond, 2},
		{"RateLimitBurstLimit", cfg.Configuration.RateLimitBurstLimit, 5},
		{"CachedRateLimitPerSecond", cfg.Configuration.CachedRateLimitPerSecond, 10},
		{"CachedRateLimitBurstLimit", cfg.Configuration.CachedRateLimitBurstLimit, 20},
		{"CircuitBreakerThreshold", cfg.Configuration.CircuitBreakerThreshold, 5},
		{"CircuitBreakerCooldownSecs", cfg.Configuration.CircuitBreakerCooldownSecs, 300},
		{"StatsDBPath", cfg.Configuration.StatsDBPath, "/data/stats.db"},
		{"CacheCompression", cfg.FeatureFlags.CacheCompression, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, tt.got)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	envVars := map[string]string{
		"MAX_FILE_SIZE_MB":     "25",
		"MAX_BATCH_SIZE":       "4",
		"CACHE_CAPACITY":       "50",
		"CACHE_TTL_IN_SECONDS": "120",
		"OCR_ENGINE":           "remote",
		"REMOTE_OCR_BASE_URL":  "https://ocr.example.com",
		"FF_CACHE_COMPRESSION": "false",
	}

	saved := map[string]string{}
	for k, v := range envVars {
		saved[k] = os.Getenv(k)
		os.Setenv(k, v)
	}
	defer func() {
		for k, v := range saved {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	cfg, err := load()
	if err != nil {
		t.Fatalf("load() failed: %v", err)
	}

	if cfg.Configuration.MaxFileSizeMB != 25 {
		t.Errorf("Expected MaxFileSizeMB 25, got %d", cfg.Configuration.MaxFileSizeMB)
	}
	if cfg.Configuration.MaxBatchSize != 4 {
		t.Errorf("Expected MaxBatchSize 4, got %d", cfg.Configuration.MaxBatchSize)
	}
	if cfg.Configuration.CacheCapacity != 50 {
		t.Errorf("Expected CacheCapacity 50, got %d", cfg.Configuration.CacheCapacity)
	}
	if cfg.Configuration.CacheTTLInSeconds != 120 {
		t.Errorf("Expected CacheTTLInSeconds 120, got %d", cfg.Configuration.CacheTTLInSeconds)
	}
	if cfg.Configuration.OCREngine != "remote" {
		t.Errorf("Expected OCREngine remote, got %s", cfg.Configuration.OCREngine)
	}
	if cfg.Configuration.RemoteOCRBaseURL != "https://ocr.example.com" {
		t.Errorf("Expected RemoteOCRBaseURL set, got %s", cfg.Configuration.RemoteOCRBaseURL)
	}
	if cfg.FeatureFlags.CacheCompression {
		t.Error("Expected CacheCompression disabled")
	}
}

func TestDerivedValues(t *testing.T) {
	cfg, err := load()
	if err != nil {
		t.Fatalf("load() failed: %v", err)
	}

	if cfg.MaxFileSizeBytes() != int64(cfg.Configuration.MaxFileSizeMB)*1024*1024 {
		t.Errorf("MaxFileSizeBytes mismatch: %d", cfg.MaxFileSizeBytes())
	}
	if cfg.CacheTTL().Seconds() != float64(cfg.Configuration.CacheTTLInSeconds) {
		t.Errorf("CacheTTL mismatch: %v", cfg.CacheTTL())
	}
	if cfg.CacheSweepInterval().Seconds() != float64(cfg.Configuration.CacheSweepIntervalInSeconds) {
		t.Errorf("CacheSweepInterval mismatch: %v", cfg.CacheSweepInterval())
	}
	if cfg.OCRTimeout().Seconds() != float64(cfg.Configuration.OCRTimeoutInSeconds) {
		t.Errorf("OCRTimeout mismatch: %v", cfg.OCRTimeout())
	}
}
