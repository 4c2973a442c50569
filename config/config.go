package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the service configuration loaded by LoadConfig.
type Config struct {
	ServerPort        string
	LogLevel          string
	LogFormat         string
	TesseractDataPath string
	MaxFileSize       int64
	DatabaseDSN       string

	OpenAI   OpenAIConfig
	Redis    RedisConfig
	Retry    RetryConfig
	Progress ProgressConfig
}

// OpenAIConfig configures the vision model client.
type OpenAIConfig struct {
	APIKey            string
	Model             string
	BaseURL           string
	Timeout           time.Duration
	MaxTokens         int
	FollowUpMaxTokens int
}

// RedisConfig locates the progress store. An empty Address keeps progress in memory.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// RetryConfig tunes OCR retries.
type RetryConfig struct {
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Strategies    []string
}

// ProgressConfig tunes progress persistence and live wizard sessions.
type ProgressConfig struct {
	RetentionDays        int
	CompressionThreshold int
	DebounceDelay        time.Duration
	AutoSaveInterval     time.Duration
	Version              string
	// Live sessions idle longer than SessionIdleTimeout are flushed and
	// released from memory; the sweep runs every SessionSweepInterval.
	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration
}

// AIEnabled reports whether credentials for the vision model are configured.
func (c *Config) AIEnabled() bool {
	return strings.TrimSpace(c.OpenAI.APIKey) != ""
}

// LoadConfig reads configuration from the environment, optionally seeded by a
// .env file in the working directory.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		ServerPort:        v.GetString("SERVER_PORT"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogFormat:         v.GetString("LOG_FORMAT"),
		TesseractDataPath: v.GetString("TESSDATA_PREFIX"),
		MaxFileSize:       v.GetInt64("MAX_FILE_SIZE"),
		DatabaseDSN:       v.GetString("DATABASE_DSN"),
		OpenAI: OpenAIConfig{
			APIKey:            v.GetString("OPENAI_API_KEY"),
			Model:             v.GetString("OPENAI_MODEL"),
			BaseURL:           v.GetString("OPENAI_BASE_URL"),
			Timeout:           v.GetDuration("OCR_HTTP_TIMEOUT"),
			MaxTokens:         v.GetInt("OCR_MAX_TOKENS"),
			FollowUpMaxTokens: v.GetInt("OCR_FOLLOWUP_MAX_TOKENS"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("REDIS_ADDRESS"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Retry: RetryConfig{
			MaxRetries:    v.GetInt("RETRY_MAX_RETRIES"),
			BaseDelay:     v.GetDuration("RETRY_BASE_DELAY"),
			MaxDelay:      v.GetDuration("RETRY_MAX_DELAY"),
			BackoffFactor: v.GetFloat64("RETRY_BACKOFF_FACTOR"),
			Strategies:    splitList(v.GetString("RETRY_STRATEGIES")),
		},
		Progress: ProgressConfig{
			RetentionDays:        v.GetInt("PROGRESS_RETENTION_DAYS"),
			CompressionThreshold: v.GetInt("PROGRESS_COMPRESSION_THRESHOLD"),
			DebounceDelay:        v.GetDuration("PROGRESS_DEBOUNCE_DELAY"),
			AutoSaveInterval:     v.GetDuration("PROGRESS_AUTOSAVE_INTERVAL"),
			Version:              v.GetString("PROGRESS_VERSION"),
			SessionIdleTimeout:   v.GetDuration("PROGRESS_SESSION_IDLE_TIMEOUT"),
			SessionSweepInterval: v.GetDuration("PROGRESS_SESSION_SWEEP_INTERVAL"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("TESSDATA_PREFIX", "/usr/share/tesseract-ocr/5/tessdata/")
	v.SetDefault("MAX_FILE_SIZE", 10*1024*1024) // 10 MB
	v.SetDefault("DATABASE_DSN", "")

	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", "gpt-4o")
	v.SetDefault("OPENAI_BASE_URL", "")
	v.SetDefault("OCR_HTTP_TIMEOUT", "60s")
	v.SetDefault("OCR_MAX_TOKENS", 1000)
	v.SetDefault("OCR_FOLLOWUP_MAX_TOKENS", 50)

	v.SetDefault("REDIS_ADDRESS", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("RETRY_MAX_RETRIES", 3)
	v.SetDefault("RETRY_BASE_DELAY", "1s")
	v.SetDefault("RETRY_MAX_DELAY", "8s")
	v.SetDefault("RETRY_BACKOFF_FACTOR", 2.0)
	v.SetDefault("RETRY_STRATEGIES", "retry,enhance,fallback")

	v.SetDefault("PROGRESS_RETENTION_DAYS", 7)
	v.SetDefault("PROGRESS_COMPRESSION_THRESHOLD", 8*1024)
	v.SetDefault("PROGRESS_DEBOUNCE_DELAY", "2s")
	v.SetDefault("PROGRESS_AUTOSAVE_INTERVAL", "30s")
	v.SetDefault("PROGRESS_VERSION", "1.0")
	v.SetDefault("PROGRESS_SESSION_IDLE_TIMEOUT", "30m")
	v.SetDefault("PROGRESS_SESSION_SWEEP_INTERVAL", "1m")
}

func validate(cfg *Config) error {
	if cfg.Retry.MaxRetries < 0 {
		return fmt.Errorf("RETRY_MAX_RETRIES must be >= 0, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.BackoffFactor < 1 {
		return fmt.Errorf("RETRY_BACKOFF_FACTOR must be >= 1, got %v", cfg.Retry.BackoffFactor)
	}
	if cfg.Retry.BaseDelay > cfg.Retry.MaxDelay {
		return fmt.Errorf("RETRY_BASE_DELAY (%s) exceeds RETRY_MAX_DELAY (%s)", cfg.Retry.BaseDelay, cfg.Retry.MaxDelay)
	}
	if cfg.Progress.RetentionDays <= 0 {
		return fmt.Errorf("PROGRESS_RETENTION_DAYS must be positive")
	}
	if cfg.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}
