package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Prediction PredictionConfig `yaml:"prediction"`
	Forms      FormsConfig      `yaml:"forms"`
	History    HistoryConfig    `yaml:"history"`
	Storage    StorageConfig    `yaml:"storage"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// PredictionConfig selects and tunes the predictor.
type PredictionConfig struct {
	Latency        time.Duration `yaml:"latency"`
	BackendURL     string        `yaml:"backendUrl"`
	BackendTimeout time.Duration `yaml:"backendTimeout"`
	BackendRPS     float64       `yaml:"backendRps"`
	BackendBurst   int           `yaml:"backendBurst"`
}

// FormsConfig controls form sessions.
type FormsConfig struct {
	EditPolicy  string        `yaml:"editPolicy"`
	IdleTTL     time.Duration `yaml:"idleTtl"`
	MaxSessions int           `yaml:"maxSessions"`
}

// HistoryConfig bounds history listings.
type HistoryConfig struct {
	RecentLimit    int `yaml:"recentLimit"`
	MemoryCapacity int `yaml:"memoryCapacity"`
}

// StorageConfig holds the optional external backends.
type StorageConfig struct {
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// RedisConfig contains connection information for the location counters.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_ENABLED"); v != "" {
		cfg.HTTP.Retry.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RETRY_MAX_ATTEMPTS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Retry.MaxAttempts = parsed
		}
	}
	if v := os.Getenv("HTTP_RETRY_BASE_BACKOFF"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.Retry.BaseBackoff = parsed
		}
	}
	if v := os.Getenv("PREDICTION_LATENCY"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Prediction.Latency = parsed
		}
	}
	if v := os.Getenv("PREDICTION_BACKEND_URL"); v != "" {
		cfg.Prediction.BackendURL = v
	}
	if v := os.Getenv("PREDICTION_BACKEND_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Prediction.BackendTimeout = parsed
		}
	}
	if v := os.Getenv("PREDICTION_BACKEND_RPS"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Prediction.BackendRPS = parsed
		}
	}
	if v := os.Getenv("PREDICTION_BACKEND_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Prediction.BackendBurst = parsed
		}
	}
	if v := os.Getenv("FORMS_EDIT_POLICY"); v != "" {
		cfg.Forms.EditPolicy = v
	}
	if v := os.Getenv("FORMS_IDLE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Forms.IdleTTL = parsed
		}
	}
	if v := os.Getenv("FORMS_MAX_SESSIONS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Forms.MaxSessions = parsed
		}
	}
	if v := os.Getenv("HISTORY_RECENT_LIMIT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.History.RecentLimit = parsed
		}
	}
	if v := os.Getenv("STORAGE_REDIS_ENABLED"); v != "" {
		cfg.Storage.Redis.Enabled = parseBool(v)
	}
	if v := os.Getenv("STORAGE_REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("STORAGE_POSTGRES_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("STORAGE_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("STORAGE_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Postgres.MinConns = int32(parsed)
		}
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 120,
				Burst:             30,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 2,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/forms",
				},
			},
		},
		Prediction: PredictionConfig{
			Latency:        1500 * time.Millisecond,
			BackendTimeout: 10 * time.Second,
			BackendRPS:     5,
			BackendBurst:   5,
		},
		Forms: FormsConfig{
			EditPolicy:  "revalidate",
			IdleTTL:     30 * time.Minute,
			MaxSessions: 1000,
		},
		History: HistoryConfig{
			RecentLimit:    20,
			MemoryCapacity: 500,
		},
		Storage: StorageConfig{
			Redis: RedisConfig{
				Enabled: false,
				Prefix:  "aqi",
			},
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}
	if c.Prediction.Latency < 0 {
		return errors.New("prediction.latency cannot be negative")
	}
	if c.Prediction.BackendRPS < 0 {
		return errors.New("prediction.backendRps cannot be negative")
	}
	if c.HTTP.WriteTimeout > 0 && c.HTTP.WriteTimeout <= c.Prediction.Latency {
		return errors.New("http.writeTimeout must exceed prediction.latency")
	}
	switch strings.ToLower(strings.TrimSpace(c.Forms.EditPolicy)) {
	case "", "revalidate", "clear":
	default:
		return fmt.Errorf("forms.editPolicy %q must be revalidate or clear", c.Forms.EditPolicy)
	}
	if c.Forms.IdleTTL < 0 {
		return errors.New("forms.idleTtl cannot be negative")
	}
	if c.Forms.MaxSessions < 0 {
		return errors.New("forms.maxSessions cannot be negative")
	}
	if c.History.RecentLimit <= 0 {
		return errors.New("history.recentLimit must be positive")
	}
	if c.Storage.Redis.Enabled && strings.TrimSpace(c.Storage.Redis.Addr) == "" {
		return errors.New("storage.redis.addr cannot be empty when redis is enabled")
	}
	return nil
}
