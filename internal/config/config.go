package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required")
	ErrShortJWTSecret   = errors.New("JWT_SECRET must be at least 32 characters long")
	ErrMissingBrokers   = errors.New("KAFKA_BROKERS is required")
)

const minJWTSecretLength = 32

// Config holds the storefront process configuration.
// Values come from an optional YAML file (CONFIG_FILE) and are then overridden by environment variables.
type Config struct {
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`
	HTTPAddr string `yaml:"http_addr"`
	WebDir   string `yaml:"web_dir"`

	CatalogBaseURL  string        `yaml:"catalog_base_url"`
	CatalogTimeout  time.Duration `yaml:"catalog_timeout"`
	CatalogCacheTTL time.Duration `yaml:"catalog_cache_ttl"`

	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`
	KafkaGroupID string   `yaml:"kafka_group_id"`
	DatabaseURL  string   `yaml:"database_url"`
	RedisURL     string   `yaml:"redis_url"`

	JWTSecret         string        `yaml:"jwt_secret"`
	AccessTokenExpiry time.Duration `yaml:"access_token_expiry"`
	AdminUsername     string        `yaml:"admin_username"`
	AdminPasswordHash string        `yaml:"admin_password_hash"`

	AlertDismissAfter time.Duration `yaml:"alert_dismiss_after"`

	SessionIdleTimeout   time.Duration `yaml:"session_idle_timeout"`
	SessionSweepInterval time.Duration `yaml:"session_sweep_interval"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		AppEnv:            "dev",
		LogLevel:          "info",
		HTTPAddr:          ":8080",
		CatalogBaseURL:    "https://dummyjson.com",
		CatalogTimeout:    10 * time.Second,
		CatalogCacheTTL:   time.Minute,
		KafkaTopic:        "storefront-activity",
		KafkaGroupID:      "storefront-projector",
		AccessTokenExpiry: 15 * time.Minute,
		AdminUsername:     "admin",
		AlertDismissAfter: 5 * time.Second,

		SessionIdleTimeout:   24 * time.Hour,
		SessionSweepInterval: 10 * time.Minute,
	}
}

// Load reads the optional YAML file named by CONFIG_FILE, applies environment overrides and validates the result.
func Load() (Config, error) {
	cfg, err := read()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadWorker is Load for the standalone activity consumer, which needs brokers but no admin settings.
func LoadWorker() (Config, error) {
	cfg, err := read()
	if err != nil {
		return Config{}, err
	}
	if !cfg.KafkaEnabled() {
		return Config{}, ErrMissingBrokers
	}
	return cfg, nil
}

func read() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.WebDir = getEnv("WEB_DIR", cfg.WebDir)
	cfg.CatalogBaseURL = strings.TrimRight(getEnv("CATALOG_BASE_URL", cfg.CatalogBaseURL), "/")
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.KafkaGroupID = getEnv("KAFKA_GROUP_ID", cfg.KafkaGroupID)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.AdminUsername = getEnv("ADMIN_USERNAME", cfg.AdminUsername)
	cfg.AdminPasswordHash = getEnv("ADMIN_PASSWORD_HASH", cfg.AdminPasswordHash)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CATALOG_TIMEOUT", &cfg.CatalogTimeout},
		{"CATALOG_CACHE_TTL", &cfg.CatalogCacheTTL},
		{"ACCESS_TOKEN_EXPIRY", &cfg.AccessTokenExpiry},
		{"ALERT_DISMISS_AFTER", &cfg.AlertDismissAfter},
		{"SESSION_IDLE_TIMEOUT", &cfg.SessionIdleTimeout},
		{"SESSION_SWEEP_INTERVAL", &cfg.SessionSweepInterval},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = parsed
	}
	return nil
}

// Validate checks the settings the process cannot start without.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if len(c.JWTSecret) < minJWTSecretLength {
		return ErrShortJWTSecret
	}
	return nil
}

// KafkaEnabled reports whether activity events should go through Kafka.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
