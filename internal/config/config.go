package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. A YAML file named by
// APP_CONFIG_FILE may provide a base that the environment overrides.
type Config struct {
	DatabaseURL string `yaml:"database_url"`

	ListenAddr string `yaml:"listen_addr"`

	// BcryptCost is the work factor for stored API key hashes.
	BcryptCost int `yaml:"bcrypt_cost"`

	// BootstrapAPIKey, if set, is imported as an admin key at startup so
	// the key-management routes are reachable on a fresh database.
	BootstrapAPIKey string `yaml:"bootstrap_api_key"`

	// UsageQueueSize bounds the number of pending usage-tracking updates.
	UsageQueueSize int `yaml:"usage_queue_size"`

	ExpirySweepInterval time.Duration `yaml:"expiry_sweep_interval"`

	// ReconcileInterval controls how often projections are rebuilt from the
	// event log. Zero disables the worker.
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		ListenAddr:          ":8080",
		BcryptCost:          10,
		UsageQueueSize:      1024,
		ExpirySweepInterval: time.Minute,
		LogLevel:            "info",
		LogFormat:           "console",
	}
}

// Load reads the optional YAML file and then applies environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("APP_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.DatabaseURL = getenv("APP_DATABASE_URL", cfg.DatabaseURL)
	cfg.ListenAddr = getenv("APP_LISTEN_ADDR", cfg.ListenAddr)
	cfg.BootstrapAPIKey = getenv("APP_BOOTSTRAP_API_KEY", cfg.BootstrapAPIKey)
	cfg.LogLevel = getenv("APP_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("APP_LOG_FORMAT", cfg.LogFormat)

	if v := os.Getenv("APP_BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BcryptCost = n
		}
	}
	if v := os.Getenv("APP_USAGE_QUEUE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.UsageQueueSize = n
		}
	}
	if v := os.Getenv("APP_EXPIRY_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ExpirySweepInterval = d
		}
	}
	if v := os.Getenv("APP_RECONCILE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.ReconcileInterval = d
		}
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
