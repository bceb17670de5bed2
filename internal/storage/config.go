package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jacksmith/verso/internal/model"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// userConfigFile is the name of the user configuration file (sibling to .verso/).
	userConfigFile = ".versoconfig.yaml"
	// dotEnvFile holds VERSO_* overrides, also a sibling to .verso/.
	dotEnvFile = ".env"

	// Default configuration values
	DefaultBackend      = BackendFile
	DefaultSlotKey      = "versoCart"
	DefaultSQLitePath   = "cart.db"
	DefaultRedisAddr    = "localhost:6379"
	DefaultRedisTimeout = 2 * time.Second
	DefaultSize         = model.DefaultSize
	DefaultGrind        = model.DefaultGrind
	DefaultLogLevel     = "error"
	DefaultCurrency     = "$"
)

// Storage backends for the durable cart slot.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config represents user configuration from .versoconfig.yaml.
// This file is user-managed and never written by verso.
// VERSO_* environment variables, and a .env file next to it, take precedence.
type Config struct {
	// Backend selects where the cart snapshot is kept: file, memory, sqlite or redis.
	Backend string `yaml:"storage" env:"VERSO_STORAGE"`

	// SlotKey is the name of the durable slot holding the snapshot.
	SlotKey string `yaml:"slot_key" env:"VERSO_SLOT_KEY"`

	// SQLitePath is the database file, relative to .verso/ unless absolute.
	SQLitePath string `yaml:"sqlite_path" env:"VERSO_SQLITE_PATH"`

	// RedisURL, when set, wins over RedisAddr.
	RedisURL     string        `yaml:"redis_url" env:"VERSO_REDIS_URL"`
	RedisAddr    string        `yaml:"redis_addr" env:"VERSO_REDIS_ADDR"`
	RedisTimeout time.Duration `yaml:"redis_timeout" env:"VERSO_REDIS_TIMEOUT"`

	// DefaultSize and DefaultGrind apply when `verso add` is not given one.
	DefaultSize  string `yaml:"default_size" env:"VERSO_DEFAULT_SIZE"`
	DefaultGrind string `yaml:"default_grind" env:"VERSO_DEFAULT_GRIND"`

	LogLevel string `yaml:"log_level" env:"VERSO_LOG_LEVEL"`

	// Catalog is an optional catalog file replacing the built-in one.
	Catalog string `yaml:"catalog" env:"VERSO_CATALOG"`

	// Currency is the symbol printed in front of prices.
	Currency string `yaml:"currency" env:"VERSO_CURRENCY"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Backend:      DefaultBackend,
		SlotKey:      DefaultSlotKey,
		SQLitePath:   DefaultSQLitePath,
		RedisAddr:    DefaultRedisAddr,
		RedisTimeout: DefaultRedisTimeout,
		DefaultSize:  DefaultSize,
		DefaultGrind: DefaultGrind,
		LogLevel:     DefaultLogLevel,
		Currency:     DefaultCurrency,
	}
}

// Validate checks that the configuration can be used to open a cart.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendMemory, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("invalid storage %q (expected file, memory, sqlite or redis)", c.Backend)
	}
	if strings.TrimSpace(c.SlotKey) == "" {
		return fmt.Errorf("slot_key must not be empty")
	}
	if c.RedisTimeout <= 0 {
		return fmt.Errorf("redis_timeout must be positive, got %s", c.RedisTimeout)
	}
	return nil
}

// LoadConfig loads .versoconfig.yaml if it exists, otherwise starts from defaults.
// The config file is a sibling to .verso/ (in the same directory).
// Partial config files are merged with defaults, then environment overrides
// are applied: variables from .env first, the process environment winning.
func (s *Storage) LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(s.ConfigPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", userConfigFile, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", userConfigFile, err)
		}
	}

	environ, err := s.environment()
	if err != nil {
		return nil, err
	}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// environment merges .env (if present) under the process environment.
func (s *Storage) environment() (map[string]string, error) {
	environ := make(map[string]string)

	dotEnvPath := filepath.Join(s.root, dotEnvFile)
	if _, err := os.Stat(dotEnvPath); err == nil {
		vars, err := godotenv.Read(dotEnvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", dotEnvFile, err)
		}
		for k, v := range vars {
			environ[k] = v
		}
	}

	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}
	return environ, nil
}

// ConfigPath returns the path to the user config file.
func (s *Storage) ConfigPath() string {
	return filepath.Join(s.root, userConfigFile)
}
