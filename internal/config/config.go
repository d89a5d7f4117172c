// Package config loads the tessera settings: built-in defaults, then an
// optional YAML file, then TESSERA_* environment variables. Command-line
// flags are applied last by the caller.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/tessera/internal/logging"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no path is given and it exists in the working directory.
const DefaultFile = "tessera.yaml"

const envPrefix = "TESSERA_"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type Config struct {
	Listen       string    `yaml:"listen"`
	Log          LogConfig `yaml:"log"`
	Store        Store     `yaml:"store"`
	Templates    string    `yaml:"templates"`
	HistoryLimit int       `yaml:"history_limit"`
	// Autosave is a cron schedule such as "@every 30s"; empty disables it.
	Autosave string `yaml:"autosave"`
	// Locking takes a distributed lock per page while saving (redis only).
	Locking bool `yaml:"locking"`
	Metrics bool `yaml:"metrics"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Store struct {
	Driver string `yaml:"driver"`
	// Path is the directory of the file driver.
	Path string `yaml:"path"`
	// DSN is the connection string of the SQL drivers.
	DSN   string `yaml:"dsn"`
	Redis Redis  `yaml:"redis"`
	// EncryptionKey is a base64 AES-256 key. Pages are stored encrypted when set.
	EncryptionKey string `yaml:"encryption_key"`
	// Validate rejects saves that break component contracts.
	Validate bool `yaml:"validate"`
}

type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Listen: ":8080",
		Log:    LogConfig{Level: "info", Format: "text"},
		Store: Store{
			Driver:   DriverMemory,
			Path:     ".tessera/pages",
			Redis:    Redis{Addr: "localhost:6379"},
			Validate: true,
		},
		Metrics: true,
	}
}

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load reads path (or DefaultFile when path is empty and the file exists)
// over the defaults and then applies environment overrides.
func Load(path string, env LookupFunc) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if env == nil {
		env = os.LookupEnv
	}
	if err := cfg.applyEnv(env); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(env LookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := env(envPrefix + name); ok {
			*dst = v
		}
	}
	str("LISTEN", &c.Listen)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("STORE", &c.Store.Driver)
	str("STORE_PATH", &c.Store.Path)
	str("DSN", &c.Store.DSN)
	str("REDIS_ADDR", &c.Store.Redis.Addr)
	str("REDIS_PASSWORD", &c.Store.Redis.Password)
	str("REDIS_PREFIX", &c.Store.Redis.Prefix)
	str("ENCRYPTION_KEY", &c.Store.EncryptionKey)
	str("TEMPLATES", &c.Templates)
	str("AUTOSAVE", &c.Autosave)

	var errs []error
	integer := func(name string, dst *int) {
		if v, ok := env(envPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := env(envPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	integer("REDIS_DB", &c.Store.Redis.DB)
	integer("HISTORY_LIMIT", &c.HistoryLimit)
	boolean("LOCKING", &c.Locking)
	boolean("METRICS", &c.Metrics)
	boolean("VALIDATE", &c.Store.Validate)

	if v, ok := env(envPrefix + "REDIS_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sREDIS_TTL: %w", envPrefix, err))
		} else {
			c.Store.Redis.TTL = d
		}
	}
	return errors.Join(errs...)
}

// Validate checks the combined settings.
func (c Config) Validate() error {
	var errs []error
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	switch c.Store.Driver {
	case DriverMemory, DriverFile, DriverRedis:
	case DriverSQLite, DriverPostgres, DriverMySQL:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("store driver %s requires a dsn", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}

	if c.Locking && c.Store.Driver != DriverRedis {
		errs = append(errs, errors.New("locking requires the redis store"))
	}
	if c.HistoryLimit < 0 {
		errs = append(errs, fmt.Errorf("history_limit must not be negative, got %d", c.HistoryLimit))
	}
	if c.Store.EncryptionKey != "" {
		if _, err := c.Store.Key(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Key decodes EncryptionKey. It returns nil when no key is configured.
func (s Store) Key() ([]byte, error) {
	if s.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption_key is not base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption_key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}
