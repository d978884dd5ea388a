package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
	DriverFile   = "file"
	DriverMemory = "memory"
)

var ErrInvalidConfig = errors.New("invalid config")

// StoreConfig selects the key-value backend the registry persists to.
type StoreConfig struct {
	Driver string `mapstructure:"driver" json:"driver"`
	// Path is a database file for sqlite and bolt, a directory for file, unused for memory.
	Path string `mapstructure:"path" json:"path"`
}

// Config is the config for the application
type Config struct {
	ListenAddr string      `mapstructure:"listen_addr" json:"listen_addr"`
	BasePath   string      `mapstructure:"base_path" json:"base_path"`
	Store      StoreConfig `mapstructure:"store" json:"store"`
	// StorageKey is the single key the whole file collection is stored under.
	StorageKey string `mapstructure:"storage_key" json:"storage_key"`
	LogLevel   string `mapstructure:"log_level" json:"log_level"`
	// MaxUploadBytes caps the size of a single file, 0 means no cap.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" json:"max_upload_bytes"`
}

// New returns a config with default values
func New() *Config {
	return &Config{
		ListenAddr: ":8080",
		BasePath:   "/",
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   "stash.db",
		},
		StorageKey: "savedFiles",
		LogLevel:   "info",
	}
}

func newViper() *viper.Viper {
	v := viper.New()

	def := New()
	v.SetDefault("listen_addr", def.ListenAddr)
	v.SetDefault("base_path", def.BasePath)
	v.SetDefault("store.driver", def.Store.Driver)
	v.SetDefault("store.path", def.Store.Path)
	v.SetDefault("storage_key", def.StorageKey)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("max_upload_bytes", def.MaxUploadBytes)

	// QFS_STORE_DRIVER, QFS_LISTEN_ADDR, ...
	v.SetEnvPrefix("QFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromReader creates a config from a reader that contains json content.
// Keys missing from the json keep their defaults.
func FromReader(f io.Reader) (*Config, error) {
	v := newViper()
	v.SetConfigType("json")
	if err := v.ReadConfig(f); err != nil {
		return nil, fmt.Errorf("config from reader: %w", err)
	}

	return decode(v)
}

// Load reads the config file at path (any format viper understands) and
// overlays QFS_* environment variables. An empty path loads defaults and env only.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return decode(v)
}

// Validate checks that the store settings can be used to open a backend.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverBolt, DriverFile:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for driver %q", ErrInvalidConfig, c.Store.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.Store.Driver)
	}

	if c.StorageKey == "" {
		return fmt.Errorf("%w: storage_key must not be empty", ErrInvalidConfig)
	}

	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("%w: max_upload_bytes must not be negative", ErrInvalidConfig)
	}

	return nil
}
