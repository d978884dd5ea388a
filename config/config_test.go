package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "/", cfg.BasePath)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "stash.db", cfg.Store.Path)
	assert.Equal(t, "savedFiles", cfg.StorageKey)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.MaxUploadBytes)
	require.NoError(t, cfg.Validate())
}

func TestFromReader(t *testing.T) {
	cfg, err := FromReader(strings.NewReader(`{
		"listen_addr": "127.0.0.1:9000",
		"store": {"driver": "bolt", "path": "/tmp/stash.bolt"},
		"max_upload_bytes": 1024
	}`))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, DriverBolt, cfg.Store.Driver)
	assert.Equal(t, "/tmp/stash.bolt", cfg.Store.Path)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	// untouched keys keep defaults
	assert.Equal(t, "savedFiles", cfg.StorageKey)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestFromReaderInvalid(t *testing.T) {
	_, err := FromReader(strings.NewReader(`{ not json`))
	require.Error(t, err)

	_, err = FromReader(strings.NewReader(`{"store": {"driver": "redis"}}`))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"storage_key": "files", "log_level": "debug"}`), 0o600))

	t.Setenv("QFS_STORE_DRIVER", "memory")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "files", cfg.StorageKey)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadNoPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, New(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(c *Config)
		ok   bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"memory without path", func(c *Config) { c.Store = StoreConfig{Driver: DriverMemory} }, true},
		{"file without path", func(c *Config) { c.Store = StoreConfig{Driver: DriverFile} }, false},
		{"unknown driver", func(c *Config) { c.Store.Driver = "s3" }, false},
		{"empty key", func(c *Config) { c.StorageKey = "" }, false},
		{"negative cap", func(c *Config) { c.MaxUploadBytes = -1 }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := New()
			tc.mut(cfg)
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}
