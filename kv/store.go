// Package kv is the persistence port of the stash: a flat string key to byte
// value store, with sqlite, bolt, file and in-memory backends.
package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/liondadev/quick-file-stash/config"
	"github.com/spf13/afero"
)

var (
	// ErrNotFound is returned by Get when no value is stored under the key.
	ErrNotFound = errors.New("kv: key not found")

	// ErrEmptyKey is returned when an operation is given an empty key.
	ErrEmptyKey = errors.New("kv: key must not be empty")

	// ErrUnknownDriver is returned by Open for an unsupported driver name.
	ErrUnknownDriver = errors.New("kv: unknown driver")
)

// Store is a key-value store. Put replaces the whole value atomically from
// the caller's point of view.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Open opens the backend selected by cfg.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return OpenSQLite(cfg.Path)
	case config.DriverBolt:
		return OpenBolt(cfg.Path)
	case config.DriverFile:
		return NewFileStore(afero.NewOsFs(), cfg.Path)
	case config.DriverMemory:
		return NewMemoryStore(), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
