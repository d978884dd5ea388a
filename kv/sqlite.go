package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	_ "github.com/glebarez/go-sqlite"
)

// SQLiteStore keeps every key as one row of the "kv" table.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the sqlite database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("kv: sqlite path must not be empty")
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// NewSQLiteStore wraps an already opened database and applies the schema.
func NewSQLiteStore(db *sqlx.DB) (*SQLiteStore, error) {
	// sqlite has a single writer, and ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.ApplyMigrations(); err != nil {
		return nil, err
	}

	return s, nil
}

// ApplyMigrations creates the tables the store needs.
func (s *SQLiteStore) ApplyMigrations() error {
	// 001 - key/value table
	stmt := `CREATE TABLE IF NOT EXISTS "kv" ("key" TEXT PRIMARY KEY, "value" BLOB NOT NULL)`
	if _, err := s.db.Exec(stmt); err != nil {
		return fmt.Errorf("create initial schema: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	var value []byte
	if err := s.db.GetContext(ctx, &value, `SELECT "value" FROM "kv" WHERE "key" = $1`, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select %q: %w", key, err)
	}

	return value, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO "kv" ("key", "value") VALUES ($1, $2)
		ON CONFLICT ("key") DO UPDATE SET "value" = excluded."value"`, key, value)
	if err != nil {
		return fmt.Errorf("upsert %q: %w", key, err)
	}

	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM "kv" WHERE "key" = $1`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
