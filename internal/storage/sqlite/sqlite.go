// Package sqlite implements storage.Store on top of an embedded SQLite file.
//
// modernc.org/sqlite is a pure Go driver, so the client binary needs no C
// toolchain. Batched writes run inside one transaction, which is what lets the
// session store persist its token and identity as a single unit.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/sakif/gobarber/internal/apperror"
	"github.com/sakif/gobarber/internal/storage"
)

// compile-time check that *Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store is a key/value table in a SQLite database.
type Store struct {
	conn *sql.DB
}

// New opens (or creates) the database at path and runs migrations.
//
// path examples:
//   - "~/.gobarber/device.db" → persistent device storage
//   - ":memory:"              → throwaway storage for tests
func New(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage/sqlite: opening database: %w", err)
	}

	// Every ":memory:" connection is a separate database; one connection keeps
	// the pool pointed at the same data.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage/sqlite: pinging database: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage/sqlite: running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating kv table: %w", err)
	}
	return nil
}

// MultiGet reads all keys that exist. Missing keys are simply absent from the map.
func (s *Store) MultiGet(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT key, value FROM kv WHERE key IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, apperror.Storage("read", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, apperror.Storage("read", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Storage("read", err)
	}

	return out, nil
}

// MultiSet writes every pair in one transaction.
func (s *Store) MultiSet(ctx context.Context, pairs ...storage.Pair) error {
	return s.inTx(ctx, "write", func(tx *sql.Tx) error {
		for _, p := range pairs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
				 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				p.Key, p.Value,
			); err != nil {
				return fmt.Errorf("setting %s: %w", p.Key, err)
			}
		}
		return nil
	})
}

// SetItem writes a single key.
func (s *Store) SetItem(ctx context.Context, key, value string) error {
	return s.MultiSet(ctx, storage.Pair{Key: key, Value: value})
}

// MultiRemove deletes every key in one transaction. Removing a missing key is fine.
func (s *Store) MultiRemove(ctx context.Context, keys ...string) error {
	return s.inTx(ctx, "remove", func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, k); err != nil {
				return fmt.Errorf("removing %s: %w", k, err)
			}
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperror.Storage(op, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return apperror.Storage(op, err)
	}
	if err := tx.Commit(); err != nil {
		return apperror.Storage(op, err)
	}
	return nil
}
