package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS records (
	kind       INTEGER NOT NULL,
	key        TEXT    NOT NULL,
	value      TEXT    NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (kind, key)
)`

// SQLite is a Cache persisted in a local SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the cache database at path and ensures the
// schema exists. WAL journal mode keeps concurrent readers cheap.
func OpenSQLite(path string) (*SQLite, error) {
	// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// Get implements Cache.
func (s *SQLite) Get(ctx context.Context, kind int, key string, dest any) (bool, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM records WHERE kind = ? AND key = ?`, kind, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cached record %d/%s: %w", kind, key, err)
	}
	return true, nil
}

// Put implements Cache.
func (s *SQLite) Put(ctx context.Context, kind int, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode record %d/%s: %w", kind, key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (kind, key, value, updated_at) VALUES (?,?,?,?)
		 ON CONFLICT (kind, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		kind, key, raw, time.Now().Unix())
	return err
}

// Close implements Cache.
func (s *SQLite) Close() error { return s.db.Close() }
