package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	namespaceString = "string"
	namespaceBlob   = "blob"

	writeAttempts = 5
	writeBackoff  = 20 * time.Millisecond
	queryTimeout  = 5 * time.Second
)

// SQLiteStore is a Store backed by a SQLite database, one row per key.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens or creates the database at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, now: time.Now}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS kv (
		namespace TEXT NOT NULL,
		key TEXT NOT NULL,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (namespace, key)
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) GetString(key string) (string, bool) {
	v, ok := s.get(namespaceString, key)
	return string(v), ok
}

func (s *SQLiteStore) SetString(key, value string) error {
	return s.set(namespaceString, key, []byte(value))
}

func (s *SQLiteStore) GetBlob(key string) ([]byte, bool) {
	return s.get(namespaceBlob, key)
}

func (s *SQLiteStore) SetBlob(key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return s.set(namespaceBlob, key, value)
}

// Delete removes key from both namespaces.
func (s *SQLiteStore) Delete(key string) error {
	var affected int64
	err := s.withRetry(func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// get reports read errors as a missing key; callers of browsing.KVStore
// have no error path for reads.
func (s *SQLiteStore) get(namespace, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE namespace = ? AND key = ?`, namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		slog.Debug("kvstore: read failed", "namespace", namespace, "key", key, "err", err)
		return nil, false
	}
	return value, true
}

func (s *SQLiteStore) set(namespace, key string, value []byte) error {
	query := `
	INSERT INTO kv (namespace, key, value, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(namespace, key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at`

	err := s.withRetry(func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, query, namespace, key, value, s.now().Unix())
		return err
	})
	if err != nil {
		return fmt.Errorf("set %s %q: %w", namespace, key, err)
	}
	return nil
}

// withRetry retries fn while SQLite reports lock contention.
func (s *SQLiteStore) withRetry(fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < writeAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		err = fn(ctx)
		cancel()
		if err == nil || !isConflictError(err) {
			return err
		}
		time.Sleep(writeBackoff * time.Duration(attempt+1))
	}
	return err
}

// isConflictError matches SQLITE_BUSY and "database is locked".
func isConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
