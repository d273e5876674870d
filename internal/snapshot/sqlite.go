package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteKV stores snapshots in a single-file SQLite database
type SQLiteKV struct {
	db *sql.DB
}

// OpenSQLiteKV opens (or creates) the snapshot database at path
func OpenSQLiteKV(path string) (*SQLiteKV, error) {
	path = filepath.Clean(path)
	if strings.TrimSpace(path) == "" || path == "." {
		return nil, errors.New(ErrMsgPathRequired)
	}
	if err := os.MkdirAll(filepath.Dir(path), privateDirPerm); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgCreateDir, err)
	}

	dsn := path + "?" + url.Values{
		"_pragma": []string{
			"busy_timeout(5000)",
			"journal_mode(WAL)",
			"synchronous(NORMAL)",
		},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgOpenDB, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	kv := &SQLiteKV{db: db}
	if err := kv.initSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, errors.Join(err, closeErr)
		}
		return nil, err
	}
	return kv, nil
}

func (s *SQLiteKV) initSchema() error {
	if _, err := s.db.Exec(SQLCreateSnapshotTable); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgInitSchema, err)
	}
	return nil
}

// Get returns the stored value for key
func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, SQLSelectSnapshot, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%s: %w", ErrMsgReadSnapshot, err)
	}
	return value, true, nil
}

// Set upserts value for key
func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, SQLUpsertSnapshot, key, value, time.Now().Unix()); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgWriteSnapshot, err)
	}
	return nil
}

// Close closes the underlying database
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable
func (s *SQLiteKV) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
