package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/diarykeeper/internal/common"
	"github.com/dmitrijs2005/diarykeeper/internal/dbx"
	"github.com/dmitrijs2005/diarykeeper/internal/diary/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const usageQuery = `SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB))), 0) FROM kv`

type SQLiteStore struct {
	db    *sql.DB
	quota int64
}

// NewSQLiteStore wraps an already migrated database. quota <= 0 disables
// the capacity check.
func NewSQLiteStore(db *sql.DB, quota int64) *SQLiteStore {
	return &SQLiteStore{db: db, quota: quota}
}

// RunMigrations brings the kv schema up to date.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Open opens (or creates) the SQLite file at dsn, migrates it and returns a
// store enforcing quota. ":memory:" yields a private in-memory database.
func Open(ctx context.Context, dsn string, quota int64) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	// one connection: a single writer, and ":memory:" stays one database
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return NewSQLiteStore(db, quota), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if s.quota > 0 {
			usage, err := usage(ctx, tx)
			if err != nil {
				return err
			}

			var old int64
			err = tx.QueryRowContext(ctx,
				`SELECT LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB)) FROM kv WHERE key = ?`, key).Scan(&old)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("failed to size kv[%s]: %w", key, err)
			}

			required := pairSize(key, value)
			if usage-old+required > s.quota {
				return &common.QuotaError{Key: key, Required: required, Usage: usage, Quota: s.quota}
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		if err != nil {
			return fmt.Errorf("failed to set kv[%s]: %w", key, err)
		}
		return nil
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Usage(ctx context.Context) (int64, error) {
	return usage(ctx, s.db)
}

func (s *SQLiteStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv WHERE substr(key, 1, length(?)) = ? ORDER BY key`, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list kv keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan kv row: %w", err)
		}
		keys = append(keys, k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate kv rows: %w", err)
	}

	return keys, nil
}

func usage(ctx context.Context, db dbx.DBTX) (int64, error) {
	var n int64
	if err := db.QueryRowContext(ctx, usageQuery).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to compute kv usage: %w", err)
	}
	return n, nil
}
