package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/yndnr/statevault/internal/telemetry/logger"
)

// SQLiteSchema creates the versions table. SQLiteStore applies it on open.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS versions (
	version_id TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	record BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_versions_created ON versions(created_at);
`

// SQLiteStore keeps records in a SQLite table, one row per version.
type SQLiteStore struct {
	db     *sql.DB
	ownsDB bool
	codec  codec
	logger logger.Logger
	closed atomic.Bool
}

// OpenSQLite opens the database at path (":memory:" allowed) and prepares the schema.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One connection: ":memory:" databases are per connection, and the store
	// has a single writer anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=FULL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	s, err := NewSQLiteStore(db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.ownsDB = true
	s.logger.Info("sqlite store opened", "path", path)
	return s, nil
}

// NewSQLiteStore wraps an existing connection. The caller keeps ownership of db.
func NewSQLiteStore(db *sql.DB, opts ...Option) (*SQLiteStore, error) {
	if _, err := db.Exec(SQLiteSchema); err != nil {
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}
	o := buildOptions(opts)
	return &SQLiteStore{
		db:     db,
		codec:  codec{cipher: o.cipher},
		logger: o.logger.With("component", "sqlite_store"),
	}, nil
}

// Put inserts rec. An existing record is never replaced.
func (s *SQLiteStore) Put(ctx context.Context, rec *Record) error {
	if err := s.check(rec.VersionID); err != nil {
		return err
	}
	data, err := s.codec.encode(rec)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM versions WHERE version_id = ?`, rec.VersionID).Scan(&one)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrRecordExists, rec.VersionID)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("sqlite: lookup: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO versions (version_id, created_at, record) VALUES (?, ?, ?)`,
		rec.VersionID, rec.CreatedAt.UnixNano(), data,
	); err != nil {
		return fmt.Errorf("sqlite: insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Get reads the record for id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := s.check(id); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT record FROM versions WHERE version_id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		return nil, fmt.Errorf("sqlite: select: %w", err)
	}
	return s.codec.decode(id, data)
}

// Delete removes the record for id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := s.check(id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM versions WHERE version_id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return nil
}

// List returns stored ids in ascending order.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT version_id FROM versions ORDER BY version_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database if the store opened it.
func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) check(id string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return checkID(id)
}
