package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

type SqliteStore struct {
	DB *sqlx.DB
}

func NewSqliteStore(dsn string) (*SqliteStore, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite only allows one writer, and every connection to :memory: is
	// a different database
	db.SetMaxOpenConns(1)
	return &SqliteStore{
		DB: db,
	}, nil
}

func (s *SqliteStore) ApplyMigrations(migrations embed.FS) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		return err
	}

	if err := goose.Up(s.DB.DB, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

func (s *SqliteStore) PendingSnapshot(ctx context.Context) (*Snapshot, error) {
	snapshot := Snapshot{}
	err := s.DB.GetContext(ctx, &snapshot, "SELECT run_id, status, captured_at, reverted_at FROM status_snapshots WHERE reverted_at IS NULL ORDER BY captured_at DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (s *SqliteStore) SaveSnapshot(ctx context.Context, snapshot Snapshot) error {
	query := `
	INSERT INTO status_snapshots (run_id, status, captured_at, reverted_at)
	VALUES (?, ?, ?, NULL)
	ON CONFLICT (run_id) DO UPDATE SET
	status = excluded.status,
	captured_at = excluded.captured_at,
	reverted_at = NULL
	`
	_, err := s.DB.ExecContext(ctx, query, snapshot.RunID, snapshot.Status, snapshot.CapturedAt)
	return err
}

func (s *SqliteStore) MarkReverted(ctx context.Context, runID string, at time.Time) error {
	_, err := s.DB.ExecContext(ctx, "UPDATE status_snapshots SET reverted_at = ? WHERE run_id = ?", at.Unix(), runID)
	return err
}

func (s *SqliteStore) Close() error {
	return s.DB.Close()
}
