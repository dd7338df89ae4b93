package db

import (
	"context"
	"time"
)

// Snapshot is the status that was set on the remote service before a run
// started changing it. Status is nil when there was no status at all.
type Snapshot struct {
	RunID      string  `db:"run_id"`
	Status     *string `db:"status"`
	CapturedAt int64   `db:"captured_at"`
	RevertedAt *int64  `db:"reverted_at"`
}

type Store interface {
	// PendingSnapshot returns the newest snapshot that was never reverted,
	// or nil if there isn't one
	PendingSnapshot(ctx context.Context) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot Snapshot) error
	MarkReverted(ctx context.Context, runID string, at time.Time) error
	Close() error
}
