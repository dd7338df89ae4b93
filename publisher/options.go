package publisher

import (
	"log/slog"
	"time"

	"github.com/marcus-crane/lure/db"
)

const DefaultTemplate = "🎵 Listening to %NAME% by %ARTIST%"

type RevertFallback string

const (
	// FallbackKeep leaves whatever status is set if the revert fails
	FallbackKeep RevertFallback = "keep"
	// FallbackClear makes one last attempt to clear the status
	FallbackClear RevertFallback = "clear"
)

type Options struct {
	// Template is rendered with %ARTIST% and %NAME% for every new track
	Template string
	// Idle is shown when nothing is playing. Nil clears the status.
	Idle *string
	// MaxRevertWait caps the total time spent waiting out rate limits while
	// restoring the original status. Zero means no cap.
	MaxRevertWait  time.Duration
	RevertFallback RevertFallback
	// SnapshotMaxAge is how old a status saved by an unfinished run may be
	// and still be restored. Zero means any age.
	SnapshotMaxAge time.Duration
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithStore persists the captured original status under runID so that it
// survives a crash
func WithStore(store db.Store, runID string) Option {
	return func(p *Publisher) {
		p.store = store
		p.runID = runID
	}
}

func WithObservers(observers ...Observer) Option {
	return func(p *Publisher) {
		p.observers = append(p.observers, observers...)
	}
}
