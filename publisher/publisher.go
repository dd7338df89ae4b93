package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/marcus-crane/lure/db"
	"github.com/marcus-crane/lure/playback"
	"github.com/marcus-crane/lure/revolt"
)

var (
	ErrRetryBudgetExceeded = errors.New("rate limit retry budget exceeded")
	ErrRevertAbandoned     = errors.New("gave up restoring the original status")
)

// Presence is the remote status the publisher owns
type Presence interface {
	GetStatus(ctx context.Context) (*string, error)
	SetStatus(ctx context.Context, text *string) error
}

// Observer is told about every status change the remote service accepted,
// and about every rate limit that had to be waited out
type Observer interface {
	StatusChanged(text *string, cause playback.Message)
	RateLimited(wait time.Duration)
}

// Publisher is the only thing that writes to the remote status. It drops
// messages that wouldn't change anything, waits out rate limits, and puts
// back the status it found when it is asked to shut down gracefully.
type Publisher struct {
	presence  Presence
	opts      Options
	logger    *slog.Logger
	store     db.Store
	runID     string
	observers []Observer
	sleep     func(context.Context, time.Duration) error

	// last is only ever nil, Playing or Idle
	last             playback.Message
	original         *string
	captured         bool
	captureAttempted bool
	// changed is set once a write has been attempted, or when the visible
	// status was left behind by an unfinished run
	changed       bool
	snapshotSaved bool
}

func New(presence Presence, opts Options, options ...Option) *Publisher {
	if opts.Template == "" {
		opts.Template = DefaultTemplate
	}
	if opts.RevertFallback == "" {
		opts.RevertFallback = FallbackKeep
	}
	p := &Publisher{
		presence: presence,
		opts:     opts,
		logger:   slog.Default(),
		sleep:    sleepContext,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Render fills in a status template for a track
func Render(template string, track playback.Track) string {
	status := strings.ReplaceAll(template, "%ARTIST%", track.Artist)
	return strings.ReplaceAll(status, "%NAME%", track.Name)
}

// Run captures the current status and then consumes messages until it is
// told to shut down. Cancelling ctx is a
// forced exit: any wait in progress is abandoned and ctx.Err() is returned.
// A closed channel counts as a graceful shutdown.
func (p *Publisher) Run(ctx context.Context, in <-chan playback.Message) error {
	p.logger.Debug("Status publisher started")
	p.captureOriginal(ctx)
	for {
		var msg playback.Message
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-in:
			if !ok {
				p.logger.Debug("Message channel closed")
				m = playback.Shutdown{Graceful: true}
			}
			msg = m
		}

		switch m := msg.(type) {
		case playback.Playing:
			if err := p.publishTrack(ctx, m); err != nil {
				return err
			}
		case playback.Idle:
			if err := p.publishIdle(ctx); err != nil {
				return err
			}
		case playback.Shutdown:
			return p.shutdown(ctx, m)
		}
	}
}

func (p *Publisher) publishTrack(ctx context.Context, m playback.Playing) error {
	if p.last == playback.Message(m) {
		p.logger.Debug("Track unchanged, skipping update", slog.String("track_id", m.Track.ID()))
		return nil
	}
	text := Render(p.opts.Template, m.Track)
	p.beforeWrite(ctx)
	if err := p.setStatus(ctx, &text, 0); err != nil {
		return fmt.Errorf("failed to publish status for %s: %w", m.Track, err)
	}
	p.last = m
	p.logger.Info("Updated status", slog.String("artist", m.Track.Artist), slog.String("track", m.Track.Name))
	p.notify(&text, m)
	return nil
}

func (p *Publisher) publishIdle(ctx context.Context) error {
	if p.last == nil {
		p.logger.Debug("Nothing has been published yet, ignoring idle")
		return nil
	}
	if _, idle := p.last.(playback.Idle); idle {
		return nil
	}
	p.beforeWrite(ctx)
	if err := p.setStatus(ctx, p.opts.Idle, 0); err != nil {
		return fmt.Errorf("failed to publish idle status: %w", err)
	}
	p.last = playback.Idle{}
	p.logger.Info("Nothing playing, updated status", statusAttr(p.opts.Idle))
	p.notify(p.opts.Idle, playback.Idle{})
	return nil
}

func (p *Publisher) shutdown(ctx context.Context, m playback.Shutdown) error {
	if !m.Graceful {
		p.logger.Info("Stopping without restoring status")
		return nil
	}

	if !p.changed {
		p.logger.Info("Status was never changed, leaving it as it is")
		return nil
	}

	target := p.original
	p.logger.Info("Restoring original status", statusAttr(target))
	err := p.setStatus(ctx, target, p.opts.MaxRevertWait)
	if err == nil {
		p.notify(target, m)
		if p.store != nil && p.snapshotSaved {
			if err := p.store.MarkReverted(ctx, p.runID, time.Now()); err != nil {
				p.logger.Warn("Failed to mark status snapshot as reverted", slog.String("error", err.Error()))
			}
		}
		return nil
	}

	p.logger.Error("Failed to restore original status", slog.String("error", err.Error()))
	if p.opts.RevertFallback == FallbackClear && target != nil && ctx.Err() == nil {
		if cerr := p.presence.SetStatus(ctx, nil); cerr != nil {
			p.logger.Error("Failed to clear status", slog.String("error", cerr.Error()))
		} else {
			p.logger.Info("Cleared status instead")
			p.notify(nil, m)
		}
	}
	return fmt.Errorf("%w: %w", ErrRevertAbandoned, err)
}

// captureOriginal remembers the status that was set before we touched it.
// Only the first call does anything.
func (p *Publisher) captureOriginal(ctx context.Context) {
	if p.captureAttempted {
		return
	}
	p.captureAttempted = true

	if p.recoverSnapshot(ctx) {
		return
	}

	var status *string
	err := p.retry(ctx, p.opts.MaxRevertWait, func() error {
		var err error
		status, err = p.presence.GetStatus(ctx)
		return err
	})
	if err != nil {
		p.logger.Warn("Failed to capture original status, it will be cleared on shutdown", slog.String("error", err.Error()))
		return
	}
	p.original = status
	p.captured = true
	p.logger.Debug("Captured original status", statusAttr(status))
}

// recoverSnapshot takes over the original status saved by a run that never
// got to revert. The remote status is most likely still that run's text.
func (p *Publisher) recoverSnapshot(ctx context.Context) bool {
	if p.store == nil {
		return false
	}
	snapshot, err := p.store.PendingSnapshot(ctx)
	if err != nil {
		p.logger.Warn("Failed to look up previous status snapshot", slog.String("error", err.Error()))
		return false
	}
	if snapshot == nil || snapshot.RunID == p.runID {
		return false
	}

	capturedAt := time.Unix(snapshot.CapturedAt, 0)
	if p.opts.SnapshotMaxAge > 0 && time.Since(capturedAt) > p.opts.SnapshotMaxAge {
		p.logger.Warn("Ignoring status saved by an unfinished run, it is too old",
			slog.String("run_id", snapshot.RunID), slog.Time("captured_at", capturedAt), statusAttr(snapshot.Status))
		p.retireSnapshot(ctx, snapshot.RunID)
		return false
	}

	p.original = snapshot.Status
	p.captured = true
	p.changed = true
	p.logger.Info("Recovered original status from an unfinished run",
		slog.String("run_id", snapshot.RunID), slog.Time("captured_at", capturedAt), statusAttr(snapshot.Status))
	p.saveSnapshot(ctx)
	p.retireSnapshot(ctx, snapshot.RunID)
	return true
}

func (p *Publisher) retireSnapshot(ctx context.Context, runID string) {
	if err := p.store.MarkReverted(ctx, runID, time.Now()); err != nil {
		p.logger.Warn("Failed to retire previous status snapshot", slog.String("error", err.Error()))
	}
}

// beforeWrite runs ahead of every write that replaces the original status
func (p *Publisher) beforeWrite(ctx context.Context) {
	p.changed = true
	if p.captured && !p.snapshotSaved {
		p.saveSnapshot(ctx)
	}
}

func (p *Publisher) saveSnapshot(ctx context.Context) {
	if p.store == nil {
		return
	}
	snapshot := db.Snapshot{
		RunID:      p.runID,
		Status:     p.original,
		CapturedAt: time.Now().Unix(),
	}
	if err := p.store.SaveSnapshot(ctx, snapshot); err != nil {
		p.logger.Warn("Failed to save status snapshot", slog.String("error", err.Error()))
		return
	}
	p.snapshotSaved = true
}

func (p *Publisher) setStatus(ctx context.Context, text *string, budget time.Duration) error {
	return p.retry(ctx, budget, func() error {
		return p.presence.SetStatus(ctx, text)
	})
}

// retry repeats call for as long as it is rate limited, sleeping for however
// long the service asks each time. A budget of zero never gives up.
func (p *Publisher) retry(ctx context.Context, budget time.Duration, call func() error) error {
	var waited time.Duration
	for {
		err := call()
		var rl *revolt.RateLimitError
		if err == nil || !errors.As(err, &rl) {
			return err
		}
		if budget > 0 && waited+rl.RetryAfter > budget {
			return fmt.Errorf("%w after waiting %s: %w", ErrRetryBudgetExceeded, waited, err)
		}
		p.logger.Warn("Rate limited, waiting before retrying", slog.Duration("retry_after", rl.RetryAfter))
		for _, o := range p.observers {
			o.RateLimited(rl.RetryAfter)
		}
		if err := p.sleep(ctx, rl.RetryAfter); err != nil {
			return err
		}
		waited += rl.RetryAfter
	}
}

func (p *Publisher) notify(text *string, cause playback.Message) {
	for _, o := range p.observers {
		o.StatusChanged(text, cause)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func statusAttr(text *string) slog.Attr {
	if text == nil {
		return slog.String("status", "<none>")
	}
	return slog.String("status", *text)
}
