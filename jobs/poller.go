package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/marcus-crane/lure/playback"
	"github.com/marcus-crane/lure/source"
)

const (
	OutcomePlaying        = "playing"
	OutcomeIdle           = "idle"
	OutcomeTransientError = "transient_error"
	OutcomeFatalError     = "fatal_error"
)

type PollObserver interface {
	PollCompleted(outcome string)
}

type Option func(*Poller)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithObserver(observer PollObserver) Option {
	return func(p *Poller) {
		p.observer = observer
	}
}

// Poller asks a source what is playing on a fixed interval and forwards the
// answer. Polls never overlap, and the first one happens one interval after
// Run is called.
type Poller struct {
	source   source.Source
	interval time.Duration
	logger   *slog.Logger
	observer PollObserver
}

func NewPoller(src source.Source, interval time.Duration, options ...Option) *Poller {
	p := &Poller{
		source:   src,
		interval: interval,
		logger:   slog.Default(),
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Run polls until ctx is cancelled, which returns nil, or until the source
// reports an unrecoverable error. In that case a non-graceful shutdown is
// sent on out, polling stops, and the error is returned.
func (p *Poller) Run(ctx context.Context, out chan<- playback.Message) error {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Shutdown(); err != nil {
			p.logger.Warn("Failed to stop poll scheduler", slog.String("error", err.Error()))
		}
	}()

	var stopped atomic.Bool
	fatal := make(chan error, 1)

	_, err = s.NewJob(
		gocron.DurationJob(p.interval),
		gocron.NewTask(func() {
			if stopped.Load() {
				return
			}
			if err := p.poll(ctx, out); err != nil {
				stopped.Store(true)
				fatal <- err
			}
		}),
		gocron.WithName(p.source.Name()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s poller: %w", p.source.Name(), err)
	}

	s.Start()
	p.logger.Info("Polling for tracks", slog.String("source", p.source.Name()), slog.Duration("interval", p.interval))

	select {
	case <-ctx.Done():
		return nil
	case err := <-fatal:
		return fmt.Errorf("%s: %w", p.source.Name(), err)
	}
}

func (p *Poller) poll(ctx context.Context, out chan<- playback.Message) error {
	track, err := p.source.CurrentTrack(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		if !source.IsFatal(err) {
			p.logger.Warn("Failed to fetch current track", slog.String("source", p.source.Name()), slog.String("error", err.Error()))
			p.record(OutcomeTransientError)
			return nil
		}
		p.logger.Error("Stopping poller after unrecoverable error", slog.String("source", p.source.Name()), slog.String("error", err.Error()))
		p.record(OutcomeFatalError)
		p.send(ctx, out, playback.Shutdown{Graceful: false})
		return err
	}

	msg := playback.FromTrack(track)
	if track != nil {
		p.logger.Debug("Polled current track", slog.String("track_id", track.ID()), slog.String("artist", track.Artist), slog.String("track", track.Name))
		p.record(OutcomePlaying)
	} else {
		p.logger.Debug("Nothing playing")
		p.record(OutcomeIdle)
	}
	p.send(ctx, out, msg)
	return nil
}

func (p *Poller) send(ctx context.Context, out chan<- playback.Message, msg playback.Message) {
	select {
	case out <- msg:
	case <-ctx.Done():
	}
}

func (p *Poller) record(outcome string) {
	if p.observer != nil {
		p.observer.PollCompleted(outcome)
	}
}
