package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/marcus-crane/lure/playback"
)

// Watcher turns the first interrupt or terminate signal into a graceful
// shutdown message
type Watcher struct {
	logger  *slog.Logger
	onForce func()

	notify func(c chan<- os.Signal, sig ...os.Signal)
	stop   func(c chan<- os.Signal)
}

// NewWatcher returns a watcher that calls onForce if a second signal arrives
// before the shutdown message could be queued
func NewWatcher(logger *slog.Logger, onForce func()) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		logger:  logger,
		onForce: onForce,
		notify:  signal.Notify,
		stop:    signal.Stop,
	}
}

// Run waits for a signal and then sends exactly one graceful shutdown on out.
// Signal handling is handed back to the runtime afterwards, so a further
// interrupt kills the process outright. Run returns nil when ctx ends first.
func (w *Watcher) Run(ctx context.Context, out chan<- playback.Message) error {
	sigs := make(chan os.Signal, 2)
	w.notify(sigs, signals...)
	defer w.stop(sigs)

	select {
	case <-ctx.Done():
		return nil
	case sig := <-sigs:
		w.logger.Info("Received signal, shutting down", slog.String("signal", sig.String()))
	}

	msg := playback.Shutdown{Graceful: true}
	select {
	case out <- msg:
		return nil
	default:
	}

	w.logger.Warn("Publisher is busy, waiting to queue shutdown")
	select {
	case out <- msg:
		return nil
	case sig := <-sigs:
		w.logger.Warn("Received second signal, exiting without restoring status", slog.String("signal", sig.String()))
		if w.onForce != nil {
			w.onForce()
		}
		return nil
	case <-ctx.Done():
		w.logger.Error("Gave up queueing shutdown", slog.String("error", ctx.Err().Error()))
		return nil
	}
}
