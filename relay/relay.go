package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/marcus-crane/lure/config"
	"github.com/marcus-crane/lure/db"
	"github.com/marcus-crane/lure/events"
	"github.com/marcus-crane/lure/jobs"
	"github.com/marcus-crane/lure/lastfm"
	"github.com/marcus-crane/lure/listenbrainz"
	"github.com/marcus-crane/lure/metrics"
	"github.com/marcus-crane/lure/migrations"
	"github.com/marcus-crane/lure/notify"
	"github.com/marcus-crane/lure/playback"
	"github.com/marcus-crane/lure/publisher"
	"github.com/marcus-crane/lure/revolt"
	"github.com/marcus-crane/lure/routes"
	"github.com/marcus-crane/lure/shutdown"
	"github.com/marcus-crane/lure/source"
)

// queueSize leaves room for a shutdown to be queued behind a poll result
// while the publisher is busy waiting out a rate limit
const queueSize = 4

const serverShutdownTimeout = 5 * time.Second

var ErrForcedExit = errors.New("forced exit before status was restored")

// NewSource builds the client for whichever service is enabled
func NewSource(cfg config.Config) (source.Source, error) {
	switch cfg.Service() {
	case config.LastFM:
		c := lastfm.NewClient(cfg.Services.LastFM.Username, cfg.Services.LastFM.APIKey)
		if cfg.Services.LastFM.APIURL != "" {
			c.BaseURL = cfg.Services.LastFM.APIURL
		}
		return c, nil
	case config.ListenBrainz:
		c := listenbrainz.NewClient(cfg.Services.ListenBrainz.Username)
		c.Token = cfg.Services.ListenBrainz.Token
		if cfg.Services.ListenBrainz.APIURL != "" {
			c.BaseURL = cfg.Services.ListenBrainz.APIURL
		}
		return c, nil
	case "":
		return nil, config.ErrNoService
	default:
		return nil, fmt.Errorf("unknown service %q", cfg.Enable)
	}
}

func openStore(path string) (db.Store, error) {
	if path == "" {
		return db.NewMemoryStore(), nil
	}
	store, err := db.NewSqliteStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.ApplyMigrations(migrations.GetMigrations()); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// Run relays tracks from the enabled service into the Revolt status until
// the process is signalled or something unrecoverable happens
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	notifier := notify.New(cfg.Pushover.Token, cfg.Pushover.Recipient)
	err := run(ctx, cfg, logger)
	if err != nil && !errors.Is(err, ErrForcedExit) {
		if nerr := notifier.Notify("lure stopped", err.Error()); nerr != nil {
			logger.Warn("Failed to notify about shutdown", slog.String("error", nerr.Error()))
		}
	}
	return err
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	src, err := NewSource(cfg)
	if err != nil {
		return err
	}

	presence := revolt.NewClient(cfg.Revolt.APIURL, cfg.Revolt.SessionToken)
	if err := presence.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach Revolt: %w", err)
	}

	store, err := openStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	m := metrics.New()
	broadcaster := events.NewBroadcaster()
	defer broadcaster.Close()

	var ln net.Listener
	if cfg.Server.Listen != "" {
		// bind up front so a bad address fails startup instead of
		// surfacing halfway through a run
		ln, err = net.Listen("tcp", cfg.Server.Listen)
		if err != nil {
			return fmt.Errorf("failed to start status API: %w", err)
		}
	}

	runID := uuid.NewString()
	logger = logger.With(slog.String("run_id", runID))

	runCtx, force := context.WithCancel(ctx)
	defer force()
	// producers stop as soon as the publisher has finished
	pipeCtx, stop := context.WithCancel(runCtx)
	defer stop()

	messages := make(chan playback.Message, queueSize)

	pub := publisher.New(presence, publisher.Options{
		Template:       cfg.Revolt.Status.Template,
		Idle:           cfg.IdleStatus(),
		MaxRevertWait:  cfg.MaxRevertWait(),
		RevertFallback: publisher.RevertFallback(cfg.Revolt.Revert.Fallback),
		SnapshotMaxAge: cfg.SnapshotMaxAge(),
	},
		publisher.WithLogger(logger),
		publisher.WithStore(store, runID),
		publisher.WithObservers(m, broadcaster),
	)
	poller := jobs.NewPoller(src, cfg.CheckInterval(), jobs.WithLogger(logger), jobs.WithObserver(m))
	watcher := shutdown.NewWatcher(logger, force)

	var g errgroup.Group
	g.Go(func() error {
		defer stop()
		err := pub.Run(runCtx, messages)
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			return ErrForcedExit
		}
		return err
	})
	g.Go(func() error {
		return poller.Run(pipeCtx, messages)
	})
	g.Go(func() error {
		return watcher.Run(pipeCtx, messages)
	})

	if ln != nil {
		handler := routes.Register(http.NewServeMux(), broadcaster, m.Handler(), cfg.Server.AllowedOrigins)
		server := routes.NewServer(cfg.Server.Listen, handler)
		g.Go(func() error {
			logger.Info("Status API listening", slog.String("addr", ln.Addr().String()))
			if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Status API stopped", slog.String("error", err.Error()))
			}
			return nil
		})
		g.Go(func() error {
			<-pipeCtx.Done()
			// event streams never finish on their own
			broadcaster.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	logger.Info("lure is running", slog.String("service", src.Name()))
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("lure stopped")
	return nil
}
