package cmd

import (
	"io"
	"log/slog"

	"github.com/marcus-crane/lure/config"
)

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.GetLogLevel()}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.Logging.JSON {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}
