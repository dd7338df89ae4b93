package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/marcus-crane/lure/events"
)

func renderJSONMessage(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	res := map[string]string{"message": message}
	json.NewEncoder(w).Encode(res)
}

func Register(mux *http.ServeMux, broadcaster *events.Broadcaster, metrics http.Handler, allowedOrigins []string) http.Handler {

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "lure relays what you're listening to into your Revolt status.\nYou can find the source code on <a href=\"https://github.com/marcus-crane/lure\">Github</a>\n")
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		renderJSONMessage(w, "ok")
	})

	mux.HandleFunc("GET /api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(broadcaster.Current())
	})

	mux.Handle("GET /events", broadcaster)

	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept"},
	})

	handler := c.Handler(mux)

	return handler
}

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
