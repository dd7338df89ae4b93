package events

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/r3labs/sse/v2"

	"github.com/marcus-crane/lure/playback"
)

const StatusStream = "status"

// Status is the last status the relay got Revolt to accept
type Status struct {
	Text      *string         `json:"text"`
	Kind      string          `json:"kind"`
	Track     *playback.Track `json:"track,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Broadcaster keeps the current status and streams every change to anyone
// listening on the status stream
type Broadcaster struct {
	server    *sse.Server
	closeOnce sync.Once

	mu      sync.RWMutex
	current Status
	seq     uint64
}

func NewBroadcaster() *Broadcaster {
	server := sse.New()
	server.AutoReplay = false
	server.CreateStream(StatusStream)
	return &Broadcaster{
		server:  server,
		current: Status{Kind: "unknown"},
	}
}

func (b *Broadcaster) StatusChanged(text *string, cause playback.Message) {
	status := Status{
		Text:      text,
		Kind:      playback.Kind(cause),
		UpdatedAt: time.Now().UTC(),
	}
	if playing, ok := cause.(playback.Playing); ok {
		track := playing.Track
		status.Track = &track
	}

	b.mu.Lock()
	b.current = status
	b.seq++
	id := b.seq
	b.mu.Unlock()

	data, err := json.Marshal(status)
	if err != nil {
		slog.Error("Failed to encode status event", slog.String("error", err.Error()))
		return
	}
	b.server.Publish(StatusStream, &sse.Event{
		ID:   []byte(strconv.FormatUint(id, 10)),
		Data: data,
	})
}

func (b *Broadcaster) RateLimited(time.Duration) {}

func (b *Broadcaster) Current() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// ServeHTTP streams events; clients pick the stream with ?stream=status
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.server.ServeHTTP(w, r)
}

// Close ends every open stream. It is safe to call more than once.
func (b *Broadcaster) Close() {
	b.closeOnce.Do(b.server.Close)
}
