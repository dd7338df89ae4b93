package relay

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus-crane/lure/config"
	"github.com/marcus-crane/lure/lastfm"
	"github.com/marcus-crane/lure/listenbrainz"
	"github.com/marcus-crane/lure/revolt"
	"github.com/marcus-crane/lure/source"
)

type fakeRevolt struct {
	mu      sync.Mutex
	patches []string
	patched chan struct{}
	status  int
}

func newFakeRevolt(t *testing.T, status int) (*fakeRevolt, *httptest.Server) {
	t.Helper()
	f := &fakeRevolt{patched: make(chan struct{}, 10), status: status}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.status != http.StatusOK {
			w.WriteHeader(f.status)
			return
		}
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"_id":"01H","username":"someone","status":{"text":"Away"}}`))
		case http.MethodPatch:
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			f.patches = append(f.patches, string(body))
			f.mu.Unlock()
			f.patched <- struct{}{}
			w.Write([]byte(`{"_id":"01H","username":"someone"}`))
		}
	}))
	t.Cleanup(ts.Close)
	return f, ts
}

func listenBrainzServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testConfig(revoltURL, listenBrainzURL string) config.Config {
	cfg := config.Default()
	cfg.Enable = "listenbrainz"
	cfg.Services.ListenBrainz.Username = "someone"
	cfg.Services.ListenBrainz.APIURL = listenBrainzURL
	cfg.Services.ListenBrainz.CheckInterval = 1
	cfg.Revolt.APIURL = revoltURL
	cfg.Revolt.SessionToken = "token"
	cfg.Revolt.Status.Template = "%NAME% - %ARTIST%"
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewSource(t *testing.T) {
	t.Parallel()
	cfg := config.Default()

	_, err := NewSource(cfg)
	assert.ErrorIs(t, err, config.ErrNoService)

	cfg.Enable = "lastfm"
	cfg.Services.LastFM.Username = "someone"
	cfg.Services.LastFM.APIKey = "key"
	src, err := NewSource(cfg)
	require.NoError(t, err)
	require.IsType(t, &lastfm.Client{}, src)
	assert.Equal(t, "key", src.(*lastfm.Client).APIKey)

	cfg.Enable = "listenbrainz"
	cfg.Services.ListenBrainz.Username = "someone"
	cfg.Services.ListenBrainz.Token = "token"
	src, err = NewSource(cfg)
	require.NoError(t, err)
	require.IsType(t, &listenbrainz.Client{}, src)
	assert.Equal(t, "token", src.(*listenbrainz.Client).Token)

	cfg.Enable = "deezer"
	_, err = NewSource(cfg)
	assert.Error(t, err)
}

func TestRunStopsWhenSessionTokenIsRejected(t *testing.T) {
	t.Parallel()
	fake, revoltServer := newFakeRevolt(t, http.StatusUnauthorized)
	lb := listenBrainzServer(t, http.StatusOK, map[string]any{"payload": map[string]any{"listens": []any{}}})

	err := Run(context.Background(), testConfig(revoltServer.URL, lb.URL), discardLogger())
	assert.ErrorIs(t, err, revolt.ErrUnauthorized)
	assert.Empty(t, fake.patches)
}

func TestRunStopsOnFatalPollError(t *testing.T) {
	t.Parallel()
	fake, revoltServer := newFakeRevolt(t, http.StatusOK)
	lb := listenBrainzServer(t, http.StatusNotFound, map[string]any{"code": 404, "error": "Cannot find user: someone"})

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), testConfig(revoltServer.URL, lb.URL), discardLogger())
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, source.IsFatal(err))
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not stop after a fatal poll error")
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Empty(t, fake.patches)
}

func TestRunPublishesNowPlaying(t *testing.T) {
	t.Parallel()
	fake, revoltServer := newFakeRevolt(t, http.StatusOK)
	lb := listenBrainzServer(t, http.StatusOK, map[string]any{
		"payload": map[string]any{
			"listens": []any{
				map[string]any{
					"playing_now": true,
					"track_metadata": map[string]any{
						"artist_name": "Cocteau Twins",
						"track_name":  "Cherry-coloured Funk",
					},
				},
			},
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, testConfig(revoltServer.URL, lb.URL), discardLogger())
	}()

	select {
	case <-fake.patched:
	case <-time.After(5 * time.Second):
		t.Fatal("status was never published")
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not stop after cancellation")
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.NotEmpty(t, fake.patches)
	assert.JSONEq(t, `{"status":{"text":"Cherry-coloured Funk - Cocteau Twins"}}`, fake.patches[0])
}
