package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/marcus-crane/lure/playback"
	"github.com/marcus-crane/lure/source"
	"github.com/marcus-crane/lure/utils"
)

const (
	DefaultBaseURL = "http://ws.audioscrobbler.com/2.0/"

	recentTracksMethod = "user.getrecenttracks"
)

// Error codes that won't go away by asking again.
// https://www.last.fm/api/errorcodes
const (
	codeInvalidParameters = 6
	codeInvalidAPIKey     = 10
	codeSuspendedAPIKey   = 26
)

type Client struct {
	Username   string
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(username, apiKey string) *Client {
	return &Client{
		Username:   username,
		APIKey:     apiKey,
		BaseURL:    DefaultBaseURL,
		HTTPClient: utils.NewHTTPClient(utils.DefaultTimeout),
	}
}

func (c *Client) Name() string {
	return "lastfm"
}

func (c *Client) buildURL() (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("method", recentTracksMethod)
	q.Set("user", c.Username)
	q.Set("api_key", c.APIKey)
	q.Set("limit", "1")
	q.Set("format", "json")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// CurrentTrack returns the track the user is scrobbling right now, or nil
// when their most recent scrobble has already finished.
func (c *Client) CurrentTrack(ctx context.Context) (*playback.Track, error) {
	if c.Username == "" || c.APIKey == "" {
		return nil, source.Fatal(errors.New("lastfm: username and api key are required"))
	}
	endpoint, err := c.buildURL()
	if err != nil {
		return nil, source.Fatal(fmt.Errorf("lastfm: invalid api url: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lastfm: request failed: %w", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("lastfm: failed to read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(res.StatusCode, body)
	}

	// Some failures still come back with a 200
	var apiErr ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
		return nil, classify(apiErr)
	}

	var recent RecentTracksResponse
	if err := json.Unmarshal(body, &recent); err != nil {
		return nil, fmt.Errorf("lastfm: failed to decode recent tracks: %w", err)
	}
	if len(recent.RecentTracks.Track) == 0 {
		return nil, nil
	}
	latest := recent.RecentTracks.Track[0]
	if !latest.NowPlaying() {
		return nil, nil
	}
	return &playback.Track{
		Artist: latest.Artist.Text,
		Name:   latest.Name,
	}, nil
}

func handleErrorResponse(status int, body []byte) error {
	var apiErr ErrorResponse
	decoded := json.Unmarshal(body, &apiErr) == nil && apiErr.Message != ""

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		if decoded {
			return source.Fatal(fmt.Errorf("lastfm: %s", apiErr.Message))
		}
		return source.Fatal(fmt.Errorf("lastfm: access denied (status %d)", status))
	}
	if decoded {
		return classify(apiErr)
	}
	return fmt.Errorf("lastfm: unexpected response (status %d): %s", status, string(body))
}

func classify(apiErr ErrorResponse) error {
	err := fmt.Errorf("lastfm: %s (error %d)", apiErr.Message, apiErr.Code)
	switch apiErr.Code {
	case codeInvalidParameters, codeInvalidAPIKey, codeSuspendedAPIKey:
		return source.Fatal(err)
	}
	return err
}
