package listenbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/marcus-crane/lure/playback"
	"github.com/marcus-crane/lure/source"
	"github.com/marcus-crane/lure/utils"
)

const DefaultBaseURL = "https://api.listenbrainz.org"

type Client struct {
	Username string
	// Token is optional. Public profiles can be read without one.
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(username string) *Client {
	return &Client{
		Username:   username,
		BaseURL:    DefaultBaseURL,
		HTTPClient: utils.NewHTTPClient(utils.DefaultTimeout),
	}
}

func (c *Client) Name() string {
	return "listenbrainz"
}

func (c *Client) buildURL() string {
	return fmt.Sprintf("%s/1/user/%s/playing-now", strings.TrimRight(c.BaseURL, "/"), url.PathEscape(c.Username))
}

func (c *Client) CurrentTrack(ctx context.Context) (*playback.Track, error) {
	if c.Username == "" {
		return nil, source.Fatal(errors.New("listenbrainz: username is required"))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(), nil)
	if err != nil {
		return nil, source.Fatal(fmt.Errorf("listenbrainz: invalid api url: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Token "+c.Token)
	}
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listenbrainz: request failed: %w", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("listenbrainz: failed to read response: %w", err)
	}

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusUnauthorized:
		var apiErr ErrorResponse
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
			return nil, source.Fatal(fmt.Errorf("listenbrainz: %s", apiErr.Error))
		}
		return nil, source.Fatal(fmt.Errorf("listenbrainz: unexpected response (status %d)", res.StatusCode))
	default:
		return nil, fmt.Errorf("listenbrainz: unexpected response (status %d): %s", res.StatusCode, string(body))
	}

	var playing PlayingNowResponse
	if err := json.Unmarshal(body, &playing); err != nil {
		return nil, fmt.Errorf("listenbrainz: failed to decode playing now: %w", err)
	}
	if len(playing.Payload.Listens) == 0 {
		return nil, nil
	}
	listen := playing.Payload.Listens[0]
	if !listen.PlayingNow {
		return nil, nil
	}
	return &playback.Track{
		Artist: listen.TrackMetadata.ArtistName,
		Name:   listen.TrackMetadata.TrackName,
	}, nil
}
