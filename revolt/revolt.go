package revolt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/marcus-crane/lure/utils"
)

const (
	DefaultBaseURL = "https://api.revolt.chat"

	SELF_ENDPOINT = "/users/@me"

	sessionTokenHeader = "x-session-token"
)

type Client struct {
	SessionToken string
	BaseURL      string
	HTTPClient   *http.Client
}

func NewClient(baseURL, sessionToken string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		SessionToken: sessionToken,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		HTTPClient:   utils.NewHTTPClient(utils.DefaultTimeout),
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(sessionTokenHeader, c.SessionToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("revolt: request failed: %w", err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("revolt: failed to read response: %w", err)
	}
	if err := checkResponse(res, body); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) fetchSelf(ctx context.Context) (User, error) {
	var user User
	body, err := c.do(ctx, http.MethodGet, SELF_ENDPOINT, nil)
	if err != nil {
		return user, err
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return user, fmt.Errorf("revolt: failed to decode user: %w", err)
	}
	return user, nil
}

// Ping checks that the API is reachable and the session token is accepted
func (c *Client) Ping(ctx context.Context) error {
	user, err := c.fetchSelf(ctx)
	if err != nil {
		return err
	}
	slog.Debug("Authenticated with Revolt", slog.String("user", user.Username))
	return nil
}

// GetStatus returns the custom status text currently set, or nil if there
// isn't one.
func (c *Client) GetStatus(ctx context.Context) (*string, error) {
	user, err := c.fetchSelf(ctx)
	if err != nil {
		return nil, err
	}
	if user.Status == nil || user.Status.Text == nil {
		return nil, nil
	}
	text := *user.Status.Text
	return &text, nil
}

// SetStatus replaces the custom status text. A nil text removes it.
func (c *Client) SetStatus(ctx context.Context, text *string) error {
	edit := EditUser{Remove: []string{FieldStatusText}}
	if text != nil {
		edit = EditUser{Status: &UserStatus{Text: text}}
	}
	_, err := c.do(ctx, http.MethodPatch, SELF_ENDPOINT, edit)
	return err
}
