package revolt

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

var ErrUnauthorized = errors.New("revolt: session token was rejected")

const defaultRetryAfter = time.Second

// RateLimitError means the request was refused because too many requests
// were made. The same request may be retried once RetryAfter has elapsed.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("revolt: rate limited, retry after %s", e.RetryAfter)
}

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("revolt: unexpected response (status %d): %s", e.StatusCode, e.Body)
}

func checkResponse(res *http.Response, body []byte) error {
	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return nil
	case res.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: retryAfter(res.Header, body)}
	case res.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return &APIError{StatusCode: res.StatusCode, Body: string(body)}
	}
}

// retryAfter works out how long to back off for. The body and the
// X-RateLimit-Reset-After header are in milliseconds, Retry-After in seconds.
func retryAfter(header http.Header, body []byte) time.Duration {
	var rl rateLimitBody
	if err := json.Unmarshal(body, &rl); err == nil && rl.RetryAfter != nil && *rl.RetryAfter >= 0 {
		return time.Duration(*rl.RetryAfter * float64(time.Millisecond))
	}
	if v := header.Get("X-RateLimit-Reset-After"); v != "" {
		if ms, err := strconv.ParseFloat(v, 64); err == nil && ms >= 0 {
			return time.Duration(ms * float64(time.Millisecond))
		}
	}
	if v := header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultRetryAfter
}
