package utils

import (
	"net/http"
	"time"
)

const (
	UserAgent = "lure/1.0 (+https://github.com/marcus-crane/lure)"

	DefaultTimeout = 10 * time.Second
)

type UARoundtripper struct {
	RT http.RoundTripper
}

func (uart *UARoundtripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rt := uart.RT
	if rt == nil {
		rt = http.DefaultTransport
	}
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", UserAgent)
	return rt.RoundTrip(req)
}

// NewHTTPClient returns a client that identifies itself to upstream APIs
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &UARoundtripper{RT: http.DefaultTransport},
	}
}
