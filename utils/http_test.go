package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClientSetsUserAgent(t *testing.T) {
	t.Parallel()
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
	}))
	defer ts.Close()

	client := NewHTTPClient(DefaultTimeout)
	res, err := client.Get(ts.URL)
	require.NoError(t, err)
	res.Body.Close()

	assert.Equal(t, UserAgent, got)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("LURE_TEST_VALUE", "present")

	assert.Equal(t, "present", GetEnv("LURE_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnv("LURE_TEST_MISSING", "fallback"))
}
