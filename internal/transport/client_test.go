package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltgrid/billnotify/internal/transport"
)

var traceparentRe = regexp.MustCompile(`^00-[0-9a-f]{32}-[0-9a-f]{16}-01$`)

func TestPostJSON_Headers(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := transport.NewClient("secret-key", time.Second)
	resp, err := client.PostJSON(context.Background(), srv.URL, map[string]string{"hello": "world"})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json, */*", got.Get("Accept"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, "Bearer secret-key", got.Get("Authorization"))
	assert.Regexp(t, traceparentRe, got.Get("Traceparent"))
}

func TestPostJSON_EmptyCredentialSentAsIs(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := transport.NewClient("", time.Second)
	resp, err := client.PostJSON(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer ", auth)
}

func TestPostJSON_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := transport.NewClient("key", 100*time.Millisecond)

	start := time.Now()
	_, err := client.PostJSON(context.Background(), srv.URL, nil)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, transport.ErrTimeout)
	// Fired around the deadline: not early, not hanging.
	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestPostJSON_BodyDelivered(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := transport.NewClient("key", time.Second)
	resp, err := client.PostJSON(context.Background(), srv.URL, map[string]any{"customerId": float64(7)})
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, map[string]any{"customerId": float64(7)}, body)
}
