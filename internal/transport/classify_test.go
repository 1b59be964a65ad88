package transport_test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltgrid/billnotify/internal/transport"
)

func response(status int, statusLine, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     statusLine,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestClassifySuccess(t *testing.T) {
	type payload struct {
		ID string `json:"id"`
	}
	outcome, err := transport.Classify[payload](response(200, "200 OK", `{"id":"pay_123"}`))
	require.NoError(t, err)
	require.True(t, outcome.OK())
	assert.Equal(t, "pay_123", outcome.Payload.ID)
}

func TestClassifySuccess_MalformedBody(t *testing.T) {
	type payload struct{}
	_, err := transport.Classify[payload](response(200, "200 OK", `{broken`))
	require.Error(t, err)
}

func TestClassifyFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		statusLine string
		wantMsg    string
		wantUnrec  bool
	}{
		{"not found", 404, "404 Not Found", "Not Found", false},
		{"unauthorized", 401, "401 Unauthorized", "Authentication Error", true},
		{"forbidden", 403, "403 Forbidden", "Authorization Error", false},
		{"conflict", 409, "409 Conflict", "Conflict", false},
		{"bad request uses own status text", 400, "400 Missing Amount Field", "Missing Amount Field", false},
		{"unmapped status", 500, "500 Internal Server Error", "Request Error", false},
		{"teapot", 418, "418 I'm a teapot", "Request Error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := transport.Classify[map[string]any](response(tt.status, tt.statusLine, ""))
			require.NoError(t, err)
			require.False(t, outcome.OK())
			assert.Equal(t, tt.status, outcome.Failure.StatusCode)
			assert.Equal(t, tt.wantMsg, outcome.Failure.StatusMessage)
			assert.Equal(t, tt.wantUnrec, outcome.Failure.Unrecoverable)
		})
	}
}
