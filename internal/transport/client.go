// Package transport issues outbound JSON calls under a hard per-call
// deadline and classifies the responses.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds every outbound call in this system.
const DefaultTimeout = 5000 * time.Millisecond

// ErrTimeout is returned when the per-call deadline expires before the
// request settles. The in-flight request is cancelled through its context,
// not abandoned.
var ErrTimeout = errors.New("request timed out")

// Client posts JSON payloads with a fixed header set and per-call deadline.
// It does not retry and does not inspect response bodies.
type Client struct {
	http    *http.Client
	apiKey  string
	timeout time.Duration
}

// NewClient creates a Client. The bearer credential is attached to every
// call as-is; an empty key is sent as an empty bearer token rather than
// rejected locally. A non-positive timeout falls back to DefaultTimeout.
func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		apiKey:  apiKey,
		timeout: timeout,
	}
}

// PostJSON sends body as a JSON POST to url. The whole exchange, including
// reading the response body, must finish within the client's timeout; the
// deadline is released when the caller closes the response body.
func (c *Client) PostJSON(ctx context.Context, url string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(ctx, req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("POST %s: %w", url, ErrTimeout)
		}
		return nil, fmt.Errorf("POST %s: %w", url, err)
	}

	// The deadline must survive until the body is consumed.
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose releases the request context when the response body is closed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
