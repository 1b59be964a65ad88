package notify

import (
	"context"
	"encoding/json"

	"github.com/voltgrid/billnotify/internal/transport"
)

// HTTPProvider delivers notifications through the email API as a
// JSON-encoded POST.
type HTTPProvider struct {
	client   *transport.Client
	endpoint string
}

// NewHTTPProvider creates an HTTPProvider posting to endpoint.
func NewHTTPProvider(client *transport.Client, endpoint string) *HTTPProvider {
	return &HTTPProvider{client: client, endpoint: endpoint}
}

// Name returns the provider identifier.
func (p *HTTPProvider) Name() string { return "http" }

// Send posts the message and classifies the response. The API's success
// payload is opaque to this system, so it is kept raw.
func (p *HTTPProvider) Send(ctx context.Context, msg Message) (transport.Outcome[json.RawMessage], error) {
	resp, err := p.client.PostJSON(ctx, p.endpoint, msg)
	if err != nil {
		return transport.Outcome[json.RawMessage]{}, err
	}
	return transport.Classify[json.RawMessage](resp)
}
