package transport

import (
	"context"
	"crypto/rand"
	"net/http"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// setHeaders attaches the standard outbound header set: content
// negotiation, a W3C traceparent for distributed-trace correlation, and
// the bearer credential.
func (c *Client) setHeaders(ctx context.Context, h http.Header) {
	h.Set("Accept", "application/json, */*")
	h.Set("Content-Type", "application/json")
	h.Set("Authorization", "Bearer "+c.apiKey)
	injectTraceparent(ctx, h)
}

// injectTraceparent writes a Traceparent header. When the context already
// carries a span (e.g. an instrumented inbound request), that span's
// identity is propagated; otherwise a fresh sampled trace/span ID pair is
// minted so downstream services can still correlate the call.
func injectTraceparent(ctx context.Context, h http.Header) {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		var tid trace.TraceID
		var sid trace.SpanID
		_, _ = rand.Read(tid[:])
		_, _ = rand.Read(sid[:])
		ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    tid,
			SpanID:     sid,
			TraceFlags: trace.FlagsSampled,
		}))
	}
	propagation.TraceContext{}.Inject(ctx, propagation.HeaderCarrier(h))
}
