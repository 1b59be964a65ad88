package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltgrid/billnotify/internal/billing"
	"github.com/voltgrid/billnotify/internal/notify"
	"github.com/voltgrid/billnotify/internal/transport"
)

// memProvider records sent messages for inspection.
type memProvider struct {
	sent    []notify.Message
	outcome transport.Outcome[json.RawMessage]
	err     error
}

func (m *memProvider) Name() string { return "memory" }

func (m *memProvider) Send(_ context.Context, msg notify.Message) (transport.Outcome[json.RawMessage], error) {
	m.sent = append(m.sent, msg)
	return m.outcome, m.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func reachableCustomer() billing.Customer {
	return billing.Customer{
		ID:                   7,
		Name:                 "Ada Kowalski",
		Mobile:               "5551234567",
		MobileCarrier:        "tmobile",
		PaymentMethods:       []billing.PaymentInstrument{billing.Card{Brand: "Visa", CardNumberLast4: "4242"}},
		DefaultPaymentMethod: billing.PaymentTypeCard,
	}
}

func TestNotify_Delivers(t *testing.T) {
	provider := &memProvider{}
	d := notify.NewDispatcher(provider, testLogger())

	outcome, err := d.Notify(context.Background(), reachableCustomer(), billing.PaymentTypeCard)
	require.NoError(t, err)
	assert.True(t, outcome.OK())

	require.Len(t, provider.sent, 1)
	msg := provider.sent[0]
	assert.Equal(t, notify.SenderAddress, msg.From)
	assert.Equal(t, []string{"5551234567@tmomail.net"}, msg.To)
	assert.Contains(t, msg.MessageBody, "Visa credit card ending in 4242")
	assert.Contains(t, msg.MessageBody, "Ada Kowalski")
}

func TestNotify_NoRecipients(t *testing.T) {
	provider := &memProvider{}
	d := notify.NewDispatcher(provider, testLogger())

	customer := reachableCustomer()
	customer.Mobile = ""

	_, err := d.Notify(context.Background(), customer, billing.PaymentTypeCard)
	require.ErrorIs(t, err, notify.ErrNoRecipients)
	assert.Empty(t, provider.sent, "no send should be attempted with an empty recipient list")
}

func TestNotify_InstrumentNotFoundPropagates(t *testing.T) {
	provider := &memProvider{}
	d := notify.NewDispatcher(provider, testLogger())

	_, err := d.Notify(context.Background(), reachableCustomer(), billing.PaymentTypePayByBank)
	var notFound *billing.InstrumentNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Empty(t, provider.sent)
}

func TestNotify_TransportErrorPropagates(t *testing.T) {
	sendErr := errors.New("connection refused")
	provider := &memProvider{err: sendErr}
	d := notify.NewDispatcher(provider, testLogger())

	_, err := d.Notify(context.Background(), reachableCustomer(), billing.PaymentTypeCard)
	require.ErrorIs(t, err, sendErr)
}

func TestNotify_RejectionReturnedAsOutcome(t *testing.T) {
	provider := &memProvider{
		outcome: transport.Outcome[json.RawMessage]{
			Failure: &transport.ErrorOutcome{StatusCode: 404, StatusMessage: "Not Found"},
		},
	}
	d := notify.NewDispatcher(provider, testLogger())

	outcome, err := d.Notify(context.Background(), reachableCustomer(), billing.PaymentTypeCard)
	require.NoError(t, err)
	require.False(t, outcome.OK())
	assert.Equal(t, 404, outcome.Failure.StatusCode)
}

func TestHTTPProvider_PostsMessage(t *testing.T) {
	var got notify.Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"accepted":true}`))
	}))
	defer srv.Close()

	client := transport.NewClient("key", time.Second)
	provider := notify.NewHTTPProvider(client, srv.URL)

	outcome, err := provider.Send(context.Background(), notify.Message{
		From:        notify.SenderAddress,
		To:          []string{"ada@example.com"},
		MessageBody: "hello",
	})
	require.NoError(t, err)
	assert.True(t, outcome.OK())
	assert.Equal(t, notify.SenderAddress, got.From)
	assert.Equal(t, []string{"ada@example.com"}, got.To)
	assert.Equal(t, "hello", got.MessageBody)
}
