package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/voltgrid/billnotify/internal/billing"
	"github.com/voltgrid/billnotify/internal/transport"
)

// ErrNoRecipients reports a customer with neither an email address nor a
// mobile number. The dispatcher refuses to post a message with an empty
// recipient list; callers treat this as an explicit skip.
var ErrNoRecipients = errors.New("customer has no reachable address")

// Dispatcher sends one payment-failure notification for one
// (customer, payment-type) pair.
type Dispatcher struct {
	provider Provider
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher delivering through provider.
func NewDispatcher(provider Provider, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{provider: provider, logger: logger}
}

// Notify resolves the customer's addresses, composes the failure notice
// for paymentType, and delivers it. Backend rejections come back as a
// classified Outcome; transport failures are logged at warn level and
// returned unchanged, as is *billing.InstrumentNotFoundError from
// composition.
func (d *Dispatcher) Notify(ctx context.Context, customer billing.Customer, paymentType billing.PaymentType) (transport.Outcome[json.RawMessage], error) {
	var zero transport.Outcome[json.RawMessage]

	to := Resolve(customer)
	if len(to) == 0 {
		return zero, ErrNoRecipients
	}

	body, err := Compose(customer, paymentType)
	if err != nil {
		return zero, err
	}

	msg := Message{
		From:        SenderAddress,
		To:          to,
		MessageBody: body,
	}

	outcome, err := d.provider.Send(ctx, msg)
	if err != nil {
		d.logger.Warn("error sending message to customer",
			"customer_id", customer.ID,
			"provider", d.provider.Name(),
			"error", err)
		return zero, err
	}
	return outcome, nil
}
