package notify

import (
	"bytes"
	"text/template"

	"github.com/voltgrid/billnotify/internal/billing"
)

// failureTmpl is the fixed body for a payment-failure notice. Carrier SMS
// gateways forward plain text only, so there is no HTML alternative.
var failureTmpl = template.Must(template.New("failure").Parse(
	`Hello, {{.Name}},
The scheduled payment for your electrical bill from your {{.Instrument}} failed.
Please verify your payment details and try again.`))

// Compose renders the failure notice for the instrument matching
// paymentType. The caller chooses which instrument to describe; it is not
// necessarily the customer's default. A customer without a matching
// instrument yields *billing.InstrumentNotFoundError.
func Compose(customer billing.Customer, paymentType billing.PaymentType) (string, error) {
	instrument, err := customer.Instrument(paymentType)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = failureTmpl.Execute(&buf, struct {
		Name       string
		Instrument string
	}{customer.Name, instrument.Describe()})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
