// Package notify resolves where a customer can be reached, composes the
// payment-failure message, and dispatches it through a delivery provider.
package notify

import (
	"sort"
	"strings"

	"github.com/voltgrid/billnotify/internal/billing"
)

// carrierGateways maps a mobile carrier (lowercase) to the email domain of
// its SMS gateway. Process-wide constant, never mutated.
var carrierGateways = map[string]string{
	"at&t":    "@text.att.net",
	"tmobile": "@tmomail.net",
	"verizon": "@vtext.com",
}

// Resolve returns the destination addresses for a customer, in order of
// preference. An email address wins outright. Otherwise the mobile number
// is routed through the carrier's SMS gateway; when the carrier is absent
// or unknown, the message is broadcast to every known gateway, trading
// duplicate texts for delivery odds. A customer with neither email nor
// mobile resolves to nothing.
//
// Pure function of the customer and the static gateway table.
func Resolve(customer billing.Customer) []string {
	if customer.Email != "" {
		return []string{customer.Email}
	}
	if customer.Mobile == "" {
		return nil
	}

	carrier := strings.ToLower(customer.MobileCarrier)
	if domain, ok := carrierGateways[carrier]; ok {
		return []string{customer.Mobile + domain}
	}

	addrs := make([]string, 0, len(carrierGateways))
	for _, domain := range gatewayDomains() {
		addrs = append(addrs, customer.Mobile+domain)
	}
	return addrs
}

// gatewayDomains returns every known SMS-gateway domain in stable order.
func gatewayDomains() []string {
	domains := make([]string, 0, len(carrierGateways))
	for _, d := range carrierGateways {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}
