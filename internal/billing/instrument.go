// Package billing holds the customer and payment-instrument domain model.
//
// PaymentInstrument is a closed union: the three variants implement an
// unexported marker method, so no package outside billing can add one.
// Each variant carries its own Describe implementation, which means a new
// variant cannot be added without also deciding how it reads in a
// customer-facing message.
package billing

import (
	"encoding/json"
	"fmt"
)

// PaymentType identifies a payment-instrument variant on the wire.
type PaymentType string

const (
	PaymentTypeCard        PaymentType = "CARD"
	PaymentTypeBankAccount PaymentType = "US_BANK_ACCOUNT"
	PaymentTypePayByBank   PaymentType = "EU_PAY_BY_BANK"
)

// PaymentInstrument is one of Card, BankAccount or PayByBank.
// Instruments are immutable once loaded.
type PaymentInstrument interface {
	// Type returns the wire tag identifying the variant.
	Type() PaymentType
	// Describe returns the customer-facing description of the instrument,
	// e.g. "Visa credit card ending in 4242".
	Describe() string

	isInstrument()
}

// Card is a credit or debit card.
type Card struct {
	Brand           string `json:"brand" yaml:"brand"`
	CardNumberLast4 string `json:"cardNumberLast4" yaml:"cardNumberLast4"`
}

func (Card) Type() PaymentType { return PaymentTypeCard }
func (Card) isInstrument()     {}

func (c Card) Describe() string {
	return fmt.Sprintf("%s credit card ending in %s", c.Brand, c.CardNumberLast4)
}

// BankAccount is a US bank account (checking or savings).
type BankAccount struct {
	BankName           string `json:"bankName" yaml:"bankName"`
	AccountType        string `json:"accountType" yaml:"accountType"`
	AccountNumberLast4 string `json:"accountNumberLast4" yaml:"accountNumberLast4"`
}

func (BankAccount) Type() PaymentType { return PaymentTypeBankAccount }
func (BankAccount) isInstrument()     {}

func (b BankAccount) Describe() string {
	return fmt.Sprintf("%s account ending in %s", b.BankName, b.AccountNumberLast4)
}

// PayByBank is an EU pay-by-bank mandate identified by IBAN.
type PayByBank struct {
	OrganizationName string `json:"organizationName" yaml:"organizationName"`
	CountryCode      string `json:"countryCode" yaml:"countryCode"`
	IBANLast4        string `json:"ibanLast4" yaml:"ibanLast4"`
}

func (PayByBank) Type() PaymentType { return PaymentTypePayByBank }
func (PayByBank) isInstrument()     {}

func (p PayByBank) Describe() string {
	return fmt.Sprintf("%s bank ending in %s", p.OrganizationName, p.IBANLast4)
}

// MarshalJSON emits the variant's fields plus its "type" tag, matching the
// wire shape consumed by the payment provider.
func (c Card) MarshalJSON() ([]byte, error) {
	type plain Card
	return json.Marshal(struct {
		Type PaymentType `json:"type"`
		plain
	}{c.Type(), plain(c)})
}

func (b BankAccount) MarshalJSON() ([]byte, error) {
	type plain BankAccount
	return json.Marshal(struct {
		Type PaymentType `json:"type"`
		plain
	}{b.Type(), plain(b)})
}

func (p PayByBank) MarshalJSON() ([]byte, error) {
	type plain PayByBank
	return json.Marshal(struct {
		Type PaymentType `json:"type"`
		plain
	}{p.Type(), plain(p)})
}

// unmarshalInstrument decodes one tagged-union instrument from JSON.
func unmarshalInstrument(data []byte) (PaymentInstrument, error) {
	var probe struct {
		Type PaymentType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("reading payment method tag: %w", err)
	}

	switch probe.Type {
	case PaymentTypeCard:
		var c Card
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decoding card: %w", err)
		}
		return c, nil
	case PaymentTypeBankAccount:
		var b BankAccount
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("decoding bank account: %w", err)
		}
		return b, nil
	case PaymentTypePayByBank:
		var p PayByBank
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decoding pay-by-bank: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown payment method type %q", probe.Type)
	}
}
