package billing

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Customer is one entry in the billing roster. Customers are read-only
// input: they are loaded once per run and never mutated or persisted.
//
// Email, Mobile and MobileCarrier are optional; an empty string means the
// field is absent.
type Customer struct {
	ID                   int64
	Name                 string
	Email                string
	Mobile               string
	MobileCarrier        string
	PaymentMethods       []PaymentInstrument
	DefaultPaymentMethod PaymentType
}

// InstrumentNotFoundError reports a lookup for a payment type the customer
// does not hold. It is a data error, never silently defaulted.
type InstrumentNotFoundError struct {
	CustomerID  int64
	PaymentType PaymentType
}

func (e *InstrumentNotFoundError) Error() string {
	return fmt.Sprintf("customer %d has no payment method for type %s", e.CustomerID, e.PaymentType)
}

// Instrument returns the instrument matching t, or *InstrumentNotFoundError.
func (c *Customer) Instrument(t PaymentType) (PaymentInstrument, error) {
	for _, pm := range c.PaymentMethods {
		if pm.Type() == t {
			return pm, nil
		}
	}
	return nil, &InstrumentNotFoundError{CustomerID: c.ID, PaymentType: t}
}

// DefaultInstrument returns the instrument referenced by the customer's
// default payment-method tag.
func (c *Customer) DefaultInstrument() (PaymentInstrument, error) {
	return c.Instrument(c.DefaultPaymentMethod)
}

// Validate checks the invariant that the default tag references an
// instrument present in the collection. Violations make a failure
// notification uncomposable, so they are rejected at load time.
func (c *Customer) Validate() error {
	if _, err := c.DefaultInstrument(); err != nil {
		return fmt.Errorf("default payment method: %w", err)
	}
	return nil
}

// customerEnvelope is the serialized shape of a Customer. The instrument
// union needs a two-pass decode, so PaymentMethods stays raw here.
type customerEnvelope struct {
	ID                   int64             `json:"id" yaml:"id"`
	Name                 string            `json:"name" yaml:"name"`
	Email                string            `json:"email,omitempty" yaml:"email,omitempty"`
	Mobile               string            `json:"mobile,omitempty" yaml:"mobile,omitempty"`
	MobileCarrier        string            `json:"mobileCarrier,omitempty" yaml:"mobileCarrier,omitempty"`
	PaymentMethods       []json.RawMessage `json:"paymentMethods" yaml:"-"`
	DefaultPaymentMethod PaymentType       `json:"defaultPaymentMethod" yaml:"defaultPaymentMethod"`
}

// UnmarshalJSON decodes a customer record, resolving each entry of the
// paymentMethods array to its concrete variant by tag.
func (c *Customer) UnmarshalJSON(data []byte) error {
	var env customerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	instruments := make([]PaymentInstrument, 0, len(env.PaymentMethods))
	for i, raw := range env.PaymentMethods {
		pm, err := unmarshalInstrument(raw)
		if err != nil {
			return fmt.Errorf("payment method %d: %w", i, err)
		}
		instruments = append(instruments, pm)
	}

	*c = Customer{
		ID:                   env.ID,
		Name:                 env.Name,
		Email:                env.Email,
		Mobile:               env.Mobile,
		MobileCarrier:        env.MobileCarrier,
		PaymentMethods:       instruments,
		DefaultPaymentMethod: env.DefaultPaymentMethod,
	}
	return nil
}

// MarshalJSON emits the same shape UnmarshalJSON accepts.
func (c Customer) MarshalJSON() ([]byte, error) {
	env := customerEnvelope{
		ID:                   c.ID,
		Name:                 c.Name,
		Email:                c.Email,
		Mobile:               c.Mobile,
		MobileCarrier:        c.MobileCarrier,
		DefaultPaymentMethod: c.DefaultPaymentMethod,
	}
	env.PaymentMethods = make([]json.RawMessage, 0, len(c.PaymentMethods))
	for _, pm := range c.PaymentMethods {
		raw, err := json.Marshal(pm)
		if err != nil {
			return nil, err
		}
		env.PaymentMethods = append(env.PaymentMethods, raw)
	}
	return json.Marshal(env)
}

// UnmarshalYAML decodes a customer record from a YAML roster, using the
// same field names as the JSON wire shape.
func (c *Customer) UnmarshalYAML(value *yaml.Node) error {
	var env struct {
		customerEnvelope `yaml:",inline"`
		PaymentMethods   []yaml.Node `yaml:"paymentMethods"`
	}
	if err := value.Decode(&env); err != nil {
		return err
	}

	instruments := make([]PaymentInstrument, 0, len(env.PaymentMethods))
	for i, node := range env.PaymentMethods {
		pm, err := unmarshalInstrumentYAML(&node)
		if err != nil {
			return fmt.Errorf("payment method %d: %w", i, err)
		}
		instruments = append(instruments, pm)
	}

	*c = Customer{
		ID:                   env.ID,
		Name:                 env.Name,
		Email:                env.Email,
		Mobile:               env.Mobile,
		MobileCarrier:        env.MobileCarrier,
		PaymentMethods:       instruments,
		DefaultPaymentMethod: env.DefaultPaymentMethod,
	}
	return nil
}

// unmarshalInstrumentYAML decodes one tagged-union instrument from a YAML node.
func unmarshalInstrumentYAML(node *yaml.Node) (PaymentInstrument, error) {
	var probe struct {
		Type PaymentType `yaml:"type"`
	}
	if err := node.Decode(&probe); err != nil {
		return nil, fmt.Errorf("reading payment method tag: %w", err)
	}

	switch probe.Type {
	case PaymentTypeCard:
		var c Card
		if err := node.Decode(&c); err != nil {
			return nil, fmt.Errorf("decoding card: %w", err)
		}
		return c, nil
	case PaymentTypeBankAccount:
		var b BankAccount
		if err := node.Decode(&b); err != nil {
			return nil, fmt.Errorf("decoding bank account: %w", err)
		}
		return b, nil
	case PaymentTypePayByBank:
		var p PayByBank
		if err := node.Decode(&p); err != nil {
			return nil, fmt.Errorf("decoding pay-by-bank: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown payment method type %q", probe.Type)
	}
}
