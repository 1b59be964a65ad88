package billing_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltgrid/billnotify/internal/billing"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name       string
		instrument billing.PaymentInstrument
		want       string
	}{
		{
			name:       "card",
			instrument: billing.Card{Brand: "Visa", CardNumberLast4: "4242"},
			want:       "Visa credit card ending in 4242",
		},
		{
			name:       "bank account",
			instrument: billing.BankAccount{BankName: "Chase", AccountType: "checking", AccountNumberLast4: "9876"},
			want:       "Chase account ending in 9876",
		},
		{
			name:       "pay by bank",
			instrument: billing.PayByBank{OrganizationName: "N26", CountryCode: "DE", IBANLast4: "1234"},
			want:       "N26 bank ending in 1234",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.instrument.Describe())
		})
	}
}

func TestInstrumentMarshalCarriesTypeTag(t *testing.T) {
	raw, err := json.Marshal(billing.Card{Brand: "Visa", CardNumberLast4: "4242"})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "CARD", m["type"])
	assert.Equal(t, "Visa", m["brand"])
	assert.Equal(t, "4242", m["cardNumberLast4"])
}

func TestInstrumentTypes(t *testing.T) {
	assert.Equal(t, billing.PaymentTypeCard, billing.Card{}.Type())
	assert.Equal(t, billing.PaymentTypeBankAccount, billing.BankAccount{}.Type())
	assert.Equal(t, billing.PaymentTypePayByBank, billing.PayByBank{}.Type())
}
