package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     int64
	}{
		{"89.99", "EUR", 8999},
		{"0.1", "usd", 10},
		{"19.999", "EUR", 2000},
		{"0.005", "EUR", 1},
		{"0.004", "EUR", 0},
		{"1500", "JPY", 1500},
		{"1500.5", "JPY", 1501},
		{"1.234", "KWD", 1234},
		{"0", "EUR", 0},
	}
	for _, tt := range tests {
		t.Run(tt.amount+"_"+tt.currency, func(t *testing.T) {
			got, err := ToMinorUnits(decimal.RequireFromString(tt.amount), tt.currency)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToMinorUnits_RejectsNegative(t *testing.T) {
	_, err := ToMinorUnits(decimal.RequireFromString("-0.01"), "EUR")
	assert.ErrorIs(t, err, ErrInvalidLineItem)
}

func TestToMinorUnits_RejectsOutOfRange(t *testing.T) {
	got, err := ToMinorUnits(decimal.RequireFromString("9999999999.99"), "EUR")
	require.NoError(t, err)
	assert.Equal(t, MaxMinorUnits, got)

	_, err = ToMinorUnits(decimal.RequireFromString("10000000000"), "EUR")
	assert.ErrorIs(t, err, ErrInvalidLineItem)

	_, err = ToMinorUnits(decimal.RequireFromString("1e30"), "JPY")
	assert.ErrorIs(t, err, ErrInvalidLineItem)
}

func TestProviderRequestError_Is(t *testing.T) {
	err := error(&ProviderRequestError{Message: "No such price", Code: "resource_missing", StatusCode: 400})
	assert.ErrorIs(t, err, ErrProviderRequest)
	assert.NotErrorIs(t, err, ErrProviderFailure)
	assert.Contains(t, err.Error(), "No such price")
}

func TestAvailable(t *testing.T) {
	assert.False(t, Available(nil))
	assert.False(t, Available(Unconfigured{}))
}

func TestEventSettles(t *testing.T) {
	assert.True(t, (&Event{Type: EventCheckoutSessionCompleted}).Settles())
	assert.True(t, (&Event{Type: EventCheckoutSessionAsyncPaymentSucceeded}).Settles())
	assert.False(t, (&Event{Type: "payment_intent.created"}).Settles())
	assert.False(t, (*Event)(nil).Settles())
}
