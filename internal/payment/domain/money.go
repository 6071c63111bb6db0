package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {}, "CLP": {}, "DJF": {}, "GNF": {}, "JPY": {}, "KMF": {}, "KRW": {}, "MGA": {},
	"PYG": {}, "RWF": {}, "UGX": {}, "VND": {}, "VUV": {}, "XAF": {}, "XOF": {}, "XPF": {},
}

var threeDecimalCurrencies = map[string]struct{}{
	"BHD": {}, "JOD": {}, "KWD": {}, "OMR": {}, "TND": {},
}

// MinorUnitExponent returns the number of decimal places of the currency's
// minor unit.
func MinorUnitExponent(currency string) int32 {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if _, ok := zeroDecimalCurrencies[code]; ok {
		return 0
	}
	if _, ok := threeDecimalCurrencies[code]; ok {
		return 3
	}
	return 2
}

// MaxMinorUnits is the largest amount ToMinorUnits accepts.
const MaxMinorUnits int64 = 999_999_999_999

// ToMinorUnits converts a major-unit amount exactly, rounding half away
// from zero. 89.99 EUR becomes 8999.
func ToMinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	if amount.IsNegative() {
		return 0, ErrInvalidLineItem
	}
	minor := amount.Shift(MinorUnitExponent(currency)).Round(0)
	if minor.GreaterThan(decimal.NewFromInt(MaxMinorUnits)) {
		return 0, ErrInvalidLineItem
	}
	return minor.IntPart(), nil
}
