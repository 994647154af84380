// internal/utils/money.go
package utils

import (
	"fmt"
	"strings"
)

// The core stores every amount as int64 minor units. The helpers here exist
// only for the presentation boundary; nothing in the financial paths may use
// floats or major-unit decimals.

// zero-decimal currencies have no minor unit (Stripe convention).
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
	"VND": true,
}

// MinorUnitFactor returns the number of minor units per major unit.
func MinorUnitFactor(currency string) int64 {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return 1
	}
	return 100
}

// FormatMinorUnits renders an amount for display, e.g. 2000 GBP -> "20.00".
func FormatMinorUnits(amountCents int64, currency string) string {
	factor := MinorUnitFactor(currency)
	if factor == 1 {
		return fmt.Sprintf("%d", amountCents)
	}

	sign := ""
	if amountCents < 0 {
		sign = "-"
		amountCents = -amountCents
	}
	return fmt.Sprintf("%s%d.%02d", sign, amountCents/factor, amountCents%factor)
}
