// Copyright 2026 The Upkeep Authors
// SPDX-License-Identifier: Apache-2.0

// Package budget implements the monthly budget workflow: amount
// parsing and display, and the mutation flow that makes a budget
// reduction explicit before it is sent.
//
// All amounts are integer minor-currency units (cents). Decimal
// strings only exist at the edges, in user input and display.
package budget

import (
	"fmt"
	"strings"
)

// Currency is an ISO 4217 code from the platform's supported set.
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
)

// Currencies is the supported set, in display order. EUR first: it is
// the platform default.
var Currencies = []Currency{CurrencyEUR, CurrencyUSD, CurrencyGBP}

// Valid reports whether c is a supported currency.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyEUR, CurrencyUSD, CurrencyGBP:
		return true
	}
	return false
}

// MinimumAmountCents is the smallest budget the platform accepts: 1.00
// in any supported currency.
const MinimumAmountCents int64 = 100

// ParseAmount converts a user-entered decimal string ("500", "499.9",
// "499.99") to cents. Fractions beyond two decimal places are rounded
// half up, not truncated, so "10.005" becomes 1001. Amounts below
// MinimumAmountCents and non-numeric input are rejected.
func ParseAmount(input string) (int64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, fmt.Errorf("budget: amount is required")
	}

	integerPart, fractionPart, hasFraction := strings.Cut(trimmed, ".")
	if integerPart == "" && fractionPart == "" {
		return 0, fmt.Errorf("budget: %q is not a valid amount", input)
	}
	if integerPart == "" {
		integerPart = "0"
	}

	var cents int64
	for _, digit := range integerPart {
		if digit < '0' || digit > '9' {
			return 0, fmt.Errorf("budget: %q is not a valid amount", input)
		}
		cents = cents*10 + int64(digit-'0')
		if cents > (1<<62)/100 {
			return 0, fmt.Errorf("budget: amount %q is too large", input)
		}
	}
	cents *= 100

	if hasFraction {
		if fractionPart == "" {
			return 0, fmt.Errorf("budget: %q is not a valid amount", input)
		}
		for _, digit := range fractionPart {
			if digit < '0' || digit > '9' {
				return 0, fmt.Errorf("budget: %q is not a valid amount", input)
			}
		}
		// First two fraction digits are cents; the third decides
		// rounding. "9" -> 90 cents, "99" -> 99, "995" -> rounds up.
		padded := fractionPart + "00"
		cents += int64(padded[0]-'0')*10 + int64(padded[1]-'0')
		if len(fractionPart) > 2 && padded[2] >= '5' {
			cents++
		}
	}

	if cents < MinimumAmountCents {
		return 0, fmt.Errorf("budget: minimum amount is 1.00, got %q", input)
	}
	return cents, nil
}

// FormatAmount renders cents for display in the given currency. The
// euro sign follows the amount ("500.00 €"); dollar and pound signs
// precede it ("$500.00", "£500.00"). Unknown currencies fall back to
// the code as a suffix.
func FormatAmount(cents int64, currency Currency) string {
	negative := cents < 0
	if negative {
		cents = -cents
	}
	amount := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	if negative {
		amount = "-" + amount
	}

	switch currency {
	case CurrencyEUR:
		return amount + " €"
	case CurrencyUSD:
		return "$" + amount
	case CurrencyGBP:
		return "£" + amount
	default:
		return amount + " " + string(currency)
	}
}
