// Package money provides an exact-decimal monetary amount bound to a currency.
// Arithmetic is only defined between amounts of the same currency; results are
// always represented at the currency's canonical number of fraction digits.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrCurrencyMismatch is returned when arithmetic or comparison is attempted
	// between amounts of different currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrInvalidAmountFormat is returned when an amount string cannot be parsed
	// as a decimal number.
	ErrInvalidAmountFormat = errors.New("invalid amount format")
)

// fractionDigits maps ISO 4217 currency codes to their canonical number of
// decimal places. Currencies not listed here use two.
var fractionDigits = map[string]int32{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0,
	"KMF": 0, "KRW": 0, "PYG": 0, "RWF": 0, "UGX": 0, "UYI": 0,
	"VND": 0, "VUV": 0, "XAF": 0, "XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

// Scale returns the canonical number of fraction digits for a currency code.
func Scale(currencyCode string) int32 {
	if digits, ok := fractionDigits[currencyCode]; ok {
		return digits
	}
	return 2
}

// Money is an immutable monetary amount in a specific currency.
// The zero value is not usable; construct instances with New, FromDecimal or Zero.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// New parses an amount string and binds it to a currency.
// The amount is rounded to the currency's canonical scale.
func New(amount, currencyCode string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmountFormat, amount)
	}
	return FromDecimal(d, currencyCode), nil
}

// FromDecimal creates a Money from a decimal value, rounded to the currency's
// canonical scale.
func FromDecimal(d decimal.Decimal, currencyCode string) Money {
	return Money{amount: d.Round(Scale(currencyCode)), currency: currencyCode}
}

// Zero returns a zero amount in the given currency.
func Zero(currencyCode string) Money {
	return FromDecimal(decimal.Zero, currencyCode)
}

// Amount returns the underlying decimal value.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// CurrencyCode returns the ISO 4217 currency code.
func (m Money) CurrencyCode() string {
	return m.currency
}

// Add returns m + other. Both amounts must share a currency.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return FromDecimal(m.amount.Add(other.amount), m.currency), nil
}

// Sub returns m - other. Both amounts must share a currency.
func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("%w: %s - %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return FromDecimal(m.amount.Sub(other.amount), m.currency), nil
}

// Neg returns the amount with its sign flipped.
func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// Abs returns the absolute value of the amount.
func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs(), currency: m.currency}
}

// Cmp compares two amounts of the same currency.
// Returns -1, 0 or 1 like decimal.Decimal.Cmp.
func (m Money) Cmp(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return m.amount.Cmp(other.amount), nil
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// Equal reports whether both currency and numeric value match at the
// currency's canonical scale.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// WithCurrency rebinds the numeric value to another currency, re-rounding to
// the target currency's scale. No conversion of value takes place.
func (m Money) WithCurrency(currencyCode string) Money {
	return FromDecimal(m.amount, currencyCode)
}

// String returns the plain decimal string at the currency's canonical scale,
// e.g. "50.00" for USD or "50" for JPY.
func (m Money) String() string {
	return m.amount.StringFixed(Scale(m.currency))
}

// Display returns the amount followed by its currency code, e.g. "50.00 USD".
func (m Money) Display() string {
	return m.String() + " " + m.currency
}

// Fraction renders the amount as an integer fraction over the currency's
// smallest unit, the representation used by the GnuCash XML format,
// e.g. 12.34 USD -> "1234/100".
func (m Money) Fraction() string {
	scale := Scale(m.currency)
	denominator := decimal.New(1, scale) // 10^scale
	numerator := m.amount.Mul(denominator)
	return fmt.Sprintf("%s/%s", numerator.Round(0).String(), denominator.String())
}
