// Package money renders the decimal amounts used across the system as
// currency values. Arithmetic happens in integer cents via go-money so
// totals never pick up float error; statements are Canadian so CAD is
// the default currency.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency assumed for parsed statements.
const DefaultCurrency = gomoney.CAD

// Money is a monetary value in a single currency.
type Money struct {
	m *gomoney.Money
}

// New creates a Money value from minor units (cents).
func New(cents int64, currencyCode string) Money {
	return Money{m: gomoney.New(cents, currencyCode)}
}

// FromDecimal converts a decimal amount to Money, rounding to the
// currency's minor unit.
func FromDecimal(amount decimal.Decimal, currencyCode string) Money {
	currency := gomoney.GetCurrency(currencyCode)
	if currency == nil {
		currency = gomoney.GetCurrency(DefaultCurrency)
	}
	cents := amount.Mul(decimal.New(1, int32(currency.Fraction))).Round(0).IntPart()
	return New(cents, currency.Code)
}

// FromString parses amounts as they appear on statements: optional
// dollar sign, thousands commas, optional leading minus.
func FromString(amount, currencyCode string) (Money, error) {
	cleaned := strings.TrimSpace(amount)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return FromDecimal(d, currencyCode), nil
}

// Zero returns a zero value in the given currency.
func Zero(currencyCode string) Money {
	return New(0, currencyCode)
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 {
	if m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 currency code.
func (m Money) Currency() string {
	if m.m == nil {
		return DefaultCurrency
	}
	return m.m.Currency().Code
}

// Decimal converts back to a decimal amount in major units.
func (m Money) Decimal() decimal.Decimal {
	if m.m == nil {
		return decimal.Zero
	}
	return decimal.New(m.m.Amount(), -int32(m.m.Currency().Fraction))
}

func (m Money) IsZero() bool     { return m.m == nil || m.m.IsZero() }
func (m Money) IsNegative() bool { return m.m != nil && m.m.IsNegative() }
func (m Money) IsPositive() bool { return m.m != nil && m.m.IsPositive() }

// Abs returns the absolute value.
func (m Money) Abs() Money {
	if m.m == nil {
		return Zero(DefaultCurrency)
	}
	return Money{m: m.m.Absolute()}
}

// Negate flips the sign.
func (m Money) Negate() Money {
	if m.m == nil {
		return Zero(DefaultCurrency)
	}
	return Money{m: m.m.Negative()}
}

// Add sums two values. Mixing currencies is an error.
func (m Money) Add(other Money) (Money, error) {
	if m.m == nil {
		return other, nil
	}
	if other.m == nil {
		return m, nil
	}
	result, err := m.m.Add(other.m)
	if err != nil {
		return Money{}, err
	}
	return Money{m: result}, nil
}

// Compare returns -1, 0, or 1. Both values must share a currency.
func (m Money) Compare(other Money) (int, error) {
	if m.m == nil {
		m = Zero(other.Currency())
	}
	if other.m == nil {
		other = Zero(m.Currency())
	}
	return m.m.Compare(other.m)
}

// Display formats for presentation, e.g. "-$1,234.56".
func (m Money) Display() string {
	if m.m == nil {
		return gomoney.New(0, DefaultCurrency).Display()
	}
	return m.m.Display()
}

// String returns the plain decimal form, e.g. "-1234.56".
func (m Money) String() string {
	return m.Decimal().StringFixed(int32(fraction(m.Currency())))
}

// MarshalJSON emits the amount in both machine and display forms.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"amount":   m.String(),
		"currency": m.Currency(),
		"display":  m.Display(),
	})
}

func fraction(code string) int {
	if c := gomoney.GetCurrency(code); c != nil {
		return c.Fraction
	}
	return 2
}
