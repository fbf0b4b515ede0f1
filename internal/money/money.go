// Package money holds cedi amounts as fixed-point decimals and parses the
// loosely formatted price strings stored in the catalog.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Symbol is the currency mark used when rendering amounts (Ghana cedi)
const Symbol = "₵"

// ErrInvalidAmount is returned when a price string has no parsable number in it
var ErrInvalidAmount = errors.New("invalid amount")

// Money is a fixed-point currency amount. The zero value is ₵0.00.
type Money struct {
	amount decimal.Decimal
}

// Zero is ₵0.00
var Zero = Money{}

// New wraps a decimal amount
func New(d decimal.Decimal) Money {
	return Money{amount: d}
}

// FromCents builds an amount from a whole number of pesewas
func FromCents(cents int64) Money {
	return Money{amount: decimal.New(cents, -2)}
}

// Parse reads a currency-formatted string such as "₵85.00". Everything
// except digits and the decimal point is dropped before parsing.
func Parse(s string) (Money, error) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	return Money{amount: d}, nil
}

// MustParse is Parse for literals known to be valid
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(o Money) Money {
	return Money{amount: m.amount.Add(o.amount)}
}

func (m Money) Sub(o Money) Money {
	return Money{amount: m.amount.Sub(o.amount)}
}

// Mul multiplies by a quantity
func (m Money) Mul(qty int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(qty))}
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

func (m Money) Equal(o Money) bool {
	return m.amount.Equal(o.amount)
}

// Cmp returns -1, 0 or 1
func (m Money) Cmp(o Money) int {
	return m.amount.Cmp(o.amount)
}

func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// Float64 is for metrics only; the value may be inexact
func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// Plain renders the amount with two decimals and no symbol ("85.00")
func (m Money) Plain() string {
	return m.amount.StringFixed(2)
}

// String renders the amount the way prices are stored ("₵85.00")
func (m Money) String() string {
	return Symbol + m.Plain()
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
