// Package money holds the fixed-point amount used for listing prices and bids.
// Amounts carry exactly two fractional digits and are persisted as integer cents
// so comparisons in SQL stay exact.
package money

import (
	"bytes"
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Amount struct {
	d decimal.Decimal
}

// Zero is 0.00.
var Zero = Amount{}

// Max is the largest magnitude accepted for a price or a bid.
var Max = FromCents(99_999_999_999)

// ErrOutOfRange reports an amount larger in magnitude than Max.
var ErrOutOfRange = errors.New("money: amount out of range")

// exponents outside this window are rejected before any rescaling
const maxExponent = 32

// Parse reads a decimal string such as "25.50". More than two significant
// fractional digits are rejected rather than rounded, and so is anything
// beyond Max in either direction.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("money: empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	if d.Exponent() > maxExponent {
		return Amount{}, fmt.Errorf("%w: %q", ErrOutOfRange, s)
	}
	if d.Exponent() < -maxExponent || !d.Equal(d.Round(2)) {
		return Amount{}, fmt.Errorf("money: %q has more than two decimal places", s)
	}
	a := Amount{d: d.Round(2)}
	if !a.InRange() {
		return Amount{}, fmt.Errorf("%w: %q", ErrOutOfRange, s)
	}
	return a, nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func FromCents(c int64) Amount { return Amount{d: decimal.New(c, -2)} }

// Cents is only meaningful for amounts within Max.
func (a Amount) Cents() int64 { return a.d.Shift(2).IntPart() }

func (a Amount) InRange() bool { return a.d.Abs().LessThanOrEqual(Max.d) }

func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }
func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }
func (a Amount) GreaterThan(b Amount) bool { return a.d.GreaterThan(b.d) }
func (a Amount) IsNegative() bool { return a.d.IsNegative() }
func (a Amount) IsZero() bool { return a.d.IsZero() }
func (a Amount) String() string { return a.d.StringFixed(2) }
func (a Amount) MarshalJSON() ([]byte, error) { return []byte(strconv.Quote(a.String())), nil }

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = Amount{}
		return nil
	}
	s := string(b)
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Value stores the amount as integer cents.
func (a Amount) Value() (driver.Value, error) {
	if !a.InRange() {
		return nil, fmt.Errorf("%w: %s", ErrOutOfRange, a.d.String())
	}
	return a.Cents(), nil
}

func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*a = FromCents(v)
	case float64:
		*a = Amount{d: decimal.NewFromFloat(v).Shift(-2).Round(2)}
	case []byte:
		c, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("money: scan %q: %w", v, err)
		}
		*a = FromCents(c)
	case string:
		c, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("money: scan %q: %w", v, err)
		}
		*a = FromCents(c)
	case nil:
		*a = Amount{}
	default:
		return fmt.Errorf("money: cannot scan %T", src)
	}
	return nil
}
