// Package money implements the fixed-point currency amounts used for
// account balances and transaction amounts.
//
// Amounts are kept with exactly two fractional digits and travel as decimal
// strings ("1000.00") so that sums over many small transactions never pick up
// binary floating-point error.
package money

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits every Amount carries.
const Scale = 2

// ErrInvalidAmount is returned when an input cannot be read as a decimal number.
var ErrInvalidAmount = errors.New("invalid amount")

// numeric accepts an optional sign, digits with an optional fraction (or a bare
// fraction such as ".5"), and an optional short exponent.
var numeric = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d{1,3})?$`)

// Amount is a currency value with exactly two fractional digits.
// The zero value is 0.00.
type Amount struct {
	d decimal.Decimal
}

// Zero is 0.00.
var Zero = Amount{}

// Parse reads a decimal string. Surrounding whitespace is ignored. The value is
// normalized to two fractional digits, rounding half away from zero.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if !numeric.MatchString(s) {
		return Amount{}, ErrInvalidAmount
	}
	s = strings.TrimPrefix(s, "+")
	d, err := decimal.NewFromString(canonical(s))
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{d: d}.Normalize(), nil
}

// MustParse is like Parse but panics on invalid input. Intended for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("money: MustParse(%q): %v", s, err))
	}
	return a
}

// ParseJSON reads an amount from a raw JSON value. Both JSON strings and JSON
// numbers are accepted; any other JSON type fails with ErrInvalidAmount.
func ParseJSON(raw json.RawMessage) (Amount, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Amount{}, ErrInvalidAmount
	}
	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Amount{}, ErrInvalidAmount
		}
		return Parse(s)
	case c == '-' || (c >= '0' && c <= '9'):
		return Parse(string(raw))
	default:
		return Amount{}, ErrInvalidAmount
	}
}

// canonical fills in the digits a bare "12." or ".5" leaves out so the decimal
// parser sees a complete number.
func canonical(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	mantissa, exp := s, ""
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mantissa, exp = s[:i], s[i:]
	}
	if strings.HasPrefix(mantissa, ".") {
		mantissa = "0" + mantissa
	}
	mantissa = strings.TrimSuffix(mantissa, ".")
	return sign + mantissa + exp
}

// Normalize rounds to two fractional digits, half away from zero.
func (a Amount) Normalize() Amount {
	return Amount{d: a.d.Round(Scale)}
}

// Add returns a+b truncated to two fractional digits.
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d).Truncate(Scale)}
}

// Sub returns a-b truncated to two fractional digits.
func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d).Truncate(Scale)}
}

// Sum adds all amounts starting from Zero.
func Sum(amounts ...Amount) Amount {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// Equal reports whether a and b hold the same value.
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// IsZero reports whether the amount is 0.00.
func (a Amount) IsZero() bool {
	return a.d.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

// IsPositive reports whether the amount is above zero.
func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

// String formats the amount with exactly two fractional digits.
func (a Amount) String() string {
	return a.d.StringFixed(Scale)
}

// MarshalJSON encodes the amount as a quoted decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts a quoted decimal string or a JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value stores the amount as its decimal string.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan reads an amount from a textual or numeric database column.
func (a *Amount) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case int64:
		*a = Amount{d: decimal.NewFromInt(v)}
		return nil
	case float64:
		*a = Amount{d: decimal.NewFromFloat(v)}.Normalize()
		return nil
	case nil:
		return fmt.Errorf("money: cannot scan NULL into Amount")
	default:
		return fmt.Errorf("money: cannot scan %T into Amount", src)
	}
	parsed, err := Parse(s)
	if err != nil {
		return fmt.Errorf("money: scan %q: %w", s, err)
	}
	*a = parsed
	return nil
}
