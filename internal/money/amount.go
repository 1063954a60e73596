package money

import (
	"bytes"

	"github.com/shopspring/decimal"
)

// Amount is the wire form of a monetary value. It marshals to a JSON number
// with exactly two fraction digits and accepts either a JSON number or a
// quoted string when unmarshalling. Incoming values are rounded to cents.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d, rounding it to cents.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: Round(d)}
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(Format(a.Decimal)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		a.Decimal = Zero
		return nil
	}
	s := string(bytes.Trim(data, `"`))
	d, err := Parse(s)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

// String implements fmt.Stringer.
func (a Amount) String() string {
	return Format(a.Decimal)
}
