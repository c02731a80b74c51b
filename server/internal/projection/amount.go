package projection

import (
	"math"
	"strconv"

	"github.com/bytedance/sonic"
)

// NA is the display sentinel for an unavailable figure.
const NA = "N/A"

// Amount is a derived figure that is either a finite number or unavailable.
// The zero value is unavailable.
type Amount struct {
	value float64
	valid bool
}

// Of wraps v. NaN and ±Inf yield an unavailable Amount.
func Of(v float64) Amount {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Amount{}
	}
	return Amount{value: v, valid: true}
}

// Unavailable returns an Amount that renders as N/A.
func Unavailable() Amount { return Amount{} }

// Value returns the number and whether it is available.
func (a Amount) Value() (float64, bool) { return a.value, a.valid }

// Valid reports whether a holds a finite number.
func (a Amount) Valid() bool { return a.valid }

// Float returns the number, or 0 when unavailable.
func (a Amount) Float() float64 {
	if !a.valid {
		return 0
	}
	return a.value
}

// Mul multiplies a by k. An unavailable operand stays unavailable.
func (a Amount) Mul(k float64) Amount {
	if !a.valid {
		return a
	}
	return Of(a.value * k)
}

// Div divides a by k. A zero k yields an unavailable Amount.
func (a Amount) Div(k float64) Amount {
	if !a.valid {
		return a
	}
	return div(a.value, k)
}

// String formats with the shortest exact representation, or N/A.
func (a Amount) String() string {
	if !a.valid {
		return NA
	}
	return strconv.FormatFloat(a.value, 'f', -1, 64)
}

// MarshalJSON encodes an unavailable Amount as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, a.value, 'g', -1, 64), nil
}

// UnmarshalJSON accepts a number or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Amount{}
		return nil
	}
	var v float64
	if err := sonic.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = Of(v)
	return nil
}

// div returns num/den, unavailable when den is zero or the result is not finite.
func div(num, den float64) Amount {
	if den == 0 {
		return Amount{}
	}
	return Of(num / den)
}
