package hostnum

import (
	"math"
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
)

// Decimal is an arbitrary precision decimal number represented as an
// unscaled integer and a scale. Its value is Unscaled * 10^-Scale.
type Decimal struct {
	Unscaled *big.Int
	Scale    int
}

// NewDecimal returns a decimal from an int64 unscaled value.
func NewDecimal(unscaled int64, scale int) Decimal {
	return Decimal{Unscaled: big.NewInt(unscaled), Scale: scale}
}

// ParseDecimal parses a plain decimal literal such as "-123.45". The scale
// of the result is the number of digits after the decimal point.
func ParseDecimal(s string) (Decimal, error) {
	var (
		text  = strings.TrimSpace(s)
		scale = 0
	)
	if i := strings.IndexByte(text, '.'); i >= 0 {
		scale = len(text) - i - 1
		text = text[:i] + text[i+1:]
	}
	v, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return Decimal{}, errors.Newf("invalid decimal literal %q", s)
	}
	return Decimal{Unscaled: v, Scale: scale}, nil
}

func (d Decimal) unscaled() *big.Int {
	if d.Unscaled == nil {
		return new(big.Int)
	}
	return d.Unscaled
}

// Sign returns -1, 0 or +1.
func (d Decimal) Sign() int {
	return d.unscaled().Sign()
}

// Equal reports whether both the unscaled value and the scale are identical.
func (d Decimal) Equal(o Decimal) bool {
	return d.Scale == o.Scale && d.unscaled().Cmp(o.unscaled()) == 0
}

// Int64 returns the value as an int64 when the scale is zero and the value
// fits without loss.
func (d Decimal) Int64() (int64, bool) {
	u := d.unscaled()
	if d.Scale != 0 || !u.IsInt64() {
		return 0, false
	}
	return u.Int64(), true
}

// Int32 is like Int64 for the int32 range.
func (d Decimal) Int32() (int32, bool) {
	v, ok := d.Int64()
	if !ok || v < math.MinInt32 || v > math.MaxInt32 {
		return 0, false
	}
	return int32(v), true
}

// String renders the decimal with exactly Scale fractional digits.
func (d Decimal) String() string {
	u := d.unscaled()
	digits := new(big.Int).Abs(u).String()
	if d.Scale > 0 {
		if len(digits) <= d.Scale {
			digits = strings.Repeat("0", d.Scale-len(digits)+1) + digits
		}
		digits = digits[:len(digits)-d.Scale] + "." + digits[len(digits)-d.Scale:]
	} else if d.Scale < 0 && u.Sign() != 0 {
		digits += strings.Repeat("0", -d.Scale)
	}
	if u.Sign() < 0 {
		return "-" + digits
	}
	return digits
}

// Bytes returns the minimal two's-complement big-endian encoding of the
// unscaled value. The scale is not part of the encoding. Zero encodes as a
// single 0x00 byte.
func (d Decimal) Bytes() []byte {
	u := d.unscaled()
	if u.Sign() == 0 {
		return []byte{0}
	}

	// Number of bytes needed so that the top bit is the sign bit.
	var n int
	if u.Sign() > 0 {
		n = u.BitLen()/8 + 1
	} else {
		n = new(big.Int).Not(u).BitLen()/8 + 1
	}

	v := new(big.Int).Set(u)
	if u.Sign() < 0 {
		v.Add(v, new(big.Int).Lsh(big.NewInt(1), uint(8*n)))
	}
	return v.FillBytes(make([]byte, n))
}

// DecimalFromBytes is the inverse of Decimal.Bytes.
func DecimalFromBytes(b []byte, scale int) Decimal {
	v := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(8*len(b))))
	}
	return Decimal{Unscaled: v, Scale: scale}
}

// digitCount returns the number of decimal digits of |v|, zero counting as one.
func digitCount(v *big.Int) int {
	if v.Sign() == 0 {
		return 1
	}
	return len(new(big.Int).Abs(v).String())
}
