package hostnum

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

/*
COMP-1 and COMP-2 items use IBM hexadecimal floating point:

	| sign(1) | exponent(7), excess 64, base 16 | fraction(24 or 56) |

value = (-1)^sign * 0.fraction * 16^(exponent-64)
*/

// DecodeHexFloat32 decodes a 4 byte COMP-1 item.
func DecodeHexFloat32(b []byte) (float32, error) {
	if len(b) != 4 {
		return 0, errors.Wrapf(ErrUnsupportedWidth, "COMP-1 needs 4 bytes, got %d", len(b))
	}
	w := binary.BigEndian.Uint32(b)
	v := hexToFloat(w>>31 != 0, int(w>>24&0x7F), uint64(w&0xFFFFFF), 24)
	if math.IsInf(float64(float32(v)), 0) {
		return 0, errors.Wrapf(ErrOverflow, "COMP-1 value %g exceeds float32", v)
	}
	return float32(v), nil
}

// DecodeHexFloat64 decodes an 8 byte COMP-2 item.
func DecodeHexFloat64(b []byte) (float64, error) {
	if len(b) != 8 {
		return 0, errors.Wrapf(ErrUnsupportedWidth, "COMP-2 needs 8 bytes, got %d", len(b))
	}
	w := binary.BigEndian.Uint64(b)
	return hexToFloat(w>>63 != 0, int(w>>56&0x7F), w&0xFFFFFFFFFFFFFF, 56), nil
}

func hexToFloat(negative bool, exp int, frac uint64, fracBits int) float64 {
	if frac == 0 {
		return 0
	}
	v := math.Ldexp(float64(frac), 4*(exp-64)-fracBits)
	if negative {
		return -v
	}
	return v
}

// EncodeHexFloat32 encodes v as a normalized COMP-1 item.
func EncodeHexFloat32(v float32) ([]byte, error) {
	neg, exp, frac, err := floatToHex(float64(v), 24)
	if err != nil {
		return nil, err
	}
	w := uint32(exp)<<24 | uint32(frac)
	if neg {
		w |= 1 << 31
	}
	return binary.BigEndian.AppendUint32(nil, w), nil
}

// EncodeHexFloat64 encodes v as a normalized COMP-2 item.
func EncodeHexFloat64(v float64) ([]byte, error) {
	neg, exp, frac, err := floatToHex(v, 56)
	if err != nil {
		return nil, err
	}
	w := uint64(exp)<<56 | frac
	if neg {
		w |= 1 << 63
	}
	return binary.BigEndian.AppendUint64(nil, w), nil
}

func floatToHex(v float64, fracBits int) (bool, int, uint64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false, 0, 0, errors.Wrapf(ErrOverflow, "%g has no hexadecimal float form", v)
	}
	if v == 0 {
		return false, 0, 0, nil
	}

	neg := v < 0
	m, e := math.Frexp(math.Abs(v))

	// m * 2^e == f * 16^x with f in [1/16, 1).
	x := e / 4
	if e > 0 && e%4 != 0 {
		x++
	}
	f := math.Ldexp(m, e-4*x)
	frac := uint64(math.Round(math.Ldexp(f, fracBits)))
	if frac>>fracBits != 0 {
		frac >>= 4
		x++
	}

	exp := x + 64
	switch {
	case exp > 127:
		return false, 0, 0, errors.Wrapf(ErrOverflow, "%g exceeds the hexadecimal float range", v)
	case exp < 0:
		// Below the smallest normalized magnitude.
		return false, 0, 0, nil
	}
	return neg, exp, frac, nil
}
