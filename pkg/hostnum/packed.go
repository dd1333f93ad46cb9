package hostnum

import (
	"math/big"

	"github.com/cockroachdb/errors"
)

/*
Packed decimal (COMP-3) stores two BCD digits per byte. The low nibble of the
last byte holds the sign.

	PIC S9(5) COMP-3, value -12345:

	-------------------------
	| 0x12 | 0x34 | 0x5D    |
	-------------------------
	  1 2    3 4    5 sign

An even digit count leaves an unused high nibble in the first byte.
*/

// Nibbles holds the sign nibble codes of a host character set.
type Nibbles struct {
	Positive byte // Signed, positive.
	Negative byte // Signed, negative.
	Unsigned byte // No sign.
}

// EBCDICNibbles are the conventional z/OS sign codes.
var EBCDICNibbles = Nibbles{Positive: 0x0C, Negative: 0x0D, Unsigned: 0x0F}

var bigTen = big.NewInt(10)

// digits accumulates decimal digits, switching to a big.Int past 18 digits.
type digits struct {
	small uint64
	n     int
	large *big.Int
}

func (a *digits) push(d byte) {
	if a.large == nil && a.n < 18 {
		a.small = a.small*10 + uint64(d)
		a.n++
		return
	}
	if a.large == nil {
		a.large = new(big.Int).SetUint64(a.small)
	}
	a.large.Mul(a.large, bigTen)
	a.large.Add(a.large, big.NewInt(int64(d)))
}

func (a *digits) value(negative bool) *big.Int {
	v := a.large
	if v == nil {
		v = new(big.Int).SetUint64(a.small)
	}
	if negative {
		v.Neg(v)
	}
	return v
}

// PackedLen returns the byte length of a packed decimal holding n digits.
func PackedLen(n int) int {
	return n/2 + 1
}

// DecodePacked decodes a packed decimal. Any of the positive, negative or
// unsigned sign codes is accepted regardless of the declared signedness.
func DecodePacked(b []byte, scale int, signs Nibbles) (Decimal, error) {
	if len(b) == 0 {
		return Decimal{}, errors.Wrap(ErrMalformedNumeric, "empty packed decimal")
	}

	var (
		acc  digits
		last = len(b) - 1
	)
	for i, c := range b {
		hi, lo := c>>4, c&0x0F
		if hi > 9 {
			return Decimal{}, errors.Wrapf(ErrMalformedNumeric, "packed digit 0x%X at byte %d", hi, i)
		}
		acc.push(hi)
		if i == last {
			break
		}
		if lo > 9 {
			return Decimal{}, errors.Wrapf(ErrMalformedNumeric, "packed digit 0x%X at byte %d", lo, i)
		}
		acc.push(lo)
	}

	var negative bool
	switch sign := b[last] & 0x0F; sign {
	case signs.Negative:
		negative = true
	case signs.Positive, signs.Unsigned:
	default:
		return Decimal{}, errors.Wrapf(ErrMalformedNumeric, "packed sign nibble 0x%X", sign)
	}

	return Decimal{Unscaled: acc.value(negative), Scale: scale}, nil
}

// EncodePacked encodes d as a packed decimal of n digits. The scale of d is
// taken as already matching the field.
//
// The sign nibble is derived from d alone: a signed field gets the positive
// code for zero and positive values, so a signed field read with the unsigned
// code or a negative zero re-encodes with the positive code.
func EncodePacked(d Decimal, n int, signed bool, signs Nibbles) ([]byte, error) {
	u := d.unscaled()
	if !signed && u.Sign() < 0 {
		return nil, errors.Wrapf(ErrOverflow, "negative value %s for unsigned packed field", d)
	}
	if digitCount(u) > n {
		return nil, errors.Wrapf(ErrOverflow, "%s exceeds %d packed digits", d, n)
	}

	var (
		out  = make([]byte, PackedLen(n))
		text = new(big.Int).Abs(u).String()
		sign = signs.Positive
	)
	switch {
	case !signed:
		sign = signs.Unsigned
	case u.Sign() < 0:
		sign = signs.Negative
	}
	out[len(out)-1] = sign

	// Nibble 2*len-1 is the sign; digits fill leftwards from the one before it.
	nib := 2*len(out) - 2
	for i := len(text) - 1; i >= 0; i-- {
		v := text[i] - '0'
		if nib%2 == 0 {
			out[nib/2] |= v << 4
		} else {
			out[nib/2] |= v
		}
		nib--
	}
	return out, nil
}
