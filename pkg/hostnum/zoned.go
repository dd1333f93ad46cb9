package hostnum

import (
	"math/big"

	"github.com/cockroachdb/errors"
)

// ZonedFormat describes how a host character set lays out zoned decimals.
// Each digit occupies one byte: the low nibble is the digit and the high
// nibble is the zone. A signed field either overlays its sign on the zone of
// the first or last digit, or carries a separate sign character.
type ZonedFormat struct {
	Zone         byte    // Zone nibble of plain digits.
	Signs        Nibbles // Overlaid sign zones.
	SignLeading  bool
	SignSeparate bool
	Plus         byte // Separate sign characters in the host charset.
	Minus        byte
}

// EBCDICZoned is the z/OS zoned layout with a trailing overlaid sign.
var EBCDICZoned = ZonedFormat{
	Zone:  0x0F,
	Signs: EBCDICNibbles,
	Plus:  0x4E,
	Minus: 0x60,
}

// ZonedLen returns the byte length of a zoned decimal of n digits.
func (f ZonedFormat) ZonedLen(n int, signed bool) int {
	if signed && f.SignSeparate {
		return n + 1
	}
	return n
}

// DecodeZoned decodes a zoned decimal.
func DecodeZoned(b []byte, scale int, signed bool, f ZonedFormat) (Decimal, error) {
	var (
		body     = b
		negative bool
	)

	if signed && f.SignSeparate {
		if len(b) < 2 {
			return Decimal{}, errors.Wrap(ErrMalformedNumeric, "zoned decimal too short for a separate sign")
		}
		var c byte
		if f.SignLeading {
			c, body = b[0], b[1:]
		} else {
			c, body = b[len(b)-1], b[:len(b)-1]
		}
		switch c {
		case f.Plus:
		case f.Minus:
			negative = true
		default:
			return Decimal{}, errors.Wrapf(ErrMalformedNumeric, "zoned sign character 0x%02X", c)
		}
	}
	if len(body) == 0 {
		return Decimal{}, errors.Wrap(ErrMalformedNumeric, "empty zoned decimal")
	}

	signPos := -1
	if signed && !f.SignSeparate {
		signPos = len(body) - 1
		if f.SignLeading {
			signPos = 0
		}
	}

	var acc digits
	for i, c := range body {
		zone, d := c>>4, c&0x0F
		if d > 9 {
			return Decimal{}, errors.Wrapf(ErrMalformedNumeric, "zoned digit 0x%02X at byte %d", c, i)
		}
		if i == signPos {
			switch zone {
			case f.Signs.Negative:
				negative = true
			case f.Signs.Positive, f.Signs.Unsigned, f.Zone:
			default:
				return Decimal{}, errors.Wrapf(ErrMalformedNumeric, "zoned sign zone 0x%X at byte %d", zone, i)
			}
		} else if zone != f.Zone {
			return Decimal{}, errors.Wrapf(ErrMalformedNumeric, "zoned zone 0x%X at byte %d", zone, i)
		}
		acc.push(d)
	}

	return Decimal{Unscaled: acc.value(negative), Scale: scale}, nil
}

// EncodeZoned encodes d as a zoned decimal of n digits. As with EncodePacked
// an overlaid sign is derived from d alone, so an unsigned or plain zone at
// the sign position and a negative zero re-encode with the positive zone.
func EncodeZoned(d Decimal, n int, signed bool, f ZonedFormat) ([]byte, error) {
	u := d.unscaled()
	if !signed && u.Sign() < 0 {
		return nil, errors.Wrapf(ErrOverflow, "negative value %s for unsigned zoned field", d)
	}
	if digitCount(u) > n {
		return nil, errors.Wrapf(ErrOverflow, "%s exceeds %d zoned digits", d, n)
	}

	var (
		text = new(big.Int).Abs(u).String()
		body = make([]byte, n)
		pad  = n - len(text)
	)
	for i := range body {
		var v byte
		if i >= pad {
			v = text[i-pad] - '0'
		}
		body[i] = f.Zone<<4 | v
	}
	if !signed {
		return body, nil
	}

	if f.SignSeparate {
		sign := f.Plus
		if u.Sign() < 0 {
			sign = f.Minus
		}
		if f.SignLeading {
			return append([]byte{sign}, body...), nil
		}
		return append(body, sign), nil
	}

	zone := f.Signs.Positive
	if u.Sign() < 0 {
		zone = f.Signs.Negative
	}
	pos := n - 1
	if f.SignLeading {
		pos = 0
	}
	body[pos] = zone<<4 | body[pos]&0x0F
	return body, nil
}
