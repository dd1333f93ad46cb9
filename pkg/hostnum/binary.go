package hostnum

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/cockroachdb/errors"
)

// BinaryLen returns the byte width of a COMP field of n digits.
func BinaryLen(n int) int {
	switch {
	case n <= 4:
		return 2
	case n <= 9:
		return 4
	default:
		return 8
	}
}

// DecodeBinaryInt decodes a big-endian two's-complement integer of 2, 4 or
// 8 bytes. Unsigned values are widened so that they never wrap; an 8 byte
// unsigned value above math.MaxInt64 fails with ErrOverflow (use
// DecodeBinary to get it as a Decimal).
func DecodeBinaryInt(b []byte, signed bool) (int64, error) {
	switch len(b) {
	case 2:
		v := binary.BigEndian.Uint16(b)
		if signed {
			return int64(int16(v)), nil
		}
		return int64(v), nil
	case 4:
		v := binary.BigEndian.Uint32(b)
		if signed {
			return int64(int32(v)), nil
		}
		return int64(v), nil
	case 8:
		v := binary.BigEndian.Uint64(b)
		if signed {
			return int64(v), nil
		}
		if v > math.MaxInt64 {
			return 0, errors.Wrapf(ErrOverflow, "unsigned value %d exceeds int64", v)
		}
		return int64(v), nil
	default:
		return 0, errors.Wrapf(ErrUnsupportedWidth, "%d bytes", len(b))
	}
}

// DecodeBinary decodes a COMP / COMP-5 field as a Decimal.
func DecodeBinary(b []byte, signed bool, scale int) (Decimal, error) {
	if len(b) == 8 && !signed {
		return Decimal{Unscaled: new(big.Int).SetUint64(binary.BigEndian.Uint64(b)), Scale: scale}, nil
	}
	v, err := DecodeBinaryInt(b, signed)
	if err != nil {
		return Decimal{}, err
	}
	return NewDecimal(v, scale), nil
}

// EncodeBinary encodes the unscaled value of d on width bytes.
func EncodeBinary(d Decimal, width int, signed bool) ([]byte, error) {
	if width != 2 && width != 4 && width != 8 {
		return nil, errors.Wrapf(ErrUnsupportedWidth, "%d bytes", width)
	}

	var (
		u    = d.unscaled()
		bits = uint(8 * width)
		lo   = new(big.Int)
		hi   = new(big.Int).Lsh(big.NewInt(1), bits)
	)
	if signed {
		lo.Neg(new(big.Int).Lsh(big.NewInt(1), bits-1))
		hi.Lsh(big.NewInt(1), bits-1)
	}
	if u.Cmp(lo) < 0 || u.Cmp(hi) >= 0 {
		return nil, errors.Wrapf(ErrOverflow, "%s does not fit %d bytes", d, width)
	}

	v := new(big.Int).Set(u)
	if v.Sign() < 0 {
		v.Add(v, new(big.Int).Lsh(big.NewInt(1), bits))
	}
	return v.FillBytes(make([]byte, width)), nil
}
