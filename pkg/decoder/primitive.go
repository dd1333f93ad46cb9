package decoder

import (
	"bytes"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/pkg/cobol"
	"github.com/mr-karan/zosavro/pkg/hostnum"
	"github.com/mr-karan/zosavro/pkg/schema"
)

func (s *state) primitive(t *cobol.Type, sc *schema.Schema) (any, error) {
	if sc == nil {
		return nil, errors.Wrapf(ErrSchemaMismatch, "%s without schema", t.Name)
	}
	b, err := s.cur.take(t.ByteLen())
	if err != nil {
		return nil, errors.Wrapf(err, "%s", t.Name)
	}
	v, err := s.native(t.Prim, b)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", t.Name)
	}
	if _, ok := s.d.tracked[t.Name]; ok {
		s.vars[t.Name] = v
	}

	out, err := convert(v, sc.Optional())
	if err != nil {
		return nil, errors.Wrapf(err, "%s", t.Name)
	}
	return out, nil
}

// native decodes host bytes to a hostnum.Decimal, string, []byte, float32
// or float64.
func (s *state) native(p cobol.PrimitiveSpec, b []byte) (any, error) {
	switch p.Kind {
	case cobol.Packed:
		return hostnum.DecodePacked(b, p.FractionDigits, s.d.ctx.Packed)
	case cobol.Zoned:
		return hostnum.DecodeZoned(b, p.FractionDigits, p.Signed, s.d.ctx.ZonedFormat(p))
	case cobol.Binary:
		return hostnum.DecodeBinary(b, p.Signed, p.FractionDigits)
	case cobol.Float:
		return hostnum.DecodeHexFloat32(b)
	case cobol.Double:
		return hostnum.DecodeHexFloat64(b)
	case cobol.String:
		return s.d.ctx.DecodeString(b)
	case cobol.OctetStream:
		// The host buffer is reused for the next record.
		return bytes.Clone(b), nil
	}
	return nil, errors.Newf("unknown primitive kind %d", p.Kind)
}

// convert shapes a native value to the schema type. Integers are narrowed
// only when the value fits; otherwise the conversion fails.
func convert(v any, sc *schema.Schema) (any, error) {
	if sc.Type == schema.Union {
		var errs error
		for i, b := range sc.Types {
			if b.Type == schema.Null {
				continue
			}
			out, err := convert(v, b)
			if err == nil {
				return schema.UnionValue{Branch: i, Value: out}, nil
			}
			errs = errors.CombineErrors(errs, err)
		}
		return nil, errors.WithSecondaryError(errors.Wrapf(ErrSchemaMismatch, "no union branch accepts %T", v), errs)
	}

	switch x := v.(type) {
	case hostnum.Decimal:
		return convertDecimal(x, sc)
	case string:
		if sc.Type == schema.String {
			return x, nil
		}
	case []byte:
		switch {
		case sc.Type == schema.Bytes:
			return x, nil
		case sc.Type == schema.Fixed && sc.Size == len(x):
			return x, nil
		}
	case float32:
		switch sc.Type {
		case schema.Float:
			return x, nil
		case schema.Double:
			return float64(x), nil
		}
	case float64:
		if sc.Type == schema.Double {
			return x, nil
		}
	}
	return nil, errors.Wrapf(ErrSchemaMismatch, "%T value for %s schema", v, sc.Type)
}

func convertDecimal(d hostnum.Decimal, sc *schema.Schema) (any, error) {
	switch sc.Type {
	case schema.Int:
		if v, ok := d.Int32(); ok {
			return v, nil
		}
	case schema.Long:
		if v, ok := d.Int64(); ok {
			return v, nil
		}
	case schema.Decimal:
		if d.Scale == sc.Scale {
			return d.Bytes(), nil
		}
		return nil, errors.Wrapf(ErrSchemaMismatch, "decimal of scale %d for schema scale %d", d.Scale, sc.Scale)
	case schema.String:
		return d.String(), nil
	case schema.Double:
		f, err := strconv.ParseFloat(d.String(), 64)
		if err != nil {
			return nil, errors.Wrapf(ErrSchemaMismatch, "%s as double", d)
		}
		return f, nil
	}
	return nil, errors.Wrapf(ErrSchemaMismatch, "%s does not fit %s", d, sc.Type)
}
