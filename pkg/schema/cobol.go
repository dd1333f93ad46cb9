package schema

import (
	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/pkg/cobol"
	"github.com/mr-karan/zosavro/pkg/hostnum"
)

// FromCobol derives a schema with the same shape as the layout t.
//
// Numeric items map to the smallest integer type holding every value the
// item can carry: packed and zoned items by digit count, binary items by
// byte width since COMP-5 may use the full width. Anything with fraction
// digits, or wider than a long, becomes a decimal.
func FromCobol(t *cobol.Type) (*Schema, error) {
	if err := t.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid layout")
	}
	s := fromCobol(t)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func fromCobol(t *cobol.Type) *Schema {
	switch t.Kind {
	case cobol.Complex:
		rec := NewRecord(t.Name)
		for _, c := range t.Children {
			name := c.Name
			if c.Kind == cobol.Choice {
				name = c.ChoiceName()
			}
			rec.Fields = append(rec.Fields, Field{Name: name, Schema: fromCobol(c)})
		}
		return rec
	case cobol.Array:
		return NewArray(fromCobol(t.Item))
	case cobol.Choice:
		u := NewUnion()
		for _, c := range t.Children {
			u.Types = append(u.Types, fromCobol(c))
		}
		return u
	default:
		return primitive(t)
	}
}

func primitive(t *cobol.Type) *Schema {
	p := t.Prim
	switch p.Kind {
	case cobol.String:
		return NewPrimitive(String)
	case cobol.OctetStream:
		return NewFixed(t.Name, p.Length)
	case cobol.Float:
		return NewPrimitive(Float)
	case cobol.Double:
		return NewPrimitive(Double)
	}

	if p.FractionDigits > 0 {
		return NewDecimal(p.TotalDigits, p.FractionDigits)
	}
	if p.Kind == cobol.Binary {
		switch w := hostnum.BinaryLen(p.TotalDigits); {
		case w == 2:
			return NewPrimitive(Int)
		case w == 4 && p.Signed:
			return NewPrimitive(Int)
		case w == 4:
			return NewPrimitive(Long)
		case p.Signed:
			return NewPrimitive(Long)
		default:
			return NewDecimal(20, 0)
		}
	}
	switch {
	case p.TotalDigits <= 9:
		return NewPrimitive(Int)
	case p.TotalDigits <= 18:
		return NewPrimitive(Long)
	default:
		return NewDecimal(p.TotalDigits, 0)
	}
}
