package schema

import (
	"bytes"
	"encoding/json"
	"iter"

	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/pkg/hostnum"
)

/*
Decoded values use these Go types:

	Record  *RecordValue
	Array   []any
	Union   UnionValue when decoded under a union, or the bare value of a
	        branch whose Go type identifies it
	Null    nil
	String  string
	Fixed   []byte
	Bytes   []byte
	Int     int32
	Long    int64
	Float   float32
	Double  float64
	Decimal []byte, minimal two's-complement unscaled value
*/

// RecordValue holds the field values of one record, in schema order.
type RecordValue struct {
	schema *Schema
	values []any
}

// NewRecordValue returns an empty value of the record schema s.
func NewRecordValue(s *Schema) *RecordValue {
	return &RecordValue{schema: s, values: make([]any, len(s.Fields))}
}

// Schema returns the record schema.
func (r *RecordValue) Schema() *Schema {
	return r.schema
}

// Put sets a field value.
func (r *RecordValue) Put(name string, v any) error {
	_, i, ok := r.schema.Field(name)
	if !ok {
		return errors.Newf("record %s has no field %q", r.schema.Name, name)
	}
	r.values[i] = v
	return nil
}

// PutAt sets the value of the i-th field.
func (r *RecordValue) PutAt(i int, v any) {
	r.values[i] = v
}

// Get returns a field value.
func (r *RecordValue) Get(name string) (any, bool) {
	_, i, ok := r.schema.Field(name)
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// All iterates over the fields in schema order.
func (r *RecordValue) All() iter.Seq2[Field, any] {
	return func(yield func(Field, any) bool) {
		for i, f := range r.schema.Fields {
			if !yield(f, r.values[i]) {
				return
			}
		}
	}
}

// UnionValue is a value tagged with the union branch it was decoded
// under. Branches sharing a Go type, such as two decimals of different
// scales, can only be told apart this way.
type UnionValue struct {
	Branch int
	Value  any
}

// Resolve returns the branch of the union s that v belongs to and the
// value of that branch, unwrapping a UnionValue.
func (s *Schema) Resolve(v any) (int, any, bool) {
	i, ok := s.Branch(v)
	if !ok {
		return -1, nil, false
	}
	if uv, ok := v.(UnionValue); ok {
		v = uv.Value
	}
	return i, v, true
}

// Branch returns the index of the union branch v belongs to. The branch of
// a UnionValue is taken as is; any other value is matched on its Go type.
func (s *Schema) Branch(v any) (int, bool) {
	if uv, ok := v.(UnionValue); ok {
		if uv.Branch < 0 || uv.Branch >= len(s.Types) {
			return -1, false
		}
		return uv.Branch, true
	}

	match := func(t Type) bool {
		switch v.(type) {
		case nil:
			return t == Null
		case *RecordValue:
			return t == Record
		case []any:
			return t == Array
		case string:
			return t == String
		case []byte:
			return t == Decimal || t == Bytes || t == Fixed
		case int32:
			return t == Int
		case int64:
			return t == Long
		case float32:
			return t == Float
		case float64:
			return t == Double
		default:
			return false
		}
	}

	// A record value knows its own schema.
	if rv, ok := v.(*RecordValue); ok {
		for i, b := range s.Types {
			if b == rv.schema {
				return i, true
			}
		}
	}
	for i, b := range s.Types {
		if match(b.Type) {
			return i, true
		}
	}
	return -1, false
}

// MarshalJSON renders the record with fields in schema order. Decimals are
// rendered as strings carrying their scale.
func (r *RecordValue) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := appendJSON(&buf, r.schema, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendJSON(buf *bytes.Buffer, s *Schema, v any) error {
	switch s.Type {
	case Record:
		r, ok := v.(*RecordValue)
		if !ok {
			return errors.Newf("record %s: got %T", s.Name, v)
		}
		buf.WriteByte('{')
		for i, f := range s.Fields {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, _ := json.Marshal(f.Name)
			buf.Write(k)
			buf.WriteByte(':')
			if err := appendJSON(buf, f.Schema, r.values[i]); err != nil {
				return errors.Wrapf(err, "%s", f.Name)
			}
		}
		buf.WriteByte('}')
		return nil

	case Array:
		items, ok := v.([]any)
		if !ok {
			return errors.Newf("array: got %T", v)
		}
		buf.WriteByte('[')
		for i, it := range items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := appendJSON(buf, s.Items, it); err != nil {
				return errors.Wrapf(err, "[%d]", i)
			}
		}
		buf.WriteByte(']')
		return nil

	case Union:
		i, bv, ok := s.Resolve(v)
		if !ok {
			return errors.Newf("union: no branch for %T", v)
		}
		return appendJSON(buf, s.Types[i], bv)

	case Decimal:
		b, ok := v.([]byte)
		if !ok {
			return errors.Newf("decimal: got %T", v)
		}
		v = hostnum.DecimalFromBytes(b, s.Scale).String()
	}

	out, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(out)
	return nil
}
