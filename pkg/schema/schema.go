// Package schema is the target type model decoded host records are built
// against: records, arrays, unions and primitives, in the shape of an Avro
// schema.
package schema

import (
	"github.com/cockroachdb/errors"
)

// Type is the kind of a Schema node.
type Type int

const (
	Null Type = iota
	Record
	Array
	Union
	String
	Fixed
	Bytes
	Int
	Long
	Float
	Double
	Decimal
)

var typeNames = map[Type]string{
	Null:    "null",
	Record:  "record",
	Array:   "array",
	Union:   "union",
	String:  "string",
	Fixed:   "fixed",
	Bytes:   "bytes",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
	Decimal: "decimal",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}

// Field is a named member of a record.
type Field struct {
	Name   string
	Schema *Schema
}

// Schema is one node of the target type tree.
type Schema struct {
	Type Type
	Name string

	Fields []Field   // Record.
	Items  *Schema   // Array.
	Types  []*Schema // Union alternatives, in order.

	Size int // Fixed.

	// Decimal, stored as the unscaled two's-complement bytes.
	Precision int
	Scale     int
}

// NewRecord returns a record schema.
func NewRecord(name string, fields ...Field) *Schema {
	return &Schema{Type: Record, Name: name, Fields: fields}
}

// NewArray returns an array schema.
func NewArray(items *Schema) *Schema {
	return &Schema{Type: Array, Items: items}
}

// NewUnion returns a union schema.
func NewUnion(types ...*Schema) *Schema {
	return &Schema{Type: Union, Types: types}
}

// NewPrimitive returns a schema of a type carrying no parameters.
func NewPrimitive(t Type) *Schema {
	return &Schema{Type: t}
}

// NewFixed returns a fixed size byte block schema.
func NewFixed(name string, size int) *Schema {
	return &Schema{Type: Fixed, Name: name, Size: size}
}

// NewDecimal returns a decimal schema.
func NewDecimal(precision, scale int) *Schema {
	return &Schema{Type: Decimal, Precision: precision, Scale: scale}
}

// Field looks up a record field by name and returns its schema and index.
func (s *Schema) Field(name string) (*Schema, int, bool) {
	if s == nil || s.Type != Record {
		return nil, -1, false
	}
	for i, f := range s.Fields {
		if f.Name == name {
			return f.Schema, i, true
		}
	}
	return nil, -1, false
}

// Optional returns the non-null branch of a two branch union with null, or
// s itself.
func (s *Schema) Optional() *Schema {
	if s == nil || s.Type != Union || len(s.Types) != 2 {
		return s
	}
	switch {
	case s.Types[0].Type == Null:
		return s.Types[1]
	case s.Types[1].Type == Null:
		return s.Types[0]
	}
	return s
}

// Validate checks the tree.
func (s *Schema) Validate() error {
	if s == nil {
		return errors.New("nil schema")
	}
	switch s.Type {
	case Record:
		seen := make(map[string]struct{}, len(s.Fields))
		for _, f := range s.Fields {
			if f.Name == "" {
				return errors.Newf("record %s: unnamed field", s.Name)
			}
			if _, ok := seen[f.Name]; ok {
				return errors.Newf("record %s: duplicate field %q", s.Name, f.Name)
			}
			seen[f.Name] = struct{}{}
			if err := f.Schema.Validate(); err != nil {
				return errors.Wrapf(err, "%s.%s", s.Name, f.Name)
			}
		}
	case Array:
		if err := s.Items.Validate(); err != nil {
			return errors.Wrap(err, "array items")
		}
	case Union:
		if len(s.Types) == 0 {
			return errors.New("empty union")
		}
		for i, t := range s.Types {
			if t != nil && t.Type == Union {
				return errors.Newf("union branch %d is a union", i)
			}
			if err := t.Validate(); err != nil {
				return errors.Wrapf(err, "union branch %d", i)
			}
		}
	case Fixed:
		if s.Size <= 0 {
			return errors.Newf("fixed %s: size %d", s.Name, s.Size)
		}
	case Decimal:
		if s.Precision <= 0 || s.Scale < 0 || s.Scale > s.Precision {
			return errors.Newf("decimal(%d,%d)", s.Precision, s.Scale)
		}
	case Null, String, Bytes, Int, Long, Float, Double:
	default:
		return errors.Newf("unknown schema type %d", s.Type)
	}
	return nil
}
