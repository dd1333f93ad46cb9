// Package decoder turns the host bytes of one record into a structured value
// by walking a record layout and a target schema side by side.
package decoder

import (
	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/pkg/cobol"
	"github.com/mr-karan/zosavro/pkg/schema"
)

// ChoiceStrategy picks the alternative of a choice from the values of items
// decoded earlier in the record. offset is where the choice starts in host.
// Returning false leaves the choice to the default policy: the first
// alternative that decodes without error wins.
type ChoiceStrategy interface {
	Choose(choice *cobol.Type, vars Variables, host []byte, offset int) (int, bool)
}

// ChoiceFunc adapts a function to ChoiceStrategy.
type ChoiceFunc func(choice *cobol.Type, vars Variables, host []byte, offset int) (int, bool)

func (f ChoiceFunc) Choose(choice *cobol.Type, vars Variables, host []byte, offset int) (int, bool) {
	return f(choice, vars, host, offset)
}

// Config wires a Decoder. Type and Schema are required.
type Config struct {
	Type   *cobol.Type
	Schema *schema.Schema

	// Context defaults to EBCDIC.
	Context *cobol.Context

	// ChoiceStrategy is optional.
	ChoiceStrategy ChoiceStrategy

	// Tracked names items whose values are collected for the choice
	// strategy. Items an array depends on are always tracked.
	Tracked []string
}

// Decoder decodes records of one layout. It holds no per-record state and is
// safe for concurrent use.
type Decoder struct {
	typ      *cobol.Type
	schema   *schema.Schema
	ctx      cobol.Context
	strategy ChoiceStrategy
	tracked  map[string]struct{}
	maxLen   int
}

// Result is one decoded record.
type Result struct {
	// Value is a *schema.RecordValue for a group layout.
	Value any
	// Consumed is the number of host bytes the record used.
	Consumed int
	// Vars are the tracked values seen while decoding.
	Vars Variables
}

// New validates cfg and returns a Decoder.
func New(cfg Config) (*Decoder, error) {
	if cfg.Type == nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, "no record layout")
	}
	if cfg.Schema == nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, "no schema")
	}
	if err := cfg.Type.Validate(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "record layout"), ErrInvalidConfiguration)
	}
	if err := cfg.Schema.Validate(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "schema"), ErrInvalidConfiguration)
	}

	d := &Decoder{
		typ:      cfg.Type,
		schema:   cfg.Schema,
		ctx:      cobol.EBCDIC(),
		strategy: cfg.ChoiceStrategy,
		tracked:  make(map[string]struct{}),
		maxLen:   cfg.Type.ByteLen(),
	}
	if cfg.Context != nil {
		if cfg.Context.Charset == nil {
			return nil, errors.Wrap(ErrInvalidConfiguration, "host context without a charset")
		}
		d.ctx = *cfg.Context
	}
	for _, n := range cfg.Tracked {
		d.tracked[n] = struct{}{}
	}
	for _, n := range cfg.Type.DependingOnNames() {
		d.tracked[n] = struct{}{}
	}
	return d, nil
}

// MaxLen is the largest number of bytes a record can use.
func (d *Decoder) MaxLen() int {
	return d.maxLen
}

// Type returns the record layout.
func (d *Decoder) Type() *cobol.Type {
	return d.typ
}

// Schema returns the target schema.
func (d *Decoder) Schema() *schema.Schema {
	return d.schema
}

// Decode decodes one record from the start of host. host may hold more
// bytes than the record; Result.Consumed tells how many were used.
func (d *Decoder) Decode(host []byte) (Result, error) {
	s := &state{
		d:    d,
		cur:  cursor{host: host},
		vars: make(Variables),
	}
	v, err := s.decode(d.typ, d.schema)
	if err != nil {
		return Result{Consumed: s.cur.pos}, err
	}
	return Result{Value: v, Consumed: s.cur.pos, Vars: s.vars}, nil
}

// state is the mutable part of one Decode call.
type state struct {
	d    *Decoder
	cur  cursor
	vars Variables
}

func (s *state) decode(t *cobol.Type, sc *schema.Schema) (any, error) {
	switch t.Kind {
	case cobol.Complex:
		return s.complex(t, sc)
	case cobol.Array:
		return s.array(t, sc)
	case cobol.Choice:
		u := sc.Optional()
		v, alt, err := s.choice(t, func(i int) (*schema.Schema, error) {
			switch {
			case u == nil:
				return nil, errors.Wrapf(ErrSchemaMismatch, "choice %s without schema", t.ChoiceName())
			case u.Type != schema.Union && len(t.Children) == 1:
				return u, nil
			case u.Type != schema.Union:
				return nil, errors.Wrapf(ErrSchemaMismatch, "choice %s: %s schema", t.ChoiceName(), u.Type)
			case i >= len(u.Types):
				return nil, errors.Wrapf(ErrSchemaMismatch, "choice %s: no union branch %d", t.ChoiceName(), i)
			}
			return u.Types[i], nil
		})
		if err != nil {
			return nil, err
		}
		if u.Type == schema.Union {
			return schema.UnionValue{Branch: alt, Value: v}, nil
		}
		return v, nil
	case cobol.Primitive:
		return s.primitive(t, sc)
	}
	return nil, errors.Newf("%s: unknown kind %d", t.Name, t.Kind)
}

func (s *state) complex(t *cobol.Type, sc *schema.Schema) (any, error) {
	sc = sc.Optional()
	if sc == nil || sc.Type != schema.Record {
		return nil, errors.Wrapf(ErrSchemaMismatch, "group %s needs a record schema", t.Name)
	}

	rec := schema.NewRecordValue(sc)
	for _, c := range t.Children {
		if c.Kind == cobol.Choice {
			if err := s.choiceChild(rec, c); err != nil {
				return nil, errors.Wrapf(err, "%s", t.Name)
			}
			continue
		}

		fs, i, ok := sc.Field(c.Name)
		if !ok {
			return nil, errors.Wrapf(ErrSchemaMismatch, "record %s has no field %s", sc.Name, c.Name)
		}
		v, err := s.decode(c, fs)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", t.Name)
		}
		rec.PutAt(i, v)
	}
	return rec, nil
}

// choiceChild decodes a choice held by a group. The value goes in the
// record field named after the choice, whose union branches match the
// alternatives in order. Without such a field the alternatives are
// flattened into the record: each one resolves to the field carrying its
// own name.
func (s *state) choiceChild(rec *schema.RecordValue, t *cobol.Type) error {
	sc := rec.Schema()
	slot := t.ChoiceName()
	if fs, i, ok := sc.Field(slot); ok {
		v, err := s.decode(t, fs)
		if err != nil {
			return err
		}
		rec.PutAt(i, v)
		return nil
	}

	v, alt, err := s.choice(t, func(i int) (*schema.Schema, error) {
		name := t.Children[i].Name
		fs, _, ok := sc.Field(name)
		if !ok {
			return nil, errors.Wrapf(ErrSchemaMismatch, "record %s has no field %s or %s", sc.Name, slot, name)
		}
		return fs, nil
	})
	if err != nil {
		return err
	}
	_, i, _ := sc.Field(t.Children[alt].Name)
	rec.PutAt(i, v)
	return nil
}

func (s *state) array(t *cobol.Type, sc *schema.Schema) (any, error) {
	sc = sc.Optional()
	if sc == nil || sc.Type != schema.Array {
		return nil, errors.Wrapf(ErrSchemaMismatch, "array %s needs an array schema", t.Name)
	}

	n := t.MaxOccurs
	if t.DependingOn != "" {
		v, ok := s.vars.Int(t.DependingOn)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidOccurs, "%s depends on %s which has no integer value", t.Name, t.DependingOn)
		}
		if v < int64(t.MinOccurs) || v > int64(t.MaxOccurs) {
			return nil, errors.Wrapf(ErrInvalidOccurs, "%s: %s is %d, expected %d to %d", t.Name, t.DependingOn, v, t.MinOccurs, t.MaxOccurs)
		}
		n = int(v)
	}

	items := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, err := s.decode(t.Item, sc.Items)
		if err != nil {
			return nil, errors.Wrapf(err, "%s[%d]", t.Name, i)
		}
		items = append(items, v)
	}
	return items, nil
}
