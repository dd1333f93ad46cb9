// Package cobol describes the layout of a host record: a tree of primitive,
// group (complex), OCCURS (array) and REDEFINES (choice) items, each with a
// fixed maximum byte length.
package cobol

import (
	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/pkg/hostnum"
)

// Kind tells which of the fields of a Type are meaningful.
type Kind int

const (
	Primitive Kind = iota
	Complex
	Array
	Choice
)

func (k Kind) String() string {
	switch k {
	case Primitive:
		return "primitive"
	case Complex:
		return "complex"
	case Array:
		return "array"
	case Choice:
		return "choice"
	}
	return "unknown"
}

// PrimitiveKind is the host encoding of an elementary item.
type PrimitiveKind int

const (
	Packed      PrimitiveKind = iota // COMP-3
	Zoned                            // DISPLAY numeric
	Binary                           // COMP, COMP-4, COMP-5
	Float                            // COMP-1
	Double                           // COMP-2
	String                           // PIC X
	OctetStream                      // raw bytes
)

func (k PrimitiveKind) String() string {
	switch k {
	case Packed:
		return "packed"
	case Zoned:
		return "zoned"
	case Binary:
		return "binary"
	case Float:
		return "float"
	case Double:
		return "double"
	case String:
		return "string"
	case OctetStream:
		return "octets"
	}
	return "unknown"
}

// Numeric reports whether the kind carries a decimal value.
func (k PrimitiveKind) Numeric() bool {
	return k == Packed || k == Zoned || k == Binary
}

// PrimitiveSpec is the picture of an elementary item.
type PrimitiveSpec struct {
	Kind           PrimitiveKind
	TotalDigits    int  // Numeric kinds.
	FractionDigits int  // Numeric kinds.
	Signed         bool // Numeric kinds.
	SignLeading    bool // Zoned only.
	SignSeparate   bool // Zoned only.
	Length         int  // String and OctetStream.
}

// Type is one node of a record layout.
type Type struct {
	Name string
	Kind Kind

	// Primitive.
	Prim PrimitiveSpec

	// Complex children or Choice alternatives, in declaration order.
	Children []*Type

	// Array.
	Item        *Type
	MinOccurs   int
	MaxOccurs   int
	DependingOn string
}

// ByteLen returns the maximum number of bytes the item occupies.
func (t *Type) ByteLen() int {
	switch t.Kind {
	case Primitive:
		return t.Prim.byteLen()
	case Complex:
		n := 0
		for _, c := range t.Children {
			n += c.ByteLen()
		}
		return n
	case Array:
		return t.MaxOccurs * t.Item.ByteLen()
	case Choice:
		n := 0
		for _, c := range t.Children {
			n = max(n, c.ByteLen())
		}
		return n
	}
	return 0
}

func (p PrimitiveSpec) byteLen() int {
	switch p.Kind {
	case Packed:
		return hostnum.PackedLen(p.TotalDigits)
	case Zoned:
		if p.Signed && p.SignSeparate {
			return p.TotalDigits + 1
		}
		return p.TotalDigits
	case Binary:
		return hostnum.BinaryLen(p.TotalDigits)
	case Float:
		return 4
	case Double:
		return 8
	default:
		return p.Length
	}
}

// ChoiceName is the name a choice is stored under in its parent record.
// Unnamed choices borrow the name of their first alternative.
func (t *Type) ChoiceName() string {
	if t.Name != "" || len(t.Children) == 0 {
		return t.Name
	}
	return t.Children[0].Name + "Choice"
}

// Validate checks that the tree is well formed.
func (t *Type) Validate() error {
	if t == nil {
		return errors.New("nil type")
	}
	switch t.Kind {
	case Primitive:
		p := t.Prim
		switch {
		case p.Kind.Numeric() && p.TotalDigits <= 0:
			return errors.Newf("%s: numeric item without digits", t.Name)
		case p.Kind.Numeric() && (p.FractionDigits < 0 || p.FractionDigits > p.TotalDigits):
			return errors.Newf("%s: %d fraction digits out of %d", t.Name, p.FractionDigits, p.TotalDigits)
		case p.Kind == Binary && p.TotalDigits > 18:
			return errors.Newf("%s: binary item of %d digits", t.Name, p.TotalDigits)
		case (p.Kind == String || p.Kind == OctetStream) && p.Length <= 0:
			return errors.Newf("%s: %s item without length", t.Name, p.Kind)
		}
	case Complex:
		seen := make(map[string]struct{}, len(t.Children))
		for _, c := range t.Children {
			if err := c.Validate(); err != nil {
				return errors.Wrapf(err, "%s", t.Name)
			}
			name := c.Name
			if c.Kind == Choice {
				name = c.ChoiceName()
			}
			if name == "" {
				return errors.Newf("%s: unnamed child", t.Name)
			}
			if _, ok := seen[name]; ok {
				return errors.Newf("%s: duplicate child %q", t.Name, name)
			}
			seen[name] = struct{}{}
		}
	case Array:
		if t.Item == nil {
			return errors.Newf("%s: array without item", t.Name)
		}
		if t.MinOccurs < 0 || t.MaxOccurs < t.MinOccurs {
			return errors.Newf("%s: occurs %d to %d", t.Name, t.MinOccurs, t.MaxOccurs)
		}
		if t.MinOccurs != t.MaxOccurs && t.DependingOn == "" {
			return errors.Newf("%s: variable array without depending on", t.Name)
		}
		if err := t.Item.Validate(); err != nil {
			return errors.Wrapf(err, "%s", t.Name)
		}
	case Choice:
		if len(t.Children) == 0 {
			return errors.Newf("%s: choice without alternatives", t.Name)
		}
		for _, c := range t.Children {
			if err := c.Validate(); err != nil {
				return errors.Wrapf(err, "%s", t.Name)
			}
		}
	default:
		return errors.Newf("%s: unknown kind %d", t.Name, t.Kind)
	}
	return nil
}

// DependingOnNames returns the names of all items that drive an array size.
func (t *Type) DependingOnNames() []string {
	var (
		out  []string
		walk func(*Type)
	)
	walk = func(n *Type) {
		if n == nil {
			return
		}
		if n.Kind == Array {
			if n.DependingOn != "" {
				out = append(out, n.DependingOn)
			}
			walk(n.Item)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t)
	return out
}
