package cobol

// NewPacked returns a COMP-3 item of digits total digits, fraction of them
// after the implied decimal point.
func NewPacked(name string, digits, fraction int, signed bool) *Type {
	return numeric(name, Packed, digits, fraction, signed)
}

// NewZoned returns a DISPLAY numeric item with a trailing overlaid sign.
func NewZoned(name string, digits, fraction int, signed bool) *Type {
	return numeric(name, Zoned, digits, fraction, signed)
}

// NewBinary returns a COMP item.
func NewBinary(name string, digits, fraction int, signed bool) *Type {
	return numeric(name, Binary, digits, fraction, signed)
}

func numeric(name string, k PrimitiveKind, digits, fraction int, signed bool) *Type {
	return &Type{
		Name: name,
		Kind: Primitive,
		Prim: PrimitiveSpec{Kind: k, TotalDigits: digits, FractionDigits: fraction, Signed: signed},
	}
}

// NewFloat returns a COMP-1 item.
func NewFloat(name string) *Type {
	return &Type{Name: name, Kind: Primitive, Prim: PrimitiveSpec{Kind: Float}}
}

// NewDouble returns a COMP-2 item.
func NewDouble(name string) *Type {
	return &Type{Name: name, Kind: Primitive, Prim: PrimitiveSpec{Kind: Double}}
}

// NewString returns a PIC X(n) item.
func NewString(name string, n int) *Type {
	return &Type{Name: name, Kind: Primitive, Prim: PrimitiveSpec{Kind: String, Length: n}}
}

// NewOctets returns an n byte opaque item.
func NewOctets(name string, n int) *Type {
	return &Type{Name: name, Kind: Primitive, Prim: PrimitiveSpec{Kind: OctetStream, Length: n}}
}

// NewComplex returns a group item.
func NewComplex(name string, children ...*Type) *Type {
	return &Type{Name: name, Kind: Complex, Children: children}
}

// NewArray returns a fixed size OCCURS item.
func NewArray(name string, item *Type, occurs int) *Type {
	return &Type{Name: name, Kind: Array, Item: item, MinOccurs: occurs, MaxOccurs: occurs}
}

// NewVarArray returns an OCCURS minOccurs TO maxOccurs DEPENDING ON item.
func NewVarArray(name string, item *Type, minOccurs, maxOccurs int, dependingOn string) *Type {
	return &Type{Name: name, Kind: Array, Item: item, MinOccurs: minOccurs, MaxOccurs: maxOccurs, DependingOn: dependingOn}
}

// NewChoice returns a set of REDEFINES alternatives. An empty name makes
// the choice take its first alternative's name suffixed with "Choice".
func NewChoice(name string, alternatives ...*Type) *Type {
	return &Type{Name: name, Kind: Choice, Children: alternatives}
}
