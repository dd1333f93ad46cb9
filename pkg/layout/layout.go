// Package layout loads record layouts from YAML files. A file describes the
// record tree, the host context, the record format and optionally the
// target schema and a signature to find record starts with.
//
//	name: custdat
//	context: ebcdic
//	rdw: low
//	record:
//	  name: CustomerData
//	  children:
//	    - {name: CustomerId, kind: zoned, digits: 6}
//	    - name: Transactions
//	      kind: array
//	      maxOccurs: 5
//	      dependingOn: TransactionNbr
//	      item: ...
//	signature:
//	  - {check: digits, offset: 0, length: 6}
package layout

import (
	"bytes"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mr-karan/zosavro/pkg/cobol"
	"github.com/mr-karan/zosavro/pkg/matcher"
	"github.com/mr-karan/zosavro/pkg/rdw"
	"github.com/mr-karan/zosavro/pkg/schema"
	"gopkg.in/yaml.v3"
)

// Layout is a loaded layout file.
type Layout struct {
	Name    string
	Type    *cobol.Type
	Schema  *schema.Schema
	Context cobol.Context

	// RDW is set when records carry a descriptor word.
	RDW       bool
	RDWLayout rdw.Layout

	// Matcher is nil when the file has no signature and records carry no
	// descriptor word.
	Matcher matcher.Matcher
}

type file struct {
	Name      string         `yaml:"name"`
	Context   string         `yaml:"context"`
	RDW       string         `yaml:"rdw"`
	Record    *item          `yaml:"record"`
	Schema    *schema.Schema `yaml:"schema"`
	Signature []check        `yaml:"signature"`
}

type item struct {
	Name         string  `yaml:"name"`
	Kind         string  `yaml:"kind"`
	Digits       int     `yaml:"digits"`
	Fraction     int     `yaml:"fraction"`
	Signed       bool    `yaml:"signed"`
	SignLeading  bool    `yaml:"signLeading"`
	SignSeparate bool    `yaml:"signSeparate"`
	Length       int     `yaml:"length"`
	Children     []*item `yaml:"children"`
	Item         *item   `yaml:"item"`
	Occurs       int     `yaml:"occurs"`
	MinOccurs    int     `yaml:"minOccurs"`
	MaxOccurs    int     `yaml:"maxOccurs"`
	DependingOn  string  `yaml:"dependingOn"`
}

type check struct {
	Check  string `yaml:"check"`
	Offset int    `yaml:"offset"`
	Length int    `yaml:"length"`
	Width  int    `yaml:"width"`
	Signed bool   `yaml:"signed"`
	Zone   *byte  `yaml:"zone"`
	Min    int64  `yaml:"min"`
	Max    int64  `yaml:"max"`
}

// Load reads and parses a layout file.
func Load(path string) (*Layout, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading layout %s", path)
	}
	l, err := Parse(b)
	if err != nil {
		return nil, errors.Wrapf(err, "layout %s", path)
	}
	return l, nil
}

// Parse parses a layout document. Without a schema one is derived from the
// record tree.
func Parse(b []byte) (*Layout, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "invalid YAML")
	}
	if f.Record == nil {
		return nil, errors.New("no record")
	}

	ctx, err := cobol.ParseContext(f.Context)
	if err != nil {
		return nil, err
	}
	typ, err := f.Record.build()
	if err != nil {
		return nil, err
	}
	if err := typ.Validate(); err != nil {
		return nil, errors.Wrap(err, "record")
	}

	l := &Layout{
		Name:    f.Name,
		Type:    typ,
		Schema:  f.Schema,
		Context: ctx,
	}
	if l.Name == "" {
		l.Name = typ.Name
	}
	if l.Schema == nil {
		if l.Schema, err = schema.FromCobol(typ); err != nil {
			return nil, err
		}
	} else if err := l.Schema.Validate(); err != nil {
		return nil, errors.Wrap(err, "schema")
	}

	if f.RDW != "" {
		if l.RDWLayout, err = rdw.ParseLayout(f.RDW); err != nil {
			return nil, err
		}
		l.RDW = true
	}

	if len(f.Signature) > 0 {
		checks := make([]matcher.Check, 0, len(f.Signature))
		for i, c := range f.Signature {
			mc, err := c.build(l)
			if err != nil {
				return nil, errors.Wrapf(err, "signature check %d", i)
			}
			checks = append(checks, mc)
		}
		l.Matcher = matcher.NewSignature(checks...)
	} else if l.RDW {
		l.Matcher = matcher.NewRDW(l.RDWLayout, typ.ByteLen()+rdw.PrefixLen)
	}
	return l, nil
}

func (it *item) build() (*cobol.Type, error) {
	if it == nil {
		return nil, errors.New("empty item")
	}

	kind := strings.ToLower(it.Kind)
	if kind == "" && len(it.Children) > 0 {
		kind = "group"
	}

	switch kind {
	case "group", "choice":
		children := make([]*cobol.Type, 0, len(it.Children))
		for _, c := range it.Children {
			t, err := c.build()
			if err != nil {
				return nil, errors.Wrapf(err, "%s", it.Name)
			}
			children = append(children, t)
		}
		if kind == "choice" {
			return cobol.NewChoice(it.Name, children...), nil
		}
		return cobol.NewComplex(it.Name, children...), nil

	case "array":
		el, err := it.Item.build()
		if err != nil {
			return nil, errors.Wrapf(err, "%s", it.Name)
		}
		if it.DependingOn == "" {
			n := max(it.Occurs, it.MaxOccurs)
			return cobol.NewArray(it.Name, el, n), nil
		}
		return cobol.NewVarArray(it.Name, el, it.MinOccurs, it.MaxOccurs, it.DependingOn), nil

	case "packed", "comp-3":
		return cobol.NewPacked(it.Name, it.Digits, it.Fraction, it.Signed), nil
	case "zoned", "display":
		t := cobol.NewZoned(it.Name, it.Digits, it.Fraction, it.Signed)
		t.Prim.SignLeading = it.SignLeading
		t.Prim.SignSeparate = it.SignSeparate
		return t, nil
	case "binary", "comp", "comp-5":
		return cobol.NewBinary(it.Name, it.Digits, it.Fraction, it.Signed), nil
	case "float", "comp-1":
		return cobol.NewFloat(it.Name), nil
	case "double", "comp-2":
		return cobol.NewDouble(it.Name), nil
	case "string":
		return cobol.NewString(it.Name, it.Length), nil
	case "octets":
		return cobol.NewOctets(it.Name, it.Length), nil
	}
	return nil, errors.Newf("%s: unknown kind %q", it.Name, it.Kind)
}

func (c check) build(l *Layout) (matcher.Check, error) {
	switch strings.ToLower(c.Check) {
	case "rdw":
		return matcher.RDWRange{Layout: l.RDWLayout, Min: int(c.Min), Max: int(c.Max)}, nil
	case "int":
		if c.Width != 2 && c.Width != 4 && c.Width != 8 {
			return nil, errors.Newf("int check of width %d", c.Width)
		}
		return matcher.IntRange{Offset: c.Offset, Width: c.Width, Signed: c.Signed, Min: c.Min, Max: c.Max}, nil
	case "digits":
		zone := l.Context.Zoned.Zone
		if c.Zone != nil {
			zone = *c.Zone
		}
		return matcher.Digits{Offset: c.Offset, Length: c.Length, Zone: zone}, nil
	case "bytes":
		if c.Min < 0 || c.Max > 0xFF || c.Min > c.Max {
			return nil, errors.Newf("byte range %d to %d", c.Min, c.Max)
		}
		return matcher.ByteRange{Offset: c.Offset, Length: c.Length, Min: byte(c.Min), Max: byte(c.Max)}, nil
	}
	return nil, errors.Newf("unknown check %q", c.Check)
}
