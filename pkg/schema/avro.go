package schema

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// rawSchema is the mapping form of an Avro schema.
type rawSchema struct {
	Type        yaml.Node  `yaml:"type"`
	Name        string     `yaml:"name"`
	Fields      []rawField `yaml:"fields"`
	Items       *Schema    `yaml:"items"`
	Size        int        `yaml:"size"`
	LogicalType string     `yaml:"logicalType"`
	Precision   int        `yaml:"precision"`
	Scale       int        `yaml:"scale"`
}

type rawField struct {
	Name string  `yaml:"name"`
	Type *Schema `yaml:"type"`
}

var namedTypes = map[string]Type{
	"null":   Null,
	"string": String,
	"bytes":  Bytes,
	"int":    Int,
	"long":   Long,
	"float":  Float,
	"double": Double,
}

// UnmarshalYAML reads an Avro schema. JSON being a subset of YAML, Avro
// .avsc documents load as they are.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		t, ok := namedTypes[node.Value]
		if !ok {
			return errors.Newf("line %d: unknown type %q", node.Line, node.Value)
		}
		*s = Schema{Type: t}
		return nil

	case yaml.SequenceNode:
		var types []*Schema
		if err := node.Decode(&types); err != nil {
			return err
		}
		*s = Schema{Type: Union, Types: types}
		return nil

	case yaml.MappingNode:
		var raw rawSchema
		if err := node.Decode(&raw); err != nil {
			return err
		}
		return s.fromRaw(&raw)
	}
	return errors.Newf("line %d: unexpected schema node", node.Line)
}

func (s *Schema) fromRaw(raw *rawSchema) error {
	if raw.Type.Kind == 0 {
		return errors.New("schema without type")
	}
	// {"type": {...}} and {"type": [...]} wrap a complete schema.
	if raw.Type.Kind != yaml.ScalarNode {
		return raw.Type.Decode(s)
	}

	switch name := raw.Type.Value; name {
	case "record":
		out := Schema{Type: Record, Name: raw.Name}
		for _, f := range raw.Fields {
			if f.Type == nil {
				return errors.Newf("record %s: field %q has no type", raw.Name, f.Name)
			}
			out.Fields = append(out.Fields, Field{Name: f.Name, Schema: f.Type})
		}
		*s = out
	case "array":
		if raw.Items == nil {
			return errors.New("array without items")
		}
		*s = Schema{Type: Array, Items: raw.Items}
	case "fixed":
		*s = Schema{Type: Fixed, Name: raw.Name, Size: raw.Size}
	default:
		t, ok := namedTypes[name]
		if !ok {
			return errors.Newf("line %d: unknown type %q", raw.Type.Line, name)
		}
		*s = Schema{Type: t}
		if raw.LogicalType == "decimal" && (t == Bytes || t == Fixed) {
			*s = Schema{Type: Decimal, Precision: raw.Precision, Scale: raw.Scale}
		}
	}
	return nil
}

// MarshalJSON renders the schema as an Avro schema document.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.avro())
}

func (s *Schema) avro() any {
	switch s.Type {
	case Record:
		fields := make([]map[string]any, 0, len(s.Fields))
		for _, f := range s.Fields {
			fields = append(fields, map[string]any{"name": f.Name, "type": f.Schema.avro()})
		}
		return map[string]any{"type": "record", "name": s.Name, "fields": fields}
	case Array:
		return map[string]any{"type": "array", "items": s.Items.avro()}
	case Union:
		types := make([]any, 0, len(s.Types))
		for _, t := range s.Types {
			types = append(types, t.avro())
		}
		return types
	case Fixed:
		return map[string]any{"type": "fixed", "name": s.Name, "size": s.Size}
	case Decimal:
		return map[string]any{"type": "bytes", "logicalType": "decimal", "precision": s.Precision, "scale": s.Scale}
	default:
		return s.Type.String()
	}
}
