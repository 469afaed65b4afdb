package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/syssam/related/schema/field"
)

// yamlField is the long form of a field declaration.
type yamlField struct {
	Type          string `yaml:"type"`
	Relation      string `yaml:"relation,omitempty"`
	InverseName   string `yaml:"inverse_name,omitempty"`
	RelationTable string `yaml:"relation_table,omitempty"`
	String        string `yaml:"string,omitempty"`
	Required      bool   `yaml:"required,omitempty"`
	Local         bool   `yaml:"local,omitempty"`
	Related       bool   `yaml:"related,omitempty"`
	Compute       bool   `yaml:"compute,omitempty"`
}

// UnmarshalYAML accepts either the short scalar form ("char") or the
// mapping form.
func (f *yamlField) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		f.Type = node.Value
		return nil
	case yaml.MappingNode:
		type plain yamlField
		return node.Decode((*plain)(f))
	default:
		return fmt.Errorf("line %d: expected field type or mapping", node.Line)
	}
}

// ParseYAML parses model declarations. Model and field order are kept as
// written.
func ParseYAML(data []byte) (Definitions, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	defs := Definitions{}
	if len(doc.Content) == 0 {
		return defs, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse schema: line %d: expected a mapping of models", root.Line)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		name, body := root.Content[i].Value, root.Content[i+1]
		if _, ok := defs[name]; ok {
			return nil, fmt.Errorf("parse schema: line %d: duplicate model %q", root.Content[i].Line, name)
		}
		fields, err := parseModel(body)
		if err != nil {
			return nil, fmt.Errorf("parse schema: model %q: %w", name, err)
		}
		defs[name] = fields
	}
	return defs, nil
}

func parseModel(body *yaml.Node) ([]*field.Descriptor, error) {
	if body.Kind == yaml.ScalarNode && body.Tag == "!!null" {
		return nil, nil
	}
	if body.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of fields", body.Line)
	}
	fields := make([]*field.Descriptor, 0, len(body.Content)/2)
	for i := 0; i+1 < len(body.Content); i += 2 {
		name := body.Content[i].Value
		var yf yamlField
		if err := body.Content[i+1].Decode(&yf); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		typ, err := field.ParseType(yf.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: line %d: %w", name, body.Content[i+1].Line, err)
		}
		fields = append(fields, &field.Descriptor{
			Name:          name,
			Type:          typ,
			Relation:      yf.Relation,
			InverseName:   yf.InverseName,
			RelationTable: yf.RelationTable,
			String:        yf.String,
			Required:      yf.Required,
			Local:         yf.Local,
			Related:       yf.Related,
			Compute:       yf.Compute,
		})
	}
	return fields, nil
}

// LoadFile reads and processes the YAML declarations at path.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	defs, err := ParseYAML(data)
	if err != nil {
		return nil, err
	}
	return Process(defs)
}
