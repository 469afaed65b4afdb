package schema

import (
	"slices"

	"github.com/syssam/related/schema/field"
)

// IDField is the implicit identifier field of every model.
const IDField = "id"

// Definitions map model names to their ordered field declarations.
type Definitions map[string][]*field.Descriptor

// Fields builds the descriptors of one model.
func Fields(builders ...*field.Builder) []*field.Descriptor {
	fields := make([]*field.Descriptor, 0, len(builders))
	for _, b := range builders {
		fields = append(fields, b.Descriptor())
	}
	return fields
}

// Clone returns a deep copy of the definitions.
func (d Definitions) Clone() Definitions {
	c := make(Definitions, len(d))
	for name, fields := range d {
		cf := make([]*field.Descriptor, 0, len(fields))
		for _, f := range fields {
			if f != nil {
				cf = append(cf, f.Clone())
			}
		}
		c[name] = cf
	}
	return c
}

// Model is the resolved schema of one model.
type Model struct {
	// Name of the model.
	Name string
	// Fields in declaration order, followed by synthesized inverses.
	Fields []*field.Descriptor

	byName map[string]*field.Descriptor
}

func newModel(name string) *Model {
	return &Model{Name: name, byName: make(map[string]*field.Descriptor)}
}

func (m *Model) add(f *field.Descriptor) {
	f.Model = m.Name
	m.Fields = append(m.Fields, f)
	m.byName[f.Name] = f
}

// Field returns the field with the given name.
func (m *Model) Field(name string) (*field.Descriptor, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// HasField reports whether the model declares or received the field.
func (m *Model) HasField(name string) bool {
	_, ok := m.byName[name]
	return ok
}

// Relational returns the relational fields of the model.
func (m *Model) Relational() []*field.Descriptor {
	var fields []*field.Descriptor
	for _, f := range m.Fields {
		if f.Type.IsRelational() {
			fields = append(fields, f)
		}
	}
	return fields
}

// Schema is the processed, cross-linked schema. It is immutable after
// Process returns.
type Schema struct {
	models   map[string]*Model
	names    []string
	inverses map[*field.Descriptor]*field.Descriptor
}

// Model returns the resolved model with the given name.
func (s *Schema) Model(name string) (*Model, bool) {
	m, ok := s.models[name]
	return m, ok
}

// Models returns the model names in sorted order.
func (s *Schema) Models() []string {
	return slices.Clone(s.names)
}

// Field returns the field of model with the given name.
func (s *Schema) Field(model, name string) (*field.Descriptor, bool) {
	m, ok := s.models[model]
	if !ok {
		return nil, false
	}
	return m.Field(name)
}

// Inverse returns the inverse of a relational field, or nil when its
// comodel is not part of the schema.
func (s *Schema) Inverse(f *field.Descriptor) *field.Descriptor {
	return s.inverses[f]
}

// Definitions returns the declarations of the resolved schema, including
// synthesized inverses. Processing them again yields an equal schema.
func (s *Schema) Definitions() Definitions {
	defs := make(Definitions, len(s.models))
	for name, m := range s.models {
		fields := make([]*field.Descriptor, 0, len(m.Fields))
		for _, f := range m.Fields {
			fields = append(fields, f.Clone())
		}
		defs[name] = fields
	}
	return defs
}

func (s *Schema) pair(a, b *field.Descriptor) {
	s.inverses[a] = b
	s.inverses[b] = a
}

func (s *Schema) paired(f *field.Descriptor) bool {
	_, ok := s.inverses[f]
	return ok
}
