package schema

import (
	"fmt"
	"slices"
	"sort"

	"github.com/syssam/related"
	"github.com/syssam/related/schema/field"
)

// Process resolves the definitions into a Schema. The definitions are
// copied and never modified.
//
// Every relational field whose comodel is declared ends up with exactly
// one inverse. Processing the definitions of a resolved schema again is a
// fixed point: existing pairs are discovered before anything is
// synthesized.
func Process(defs Definitions) (*Schema, error) {
	s := &Schema{
		models:   make(map[string]*Model, len(defs)),
		inverses: make(map[*field.Descriptor]*field.Descriptor),
	}
	for name := range defs {
		s.names = append(s.names, name)
	}
	sort.Strings(s.names)

	for _, name := range s.names {
		m, err := newModelFrom(name, defs[name])
		if err != nil {
			return nil, err
		}
		s.models[name] = m
	}
	for _, name := range s.names {
		m := s.models[name]
		// Synthesized fields may be appended to m while iterating when the
		// relation points at its own model.
		for i := 0; i < len(m.Fields); i++ {
			if err := s.resolve(m, m.Fields[i]); err != nil {
				return nil, err
			}
		}
	}
	for _, name := range s.names {
		m := s.models[name]
		for i := 0; i < len(m.Fields); i++ {
			f := m.Fields[i]
			if f.Type != field.TypeMany2One || s.paired(f) {
				continue
			}
			comodel, ok := s.models[f.Relation]
			if !ok {
				continue
			}
			if err := s.synthesize(comodel, &field.Descriptor{
				Name:        field.BackRefName(m.Name, f.Name),
				Type:        field.TypeOne2Many,
				Relation:    m.Name,
				InverseName: f.Name,
				Kind:        field.SynthesizedInverse,
			}, f); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

func newModelFrom(name string, fields []*field.Descriptor) (*Model, error) {
	if name == "" {
		return nil, related.NewSchemaError("", "", "model name cannot be empty")
	}
	m := newModel(name)
	if !slices.ContainsFunc(fields, func(f *field.Descriptor) bool { return f != nil && f.Name == IDField }) {
		m.add(&field.Descriptor{Name: IDField, Type: field.TypeInteger})
	}
	for _, d := range fields {
		if d == nil {
			continue
		}
		f := d.Clone()
		switch {
		case f.Name == "":
			return nil, related.NewSchemaError(name, "", "field name cannot be empty")
		case m.HasField(f.Name):
			return nil, related.NewSchemaError(name, f.Name, "duplicate field")
		case f.Type == "":
			return nil, related.NewSchemaError(name, f.Name, "missing field type")
		case f.Type.IsRelational() && f.Relation == "":
			return nil, related.NewSchemaError(name, f.Name, fmt.Sprintf("%s field has no relation", f.Type))
		}
		if _, err := field.ParseType(string(f.Type)); err != nil {
			return nil, &related.SchemaError{Model: name, Field: f.Name, Cause: err}
		}
		m.add(f)
	}
	return m, nil
}

// resolve pairs f with a declared inverse on its comodel, synthesizing one
// for x2many fields when none is declared. Unpaired many2one fields are
// handled after every model was resolved.
func (s *Schema) resolve(m *Model, f *field.Descriptor) error {
	if !f.Type.IsRelational() || s.paired(f) {
		return nil
	}
	comodel, ok := s.models[f.Relation]
	if !ok {
		return nil
	}
	switch f.Type {
	case field.TypeMany2Many:
		var candidates []*field.Descriptor
		for _, c := range comodel.Fields {
			if c == f || c.Type != field.TypeMany2Many || c.Relation != m.Name || c.RelationTable != f.RelationTable {
				continue
			}
			if s.paired(c) {
				continue
			}
			candidates = append(candidates, c)
		}
		if len(candidates) > 1 {
			for _, c := range candidates {
				if c.InverseName == f.Name || (f.InverseName != "" && c.Name == f.InverseName) {
					candidates = []*field.Descriptor{c}
					break
				}
			}
		}
		switch len(candidates) {
		case 0:
			return s.synthesize(comodel, &field.Descriptor{
				Name:          field.BackRefName(m.Name, f.Name),
				Type:          field.TypeMany2Many,
				Relation:      m.Name,
				RelationTable: f.RelationTable,
				InverseName:   f.Name,
				Kind:          field.SynthesizedInverse,
			}, f)
		case 1:
			s.pair(f, candidates[0])
		default:
			names := make([]string, len(candidates))
			for i, c := range candidates {
				names[i] = c.Name
			}
			return related.NewSchemaError(m.Name, f.Name,
				fmt.Sprintf("ambiguous inverse: many2many relation %q has several inverses on %s: %v", f.RelationTable, comodel.Name, names))
		}
	case field.TypeOne2Many:
		name := f.InverseName
		if name == "" {
			name = field.BackRefName(m.Name, f.Name)
			f.InverseName = name
		}
		inverse, ok := comodel.Field(name)
		if !ok {
			return s.synthesize(comodel, &field.Descriptor{
				Name:        name,
				Type:        field.TypeMany2One,
				Relation:    m.Name,
				InverseName: f.Name,
				Kind:        field.SynthesizedInverse,
			}, f)
		}
		if inverse.Type != field.TypeMany2One || inverse.Relation != m.Name {
			return related.NewSchemaError(m.Name, f.Name,
				fmt.Sprintf("inverse %s is not a many2one to %s", inverse.Key(), m.Name))
		}
		if other, taken := s.inverses[inverse]; taken && other != f {
			return related.NewSchemaError(m.Name, f.Name,
				fmt.Sprintf("ambiguous inverse: %s is already the inverse of %s", inverse.Key(), other.Key()))
		}
		s.pair(f, inverse)
	case field.TypeMany2One:
		for _, c := range comodel.Fields {
			if c.Type == field.TypeOne2Many && c.Relation == m.Name && c.InverseName == f.Name && !s.paired(c) {
				s.pair(f, c)
				break
			}
		}
	}
	return nil
}

func (s *Schema) synthesize(comodel *Model, inverse, f *field.Descriptor) error {
	if existing, ok := comodel.Field(inverse.Name); ok {
		return related.NewSchemaError(comodel.Name, existing.Name,
			fmt.Sprintf("cannot synthesize inverse of %s: name already taken", f.Key()))
	}
	comodel.add(inverse)
	s.pair(f, inverse)
	return nil
}
