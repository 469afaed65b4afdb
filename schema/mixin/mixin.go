package mixin

import (
	"fmt"
	"slices"

	"github.com/syssam/related"
	"github.com/syssam/related/schema"
	"github.com/syssam/related/schema/field"
)

// Mixin contributes fields to a model declaration.
type Mixin interface {
	Fields() []*field.Builder
}

// Schema is the default implementation of Mixin. Embed it in custom
// mixins.
type Schema struct{}

// Fields returns the fields of the mixin.
func (Schema) Fields() []*field.Builder { return nil }

var _ Mixin = (*Schema)(nil)

// UUID adds a uuid field. Use it as the natural key of models whose
// records are created offline:
//
//	models.WithKey("pos.order", mixin.UUIDField)
type UUID struct{ Schema }

// UUIDField is the name of the field added by UUID.
const UUIDField = "uuid"

// Fields of the UUID mixin.
func (UUID) Fields() []*field.Builder {
	return []*field.Builder{
		field.Char(UUIDField).Label("UUID"),
	}
}

// Time adds the server-maintained creation and modification dates.
type Time struct{ Schema }

// Fields of the Time mixin.
func (Time) Fields() []*field.Builder {
	return []*field.Builder{
		field.Datetime("create_date").Label("Created on"),
		field.Datetime("write_date").Label("Last Updated on"),
	}
}

// Fields returns the descriptors of the mixins followed by those of
// builders. A field of the model replaces a mixed-in field of the same
// name in place.
func Fields(mixins []Mixin, builders ...*field.Builder) []*field.Descriptor {
	own := make([]*field.Descriptor, len(builders))
	for i, b := range builders {
		own[i] = b.Descriptor()
	}
	return merge(mixins, own)
}

func merge(mixins []Mixin, own []*field.Descriptor) []*field.Descriptor {
	var all []*field.Builder
	for _, m := range mixins {
		all = append(all, m.Fields()...)
	}
	fields := schema.Fields(all...)
	pos := make(map[string]int, len(fields))
	for i, f := range fields {
		pos[f.Name] = i
	}
	for _, d := range own {
		if i, ok := pos[d.Name]; ok {
			fields[i] = d
			continue
		}
		pos[d.Name] = len(fields)
		fields = append(fields, d)
	}
	return fields
}

// builtin are the mixins Apply knows by name.
var builtin = map[string]Mixin{
	"uuid": UUID{},
	"time": Time{},
}

// Apply adds the named built-in mixins to the models of defs. It returns
// a copy of defs; defs is left untouched.
func Apply(defs schema.Definitions, uses map[string][]string) (schema.Definitions, error) {
	out := defs.Clone()
	models := make([]string, 0, len(uses))
	for model := range uses {
		models = append(models, model)
	}
	slices.Sort(models)
	for _, model := range models {
		own, ok := out[model]
		if !ok {
			return nil, related.NewSchemaError(model, "", "mixins applied to an unknown model")
		}
		mixins := make([]Mixin, 0, len(uses[model]))
		for _, name := range uses[model] {
			m, ok := builtin[name]
			if !ok {
				return nil, related.NewSchemaError(model, "", fmt.Sprintf("unknown mixin %q", name))
			}
			mixins = append(mixins, m)
		}
		out[model] = merge(mixins, own)
	}
	return out, nil
}
