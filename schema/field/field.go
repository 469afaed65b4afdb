package field

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"
)

// Type is the declared type of a field.
type Type string

// Scalar and relational field types.
const (
	TypeChar      Type = "char"
	TypeText      Type = "text"
	TypeHTML      Type = "html"
	TypeInteger   Type = "integer"
	TypeFloat     Type = "float"
	TypeMonetary  Type = "monetary"
	TypeBoolean   Type = "boolean"
	TypeDate      Type = "date"
	TypeDatetime  Type = "datetime"
	TypeSelection Type = "selection"
	TypeJSON      Type = "json"
	TypeBinary    Type = "binary"
	TypeMany2One  Type = "many2one"
	TypeOne2Many  Type = "one2many"
	TypeMany2Many Type = "many2many"
)

var knownTypes = map[Type]struct{}{
	TypeChar: {}, TypeText: {}, TypeHTML: {}, TypeInteger: {}, TypeFloat: {},
	TypeMonetary: {}, TypeBoolean: {}, TypeDate: {}, TypeDatetime: {},
	TypeSelection: {}, TypeJSON: {}, TypeBinary: {}, TypeMany2One: {},
	TypeOne2Many: {}, TypeMany2Many: {},
}

// ParseType returns the Type named by s.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := knownTypes[t]; !ok {
		return "", fmt.Errorf("unknown field type %q", s)
	}
	return t, nil
}

// IsRelational reports whether t links records of another model.
func (t Type) IsRelational() bool {
	return t == TypeMany2One || t == TypeOne2Many || t == TypeMany2Many
}

// IsX2Many reports whether t holds a collection of records.
func (t Type) IsX2Many() bool {
	return t == TypeOne2Many || t == TypeMany2Many
}

// String implements fmt.Stringer.
func (t Type) String() string { return string(t) }

// Kind tells declared fields apart from fields synthesized to complete
// an inverse relation.
type Kind uint8

const (
	// Declared fields come from the model definitions.
	Declared Kind = iota
	// SynthesizedInverse fields were added by the schema processor.
	SynthesizedInverse
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k == SynthesizedInverse {
		return "synthesized"
	}
	return "declared"
}

// backRefPrefix marks the reserved names of synthesized inverses.
const backRefPrefix = "<-"

// BackRefName returns the reserved name of the inverse synthesized on the
// comodel of model.field.
func BackRefName(model, field string) string {
	return backRefPrefix + model + "." + field
}

// IsBackRefName reports whether name uses the reserved back-reference scheme.
func IsBackRefName(name string) bool {
	return strings.HasPrefix(name, backRefPrefix)
}

// Descriptor holds the declaration of a single field.
type Descriptor struct {
	// Name of the field, unique within its model.
	Name string
	// Model is the owning model. It is filled by the schema processor.
	Model string
	// Type of the field.
	Type Type
	// Relation is the comodel of relational fields.
	Relation string
	// InverseName is the declared inverse of one2many fields, or the
	// many2one/one2many this synthesized field mirrors.
	InverseName string
	// RelationTable identifies the join table of many2many fields.
	RelationTable string
	// String is the human readable label.
	String string

	Required bool
	Local    bool
	Related  bool
	Compute  bool
	Kind     Kind
}

// IsDummy reports whether the field was synthesized and must not reach the wire.
func (d *Descriptor) IsDummy() bool { return d.Kind == SynthesizedInverse }

// ClientOnly reports whether the field holds data derived on the client
// that the remote write protocol never receives.
func (d *Descriptor) ClientOnly() bool {
	return d.Local || d.Related || d.Compute
}

// Label returns the declared label or one humanized from the name.
func (d *Descriptor) Label() string {
	if d.String != "" {
		return d.String
	}
	if d.IsDummy() || d.Name == "" {
		return d.Name
	}
	name := d.Name
	for _, suffix := range []string{"_ids", "_id"} {
		if trimmed, ok := strings.CutSuffix(name, suffix); ok && trimmed != "" {
			name = trimmed
			break
		}
	}
	return inflect.Humanize(name)
}

// Clone returns a copy of the descriptor.
func (d *Descriptor) Clone() *Descriptor {
	c := *d
	return &c
}

// Key returns the "model.field" form used in messages and maps.
func (d *Descriptor) Key() string {
	return d.Model + "." + d.Name
}

// Builder configures a Descriptor fluently.
type Builder struct {
	desc *Descriptor
}

// New returns a builder for a field of the given type.
func New(name string, t Type) *Builder {
	return &Builder{desc: &Descriptor{Name: name, Type: t}}
}

// Char returns a builder for a short string field.
func Char(name string) *Builder { return New(name, TypeChar) }

// Text returns a builder for a long string field.
func Text(name string) *Builder { return New(name, TypeText) }

// Integer returns a builder for an integer field.
func Integer(name string) *Builder { return New(name, TypeInteger) }

// Float returns a builder for a floating point field.
func Float(name string) *Builder { return New(name, TypeFloat) }

// Monetary returns a builder for an amount field.
func Monetary(name string) *Builder { return New(name, TypeMonetary) }

// Boolean returns a builder for a boolean field.
func Boolean(name string) *Builder { return New(name, TypeBoolean) }

// Date returns a builder for a date field.
func Date(name string) *Builder { return New(name, TypeDate) }

// Datetime returns a builder for a datetime field.
func Datetime(name string) *Builder { return New(name, TypeDatetime) }

// Selection returns a builder for a selection field.
func Selection(name string) *Builder { return New(name, TypeSelection) }

// JSON returns a builder for a structured value field.
func JSON(name string) *Builder { return New(name, TypeJSON) }

// Many2One returns a builder for a reference to a single comodel record.
func Many2One(name, comodel string) *Builder {
	b := New(name, TypeMany2One)
	b.desc.Relation = comodel
	return b
}

// One2Many returns a builder for a collection mirrored by the many2one
// inverse declared on the comodel.
func One2Many(name, comodel, inverse string) *Builder {
	b := New(name, TypeOne2Many)
	b.desc.Relation = comodel
	b.desc.InverseName = inverse
	return b
}

// Many2Many returns a builder for a symmetric collection stored in the
// given relation table.
func Many2Many(name, comodel, table string) *Builder {
	b := New(name, TypeMany2Many)
	b.desc.Relation = comodel
	b.desc.RelationTable = table
	return b
}

// Required marks the field as mandatory on create.
func (b *Builder) Required() *Builder { b.desc.Required = true; return b }

// Local marks the field as client-only.
func (b *Builder) Local() *Builder { b.desc.Local = true; return b }

// Related marks the field as mirrored from a related record.
func (b *Builder) Related() *Builder { b.desc.Related = true; return b }

// Compute marks the field as computed on the client.
func (b *Builder) Compute() *Builder { b.desc.Compute = true; return b }

// Label sets the human readable label.
func (b *Builder) Label(s string) *Builder { b.desc.String = s; return b }

// Inverse sets the inverse field name.
func (b *Builder) Inverse(name string) *Builder { b.desc.InverseName = name; return b }

// RelationTable sets the many2many join identity.
func (b *Builder) RelationTable(table string) *Builder { b.desc.RelationTable = table; return b }

// Descriptor returns the built descriptor.
func (b *Builder) Descriptor() *Descriptor { return b.desc }
