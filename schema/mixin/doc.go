// Package mixin provides reusable sets of fields for model declarations.
//
// A mixin contributes fields to every model it is applied to. Embed Schema
// and override Fields:
//
//	type Audit struct {
//	    mixin.Schema
//	}
//
//	func (Audit) Fields() []*field.Builder {
//	    return []*field.Builder{
//	        field.Many2One("create_uid", "res.users"),
//	        field.Many2One("write_uid", "res.users"),
//	    }
//	}
//
// Mixed-in fields come first, in mixin order, followed by the model's own
// fields:
//
//	defs := schema.Definitions{
//	    "pos.order": mixin.Fields([]mixin.Mixin{mixin.UUID{}, mixin.Time{}},
//	        field.Char("name"),
//	    ),
//	}
//
// Built-in mixins:
//
//   - UUID: a uuid char field, suitable as a natural key
//   - Time: create_date and write_date datetime fields
package mixin
