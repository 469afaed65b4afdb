// Package field provides fluent builders for declaring model fields.
//
// Field names follow the remote schema conventions (snake_case). Scalar
// fields only carry a type and flags:
//
//	field.Char("name").Required()
//	field.Float("price_unit")
//	field.Boolean("active")
//
// # Relational Fields
//
// Relational fields name their comodel and, depending on the kind, the
// inverse field or the many2many relation table:
//
//	// Many-to-One: order belongs to a partner
//	field.Many2One("partner_id", "res.partner")
//
//	// One-to-Many: partner has many orders, mirrored by order.partner_id
//	field.One2Many("order_ids", "pos.order", "partner_id")
//
//	// Many-to-Many: both sides share the relation table
//	field.Many2Many("tag_ids", "pos.tag", "pos_order_tag_rel")
//
// A relation whose comodel does not declare the reverse side receives a
// synthesized inverse when the schema is processed. Synthesized fields
// have Kind SynthesizedInverse, are named with BackRefName and are never
// written to the wire.
//
// # Flags
//
//	field.Char("note").Local()        // client-only value
//	field.Char("display").Compute()   // derived on the client
//	field.Char("city").Related()      // mirrored from a related record
//
// Local, related and computed fields are dropped when a record is
// serialized for the remote write protocol.
package field
