// Package schema resolves model declarations into the schema the record
// store runs on.
//
// Declarations map a model name to its ordered fields, built with the
// [field] package or parsed from YAML:
//
//	defs := schema.Definitions{
//	    "res.partner": schema.Fields(
//	        field.Char("name").Required(),
//	        field.One2Many("order_ids", "pos.order", "partner_id"),
//	    ),
//	    "pos.order": schema.Fields(
//	        field.Many2One("partner_id", "res.partner"),
//	        field.Many2Many("tag_ids", "pos.tag", "pos_order_tag_rel"),
//	    ),
//	    "pos.tag": schema.Fields(field.Char("name")),
//	}
//	s, err := schema.Process(defs)
//
// Process pairs every relational field with exactly one inverse. Pairs are
// discovered by relation table (many2many) or by inverse name
// (one2many/many2one). When the comodel does not declare the reverse side
// a field is synthesized on it, named with [field.BackRefName]. In the
// example above "pos.tag" receives the many2many "<-pos.order.tag_ids".
//
// The same declarations in YAML:
//
//	res.partner:
//	  name: {type: char, required: true}
//	  order_ids: {type: one2many, relation: pos.order, inverse_name: partner_id}
//	pos.order:
//	  partner_id: {type: many2one, relation: res.partner}
//	pos.tag:
//	  name: char
package schema
