// Package models is the in-memory relational record store.
//
// A Models registry holds one Table per model of a processed schema. Tables
// expose the record-access surface (Create, Read, ReadBy, ReadAll, Update,
// Delete, Serialize, Deserialize) and dispatch create, update and delete
// events. Relations are kept symmetric: linking a record through a field
// also links it through the field's inverse on the comodel.
//
//	s, _ := schema.Process(defs)
//	m, _ := models.New(s)
//	partners := m.Table("res.partner")
//	p, _ := partners.Create(models.Values{"id": 1, "name": "Acme"})
//	o, _ := m.Table("pos.order").Create(models.Values{"id": 10, "partner_id": 1})
//	p.Many("order_ids") // [o]
//
// Local edits are tracked per model: dirty records, and unlinked or
// deleted relation members. Record.Serialize with ORM turns them into
// remote write-protocol command tuples, and Clear drains what was
// reported.
//
// Models.Load merges server snapshots into the store. Records that already
// exist are updated in place, so fields the snapshot does not mention keep
// their local values, and references to records that arrive later are
// parked until their target is loaded.
//
// The store is single-threaded. Callers serialize access.
package models
