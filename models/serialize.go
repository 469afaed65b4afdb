package models

import (
	"github.com/syssam/related"
	"github.com/syssam/related/schema"
	"github.com/syssam/related/schema/field"
)

type serializeOptions struct {
	orm   bool
	clear bool
}

// SerializeOption configures Serialize.
type SerializeOption func(*serializeOptions)

// ORM produces the remote write payload: client-only fields are dropped
// and x2many fields become command tuples.
func ORM() SerializeOption {
	return func(o *serializeOptions) { o.orm = true }
}

// Commit drains the command log entries reported by the payload, so
// that they are sent once.
func Commit() SerializeOption {
	return func(o *serializeOptions) { o.clear = true }
}

// Serialize returns the flat values of r: many2one fields as an id or
// false, x2many fields as id lists and scalars as their value or false.
// Synthesized inverse fields are never included.
func (t *Table) Serialize(r *Record, opts ...SerializeOption) Values {
	var o serializeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return t.flat(r, o.orm)
}

func (t *Table) flat(r *Record, orm bool) Values {
	out := make(Values, len(t.schema.Fields))
	for _, f := range t.schema.Fields {
		if f.IsDummy() || (orm && f.ClientOnly()) {
			continue
		}
		switch {
		case f.Name == schema.IDField:
			out[f.Name] = r.id.Value()
		case f.Type == field.TypeMany2One:
			if target := r.one[f.Name]; target != nil {
				out[f.Name] = target.id.Value()
			} else if id, ok := related.ParseID(r.raw[f.Name]); ok {
				out[f.Name] = id.Value()
			} else {
				out[f.Name] = false
			}
		case f.Type.IsX2Many():
			ids := idValues(r.many[f.Name].list())
			if len(ids) == 0 {
				for _, id := range idList(r.raw[f.Name]) {
					ids = append(ids, id.Value())
				}
			}
			out[f.Name] = ids
		default:
			if v, ok := r.values[f.Name]; ok && v != nil {
				out[f.Name] = v
			} else {
				out[f.Name] = false
			}
		}
	}
	return out
}

// Serialize returns the flat values of the record, or with ORM the remote
// write payload:
//
//	[0, 0, values]  new sub-record
//	[1, id, values] modified sub-record
//	[4, id]         unchanged sub-record
//	[3, id]         unlinked since the last commit
//	[2, id]         deleted since the last commit
//
// Sub-record values omit the field pointing back at the parent. A
// synthesized id is omitted and synthesized many2one values are sent as
// their sequence number.
func (r *Record) Serialize(opts ...SerializeOption) Values {
	var o serializeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if !o.orm {
		return r.table.flat(r, false)
	}
	return r.payload(o, nil, map[*Record]bool{})
}

func (r *Record) payload(o serializeOptions, skip *field.Descriptor, seen map[*Record]bool) Values {
	seen[r] = true
	t := r.table
	m := t.models
	data := t.flat(r, true)
	if skip != nil {
		delete(data, skip.Name)
	}
	if r.id.IsSynthesized() {
		delete(data, schema.IDField)
	}
	for _, f := range t.schema.Relational() {
		if _, ok := data[f.Name]; !ok {
			continue
		}
		if f.Type == field.TypeMany2One {
			if id, ok := related.ParseID(data[f.Name]); ok && id.IsSynthesized() {
				if n, ok := id.Suffix(); ok {
					data[f.Name] = n
				}
			}
			continue
		}
		if _, ok := m.tables[f.Relation]; !ok {
			continue
		}
		inv := m.schema.Inverse(f)
		cmds := []any{}
		for _, child := range r.many[f.Name].list() {
			switch {
			case seen[child]:
				if child.id.IsNumeric() {
					cmds = append(cmds, []any{wireLink, child.id.Value()})
				}
			case child.id.IsSynthesized():
				cmds = append(cmds, []any{wireCreate, 0, child.payload(o, inv, seen)})
			case child.IsDirty():
				cmds = append(cmds, []any{wireUpdate, child.id.Value(), child.payload(o, inv, seen)})
			default:
				cmds = append(cmds, []any{wireLink, child.id.Value()})
			}
		}
		for _, id := range entriesOf(t.log.unlink[f.Name], r.id) {
			cmds = append(cmds, []any{wireUnlink, id.Value()})
		}
		for _, id := range entriesOf(t.log.delete[f.Name], r.id) {
			cmds = append(cmds, []any{wireDelete, id.Value()})
		}
		data[f.Name] = cmds
	}
	if o.clear {
		t.log.drain(r.id)
	}
	return data
}
