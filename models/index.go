package models

import (
	"github.com/syssam/related"
	"github.com/syssam/related/schema/field"
)

// index maps the values of one field to records. Indexes on x2many fields
// are multi-valued: every linked id maps to the records linking it.
type index struct {
	field  *field.Descriptor
	multi  bool
	single map[any]*Record
	many   map[any]*collection
	order  []any
}

func newIndex(f *field.Descriptor) *index {
	ix := &index{field: f, multi: f.Type.IsX2Many()}
	if ix.multi {
		ix.many = make(map[any]*collection)
	} else {
		ix.single = make(map[any]*Record)
	}
	return ix
}

// keysOf returns the index values of r.
func (ix *index) keysOf(r *Record) []any {
	name := ix.field.Name
	var raw []any
	switch {
	case ix.field.Type == field.TypeMany2One:
		if t := r.one[name]; t != nil {
			raw = []any{t.id}
		} else if id, ok := related.ParseID(r.raw[name]); ok {
			raw = []any{id}
		}
	case ix.multi:
		for _, t := range r.many[name].list() {
			raw = append(raw, t.id)
		}
	default:
		raw = []any{r.values[name]}
	}
	keys := make([]any, 0, len(raw))
	for _, v := range raw {
		if k, ok := ix.normalize(v); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// normalize converts a lookup value the way record values are indexed.
func (ix *index) normalize(v any) (any, bool) {
	if ix.field.Type.IsRelational() {
		if r, ok := v.(*Record); ok && r != nil {
			v = r.id
		}
		id, ok := related.ParseID(v)
		if !ok {
			return nil, false
		}
		return id, true
	}
	return indexValue(v)
}

func (ix *index) add(r *Record) {
	keys := ix.keysOf(r)
	for _, k := range keys {
		if ix.multi {
			c, ok := ix.many[k]
			if !ok {
				c = newCollection()
				ix.many[k] = c
				ix.order = append(ix.order, k)
			}
			c.add(r)
			continue
		}
		if _, ok := ix.single[k]; !ok {
			ix.order = append(ix.order, k)
		}
		ix.single[k] = r
	}
	r.indexed[ix.field.Name] = keys
}

func (ix *index) remove(r *Record) {
	for _, k := range r.indexed[ix.field.Name] {
		if ix.multi {
			if c, ok := ix.many[k]; ok {
				c.remove(r)
				if c.len() == 0 {
					delete(ix.many, k)
					ix.forget(k)
				}
			}
			continue
		}
		if ix.single[k] == r {
			delete(ix.single, k)
			ix.forget(k)
		}
	}
	delete(r.indexed, ix.field.Name)
}

func (ix *index) forget(k any) {
	for i, o := range ix.order {
		if o == k {
			ix.order = append(ix.order[:i], ix.order[i+1:]...)
			return
		}
	}
}

func (ix *index) lookup(v any) []*Record {
	k, ok := ix.normalize(v)
	if !ok {
		return nil
	}
	if ix.multi {
		return ix.many[k].list()
	}
	if r, ok := ix.single[k]; ok {
		return []*Record{r}
	}
	return nil
}

func (ix *index) all() map[any][]*Record {
	out := make(map[any][]*Record, len(ix.order))
	for _, k := range ix.order {
		out[k] = ix.lookup(k)
	}
	return out
}

// reindex refreshes every index entry of r.
func (t *Table) reindex(r *Record) {
	if r.indexed == nil {
		r.indexed = make(map[string][]any)
	}
	for _, ix := range t.indexes {
		ix.remove(r)
		ix.add(r)
	}
}

func (t *Table) unindex(r *Record) {
	for _, ix := range t.indexes {
		ix.remove(r)
	}
}
