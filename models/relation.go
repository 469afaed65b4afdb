package models

import (
	"fmt"
	"slices"

	"github.com/syssam/related"
	"github.com/syssam/related/schema/field"
)

// resolve returns the record of t designated by v: a *Record of t or an
// identifier.
func (t *Table) resolve(v any) *Record {
	if r, ok := v.(*Record); ok {
		if r == nil || r.table != t || r.deleted {
			return nil
		}
		return r
	}
	id, ok := related.ParseID(v)
	if !ok {
		return nil
	}
	return t.records[id]
}

// ends resolves both sides of a relation operation on f.
func (m *Models) ends(f *field.Descriptor, owner, target any) (*Record, *Record, *field.Descriptor, error) {
	ot, ok := m.tables[f.Model]
	if !ok {
		return nil, nil, nil, related.NewConsistencyError(f.Model, f.Name, "model is not loaded")
	}
	o := ot.resolve(owner)
	if o == nil {
		return nil, nil, nil, related.NewConsistencyError(f.Model, f.Name, fmt.Sprintf("owner record %v is undefined", owner))
	}
	inv := m.schema.Inverse(f)
	ct, ok := m.tables[f.Relation]
	if inv == nil || !ok {
		return nil, nil, nil, related.NewConsistencyError(f.Model, f.Name, fmt.Sprintf("comodel %s is not loaded", f.Relation))
	}
	c := ct.resolve(target)
	if c == nil {
		return nil, nil, nil, related.NewConsistencyError(f.Model, f.Name, fmt.Sprintf("%s record %v is undefined", f.Relation, target))
	}
	return o, c, inv, nil
}

// connect links owner to target through f and target to owner through
// the inverse of f.
func (m *Models) connect(f *field.Descriptor, owner, target any) error {
	o, c, inv, err := m.ends(f, owner, target)
	if err != nil {
		return err
	}
	m.touch(o, c)
	switch f.Type {
	case field.TypeMany2One:
		prev := o.one[f.Name]
		if prev == c {
			return nil
		}
		if prev != nil {
			prev.collection(inv.Name).remove(o)
			m.touch(prev)
		}
		o.one[f.Name] = c
		o.raw[f.Name] = c.id.Value()
		c.collection(inv.Name).add(o)
	case field.TypeOne2Many:
		// The previous parent of c keeps listing it.
		c.one[inv.Name] = o
		c.raw[inv.Name] = o.id.Value()
		o.collection(f.Name).add(c)
	case field.TypeMany2Many:
		o.collection(f.Name).add(c)
		c.collection(inv.Name).add(o)
	}
	return nil
}

// disconnect is the structural inverse of connect. The last known raw
// value of either side no longer refers to the other one.
func (m *Models) disconnect(f *field.Descriptor, owner, target any) error {
	o, c, inv, err := m.ends(f, owner, target)
	if err != nil {
		return err
	}
	m.touch(o, c)
	switch f.Type {
	case field.TypeMany2One:
		if o.one[f.Name] != c {
			return nil
		}
		delete(o.one, f.Name)
		c.collection(inv.Name).remove(o)
	case field.TypeOne2Many:
		o.collection(f.Name).remove(c)
		if c.one[inv.Name] == o {
			delete(c.one, inv.Name)
		}
	case field.TypeMany2Many:
		o.collection(f.Name).remove(c)
		c.collection(inv.Name).remove(o)
	}
	o.replaceRaw(f, c.id, related.ID{})
	c.replaceRaw(inv, o.id, related.ID{})
	return nil
}

// replaceRaw swaps the id from for to in the raw value of f. A zero to
// drops it.
func (r *Record) replaceRaw(f *field.Descriptor, from, to related.ID) {
	v, ok := r.raw[f.Name]
	if !ok {
		return
	}
	if f.Type == field.TypeMany2One {
		if id, ok := related.ParseID(v); ok && id == from {
			if to.IsZero() {
				r.raw[f.Name] = false
			} else {
				r.raw[f.Name] = to.Value()
			}
		}
		return
	}
	ids := idList(v)
	if !slices.Contains(ids, from) {
		return
	}
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		switch {
		case id != from:
			out = append(out, id.Value())
		case !to.IsZero():
			out = append(out, to.Value())
		}
	}
	r.raw[f.Name] = out
}

// rekey refreshes the collection keys and raw values referring to r, whose
// id was from, in every record linked to it.
func (m *Models) rekey(r *Record, from related.ID) {
	m.touch(r)
	for _, f := range r.table.schema.Relational() {
		inv := m.schema.Inverse(f)
		if inv == nil {
			continue
		}
		for _, t := range r.table.linked(r, f) {
			if c := t.many[inv.Name]; c != nil {
				c.rekey(r)
			}
			t.replaceRaw(inv, from, r.id)
			m.touch(t)
		}
	}
}
