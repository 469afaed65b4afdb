package models

import (
	"fmt"
	"maps"

	"github.com/syssam/related"
	"github.com/syssam/related/schema/field"
)

// Record is one row of a Table. Field slots are only written by the store:
// scalar values, a single record per many2one field and an ordered
// collection per x2many field.
type Record struct {
	table   *Table
	id      related.ID
	raw     Values
	values  map[string]any
	one     map[string]*Record
	many    map[string]*collection
	extras  map[string]any
	indexed map[string][]any
	deleted bool
}

func newRecord(t *Table, id related.ID) *Record {
	return &Record{
		table:  t,
		id:     id,
		raw:    Values{},
		values: make(map[string]any),
		one:    make(map[string]*Record),
		many:   make(map[string]*collection),
		extras: make(map[string]any),
	}
}

// ID returns the identifier of the record.
func (r *Record) ID() related.ID { return r.id }

// Model returns the model name of the record.
func (r *Record) Model() string { return r.table.name }

// Table returns the table owning the record.
func (r *Record) Table() *Table { return r.table }

// Exists reports whether the record is still stored in its table.
func (r *Record) Exists() bool { return !r.deleted }

// Get returns the live value of a field: the scalar value, the linked
// *Record of a many2one (nil when empty) or the []*Record of an x2many.
func (r *Record) Get(name string) any {
	if name == "id" {
		return r.id
	}
	f, ok := r.table.schema.Field(name)
	if !ok {
		return nil
	}
	switch {
	case f.Type == field.TypeMany2One:
		if t := r.one[name]; t != nil {
			return t
		}
		return nil
	case f.Type.IsX2Many():
		return r.Many(name)
	}
	return r.values[name]
}

// One returns the record linked through a many2one field.
func (r *Record) One(name string) *Record { return r.one[name] }

// Many returns the records linked through an x2many field, in link order.
func (r *Record) Many(name string) []*Record { return r.many[name].list() }

// Count returns the number of records linked through an x2many field.
func (r *Record) Count(name string) int {
	if c := r.many[name]; c != nil {
		return c.len()
	}
	return 0
}

// Raw returns a copy of the last known flat values of the record.
func (r *Record) Raw() Values { return r.raw.Clone() }

// Extra returns a UI-local value that is not part of the schema.
func (r *Record) Extra(name string) (any, bool) {
	v, ok := r.extras[name]
	return v, ok
}

// SetExtra stores a UI-local value.
func (r *Record) SetExtra(name string, v any) { r.extras[name] = v }

// Set assigns a field. Outside of the store's own mutations the write is
// turned into an Update: relational values become link commands and the
// record is marked dirty. Inside them, such as in setup hooks, the slot is
// written directly.
func (r *Record) Set(name string, value any) error {
	f, ok := r.table.schema.Field(name)
	if !ok {
		return related.NewValidationError(r.table.name, name, "unknown field")
	}
	if r.table.models.trapped() {
		return r.table.assign(r, f, value)
	}
	if f.Type.IsX2Many() {
		value = setCommands(value)
	}
	return r.table.Update(r, Values{name: value})
}

// setCommands turns an x2many assignment into commands replacing the
// collection.
func setCommands(v any) any {
	switch v := v.(type) {
	case Command, []Command:
		return v
	case nil:
		return []Command{Clear()}
	case []*Record:
		items := make([]any, len(v))
		for i, r := range v {
			items[i] = r
		}
		return []Command{Set(items...)}
	}
	ids := idList(v)
	items := make([]any, len(ids))
	for i, id := range ids {
		items[i] = id
	}
	return []Command{Set(items...)}
}

// Update applies vals to the record. See Table.Update.
func (r *Record) Update(vals Values, opts ...MutationOption) error {
	return r.table.Update(r, vals, opts...)
}

// Delete removes the record. See Table.Delete.
func (r *Record) Delete(opts ...MutationOption) error {
	return r.table.Delete(r, opts...)
}

// SetDirty marks the record as locally modified. Records the server does
// not know yet are always sent whole, so only numeric ids are tracked.
func (r *Record) SetDirty() {
	if r.id.IsNumeric() {
		r.table.log.update[r.id] = struct{}{}
	}
}

// IsDirty reports whether the record has unsent local changes.
func (r *Record) IsDirty() bool {
	_, ok := r.table.log.update[r.id]
	return ok
}

// String implements fmt.Stringer.
func (r *Record) String() string {
	return fmt.Sprintf("%s(%s)", r.table.name, r.id)
}

// key returns the natural key of the record in collections.
func (r *Record) key() any {
	if k := r.table.opts.Key; k != "" && k != "id" {
		if v, ok := indexValue(r.values[k]); ok {
			return v
		}
	}
	return r.id
}

// collection returns the collection of an x2many slot, creating it.
func (r *Record) collection(name string) *collection {
	c, ok := r.many[name]
	if !ok {
		c = newCollection()
		r.many[name] = c
	}
	return c
}

func (r *Record) snapshotExtras() map[string]any { return maps.Clone(r.extras) }
