package models

import (
	"maps"
	"slices"

	"github.com/syssam/related"
	"github.com/syssam/related/schema"
	"github.com/syssam/related/schema/field"
)

// pendingLink is a reference to a record that is not loaded yet.
type pendingLink struct {
	field *field.Descriptor
	owner *Record
}

func pendingKey(model string, id related.ID) string {
	return model + "_" + id.String()
}

type loadOptions struct {
	only       []string
	serialized bool
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// Only restricts loading to the given models.
func Only(models ...string) LoadOption {
	return func(o *loadOptions) { o.only = append(o.only, models...) }
}

// LoadSerialized loads records produced by Serialize. Synthesized ids
// advance the sequences of their models so that new local records never
// reuse them.
func LoadSerialized() LoadOption {
	return func(o *loadOptions) { o.serialized = true }
}

type loaded struct {
	table  *Table
	record *Record
	vals   Values
}

// saved is the state of a record before a snapshot was merged into it.
type saved struct {
	id     related.ID
	raw    Values
	values map[string]any
	extras map[string]any
}

func save(r *Record) saved {
	return saved{id: r.id, raw: r.raw.Clone(), values: maps.Clone(r.values), extras: r.snapshotExtras()}
}

func (s saved) restore(r *Record) {
	if r.id != s.id {
		_ = r.table.rekey(r, s.id)
	}
	r.raw, r.values, r.extras = s.raw, s.values, s.extras
}

// Load merges a snapshot into the store and returns the loaded records
// per model. It runs in four phases:
//
//  1. Records that exist are updated silently, keeping the fields the
//     snapshot does not mention and their extra values. Others are
//     created without relations.
//  2. Relational values are linked. X2many values replace the linked
//     records, except local ones the server does not know yet. References
//     to records that are not loaded are parked until they are.
//  3. Setup hooks run; the extra values of merged records are restored.
//  4. Records are indexed and a create event is dispatched per model.
//
// When the first phase fails, the records it created are removed and the
// merged ones restored before the error is returned.
//
// Models of the snapshot that are not part of the schema are skipped.
func (m *Models) Load(snapshot Snapshot, opts ...LoadOption) (map[string][]*Record, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	defer m.untrap()()

	var names []string
	for name := range snapshot {
		if len(o.only) > 0 && !slices.Contains(o.only, name) {
			continue
		}
		if _, ok := m.tables[name]; !ok {
			m.logger.Debug("skipping unknown model", "model", name)
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)

	var (
		entries []loaded
		merged  []*Record
		states  = make(map[*Record]saved)
		results = make(map[string][]*Record, len(names))
		mark    = len(m.created)
	)
	fail := func(err error) (map[string][]*Record, error) {
		m.rollback(mark, func(*Record) bool { return false })
		for i := len(merged) - 1; i >= 0; i-- {
			states[merged[i]].restore(merged[i])
		}
		return nil, err
	}
	for _, name := range names {
		t := m.tables[name]
		keyed := t.keyed()
		seen := make(map[*Record]bool)
		for _, vals := range snapshot[name] {
			if vals == nil {
				continue
			}
			r := t.existing(vals, keyed)
			if r != nil {
				if _, ok := states[r]; !ok {
					states[r] = save(r)
					merged = append(merged, r)
				}
				if err := t.merge(r, vals); err != nil {
					return fail(err)
				}
			} else {
				var err error
				r, err = t.create(vals, createOptions{
					ignoreRelations: true,
					delayedSetup:    true,
					fromSerialized:  o.serialized,
				})
				if err != nil {
					return fail(err)
				}
				if keyed != nil {
					if k, ok := indexValue(r.values[t.opts.Key]); ok {
						keyed[k] = r
					}
				}
			}
			entries = append(entries, loaded{table: t, record: r, vals: vals})
			if !seen[r] {
				seen[r] = true
				results[name] = append(results[name], r)
			}
		}
	}

	for _, e := range entries {
		m.link(e.table, e.record, e.vals)
	}
	for _, e := range entries {
		m.resolvePending(e.record)
	}

	for _, e := range entries {
		e.table.setup(e.record, e.vals)
		if st, ok := states[e.record]; ok {
			for k, v := range st.extras {
				e.record.extras[k] = v
			}
		}
	}

	m.reindexTouched()
	count := 0
	for _, name := range names {
		t := m.tables[name]
		ids := make([]related.ID, 0, len(results[name]))
		for _, r := range results[name] {
			t.reindex(r)
			ids = append(ids, r.id)
		}
		count += len(ids)
		if len(ids) > 0 {
			t.dispatch(Event{Type: EventCreate, IDs: ids})
		}
	}
	m.logger.Debug("snapshot loaded", "models", len(names), "records", count, "pending", len(m.pending))
	return results, nil
}

// keyed returns the records by natural key, or nil when the key is id.
func (t *Table) keyed() map[any]*Record {
	if t.opts.Key == schema.IDField {
		return nil
	}
	out := make(map[any]*Record, len(t.order))
	for _, r := range t.order {
		if k, ok := indexValue(r.values[t.opts.Key]); ok {
			out[k] = r
		}
	}
	return out
}

func (t *Table) existing(vals Values, keyed map[any]*Record) *Record {
	if keyed != nil {
		if k, ok := indexValue(vals[t.opts.Key]); ok {
			if r, ok := keyed[k]; ok {
				return r
			}
		}
	}
	if id, ok := related.ParseID(vals[schema.IDField]); ok {
		return t.records[id]
	}
	return nil
}

// merge updates the known values of r silently. A record found by its
// natural key takes the id of the snapshot. Extra values set locally win
// over those of the snapshot.
func (t *Table) merge(r *Record, vals Values) error {
	if id, ok := related.ParseID(vals[schema.IDField]); ok && id != r.id {
		if err := t.rekey(r, id); err != nil {
			return err
		}
	}
	for k, v := range vals {
		if k == schema.IDField {
			continue
		}
		f, ok := t.schema.Field(k)
		if !ok {
			if slices.Contains(t.opts.ExtraFields, k) {
				if _, set := r.extras[k]; !set {
					r.extras[k] = v
				}
			}
			continue
		}
		r.raw[k] = v
		if !f.Type.IsRelational() {
			r.values[k] = v
		}
	}
	return nil
}

// link connects the relational values of a loaded record.
func (m *Models) link(t *Table, r *Record, vals Values) {
	for _, f := range t.schema.Relational() {
		v, ok := vals[f.Name]
		if !ok {
			continue
		}
		comodel, ok := m.tables[f.Relation]
		if !ok || m.schema.Inverse(f) == nil {
			continue
		}
		if f.Type == field.TypeMany2One {
			cur := r.one[f.Name]
			id, ok := related.ParseID(v)
			if rec, isRec := v.(*Record); isRec && rec != nil {
				id, ok = rec.id, true
			}
			if !ok {
				if cur != nil {
					_ = m.disconnect(f, r, cur)
				}
				continue
			}
			if target := comodel.records[id]; target != nil {
				_ = m.connect(f, r, target)
				continue
			}
			if cur != nil {
				_ = m.disconnect(f, r, cur)
			}
			m.park(f, r, id)
			continue
		}
		ids := idList(v)
		wanted := make(map[related.ID]bool, len(ids))
		for _, id := range ids {
			wanted[id] = true
		}
		for _, cur := range r.many[f.Name].list() {
			if !wanted[cur.id] && !cur.id.IsSynthesized() {
				_ = m.disconnect(f, r, cur)
			}
		}
		for _, id := range ids {
			if target := comodel.records[id]; target != nil {
				_ = m.connect(f, r, target)
			} else {
				m.park(f, r, id)
			}
		}
	}
}

func (m *Models) park(f *field.Descriptor, owner *Record, id related.ID) {
	key := pendingKey(f.Relation, id)
	for _, p := range m.pending[key] {
		if p.field == f && p.owner == owner {
			return
		}
	}
	m.pending[key] = append(m.pending[key], pendingLink{field: f, owner: owner})
	m.logger.Debug("link parked", "model", f.Model, "field", f.Name, "target", key)
}

// resolvePending connects the links parked for r.
func (m *Models) resolvePending(r *Record) {
	key := pendingKey(r.table.name, r.id)
	links, ok := m.pending[key]
	if !ok {
		return
	}
	delete(m.pending, key)
	for _, p := range links {
		if p.owner.deleted {
			continue
		}
		_ = m.connect(p.field, p.owner, r)
	}
}
