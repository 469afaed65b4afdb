package models

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/syssam/related"
	"github.com/syssam/related/schema"
	"github.com/syssam/related/schema/field"
)

// Table stores the records of one model in insertion order.
type Table struct {
	models    *Models
	name      string
	schema    *schema.Model
	opts      ModelOptions
	records   map[related.ID]*Record
	order     []*Record
	seq       sequence
	indexes   map[string]*index
	log       *commandLog
	listeners map[EventType][]*listener
}

func newTable(m *Models, sm *schema.Model, opts ModelOptions) (*Table, error) {
	t := &Table{
		models:    m,
		name:      sm.Name,
		schema:    sm,
		opts:      opts,
		records:   make(map[related.ID]*Record),
		seq:       sequence{model: sm.Name},
		indexes:   make(map[string]*index),
		log:       newCommandLog(),
		listeners: make(map[EventType][]*listener),
	}
	if t.opts.Key == "" {
		t.opts.Key = schema.IDField
	}
	if !sm.HasField(t.opts.Key) {
		return nil, related.NewSchemaError(sm.Name, t.opts.Key, "natural key is not a field")
	}
	for _, name := range opts.Indexes {
		if name == schema.IDField {
			continue
		}
		f, ok := sm.Field(name)
		if !ok {
			return nil, related.NewSchemaError(sm.Name, name, "index on unknown field")
		}
		t.indexes[name] = newIndex(f)
	}
	for _, name := range opts.ExtraFields {
		if sm.HasField(name) {
			return nil, related.NewSchemaError(sm.Name, name, "extra field shadows a schema field")
		}
	}
	return t, nil
}

// Name returns the model name.
func (t *Table) Name() string { return t.name }

// Schema returns the resolved model.
func (t *Table) Schema() *schema.Model { return t.schema }

// Len returns the number of records.
func (t *Table) Len() int { return len(t.order) }

// Log returns the pending local edits of the model.
func (t *Table) Log() Log { return Log{t.log} }

type createOptions struct {
	ignoreRelations bool
	fromSerialized  bool
	delayedSetup    bool
}

// CreateOption configures Create.
type CreateOption func(*createOptions)

// IgnoreRelations creates the record without linking relational values.
func IgnoreRelations() CreateOption {
	return func(o *createOptions) { o.ignoreRelations = true }
}

// FromSerialized reads relational values as flat id lists, as produced
// by Serialize.
func FromSerialized() CreateOption {
	return func(o *createOptions) { o.fromSerialized = true }
}

// DelayedSetup skips the setup hook, indexing and the create event. The
// loader runs them once every record of a snapshot is linked.
func DelayedSetup() CreateOption {
	return func(o *createOptions) { o.delayedSetup = true }
}

type mutationOptions struct {
	silent  bool
	backend bool
}

// MutationOption configures Update and Delete.
type MutationOption func(*mutationOptions)

// Silent applies the change without recording it for the server.
func Silent() MutationOption {
	return func(o *mutationOptions) { o.silent = true }
}

// Backend records removals caused by Delete as deletions rather than
// unlinks.
func Backend() MutationOption {
	return func(o *mutationOptions) { o.backend = true }
}

// Create adds a record. A missing id is synthesized. Missing required
// fields fail with a ValidationError before anything is stored.
//
// Many2one values are a *Record, an identifier or nested Values creating
// the target. X2many values are commands (Create, Link) or id lists.
func (t *Table) Create(vals Values, opts ...CreateOption) (*Record, error) {
	var o createOptions
	for _, opt := range opts {
		opt(&o)
	}
	defer t.models.untrap()()
	return t.create(vals, o)
}

// Deserialize creates a record from the output of Serialize.
func (t *Table) Deserialize(vals Values) (*Record, error) {
	return t.Create(vals, FromSerialized())
}

func (t *Table) create(vals Values, o createOptions) (*Record, error) {
	for _, f := range t.schema.Fields {
		if !f.Required || f.Type.IsRelational() || f.Name == schema.IDField {
			continue
		}
		if v, ok := vals[f.Name]; !ok || v == nil {
			return nil, related.NewRequiredError(t.name, f.Name)
		}
	}
	id, ok := related.ParseID(vals[schema.IDField])
	if !ok {
		id = t.seq.next()
	} else if o.fromSerialized {
		t.seq.advance(id)
	}
	if _, exists := t.records[id]; exists {
		return nil, related.NewValidationError(t.name, schema.IDField, fmt.Sprintf("record %s already exists", id))
	}
	r := newRecord(t, id)
	r.raw = vals.Clone()
	r.raw[schema.IDField] = id.Value()
	if k := t.opts.Key; k != schema.IDField && falsy(vals[k]) {
		r.raw[k] = uuid.NewString()
	}

	for _, f := range t.schema.Fields {
		if f.Name == schema.IDField || f.Type.IsRelational() {
			continue
		}
		if v, ok := r.raw[f.Name]; ok {
			r.values[f.Name] = v
		}
	}
	for _, name := range t.opts.ExtraFields {
		if v, ok := vals[name]; ok {
			r.extras[name] = v
		}
	}
	m := t.models
	mark := len(m.created)
	t.insert(r)
	m.created = append(m.created, r)

	for _, f := range t.schema.Relational() {
		v, ok := vals[f.Name]
		if o.ignoreRelations || !ok || falsy(v) {
			continue
		}
		if err := t.link(r, f, v, o); err != nil {
			// Records created by nested commands go with r.
			m.rollback(mark, func(x *Record) bool { return x != r })
			return nil, err
		}
	}
	if !o.ignoreRelations {
		t.syncRaw(r)
		m.resolvePending(r)
	}
	if !o.delayedSetup {
		t.setup(r, vals)
		t.reindex(r)
		m.reindexTouched()
		t.dispatch(Event{Type: EventCreate, IDs: []related.ID{r.id}})
	}
	return r, nil
}

// link connects the relational value v of a new record.
func (t *Table) link(r *Record, f *field.Descriptor, v any, o createOptions) error {
	m := t.models
	comodel, ok := m.tables[f.Relation]
	if !ok || m.schema.Inverse(f) == nil {
		return nil
	}
	if f.Type == field.TypeMany2One {
		switch v := v.(type) {
		case Values, map[string]any:
			target, err := comodel.create(asValues(v), createOptions{})
			if err != nil {
				return err
			}
			return m.connect(f, r, target)
		}
		target := comodel.resolve(v)
		if target == nil {
			if id, ok := related.ParseID(v); ok {
				m.park(f, r, id)
			}
			return nil
		}
		return m.connect(f, r, target)
	}
	if o.fromSerialized {
		for _, id := range idList(v) {
			target := comodel.records[id]
			if target == nil {
				m.park(f, r, id)
				continue
			}
			if err := m.connect(f, r, target); err != nil {
				return err
			}
		}
		return nil
	}
	cmds, err := asCommands(v)
	if err != nil {
		return related.NewValidationError(t.name, f.Name, err.Error())
	}
	for _, cmd := range cmds {
		switch cmd.Op {
		case OpCreate:
			for _, item := range cmd.Items {
				target, err := comodel.create(asValues(item), createOptions{})
				if err != nil {
					return err
				}
				if err := m.connect(f, r, target); err != nil {
					return err
				}
			}
		case OpLink, OpSet:
			for _, item := range cmd.Items {
				if err := m.connect(f, r, item); err != nil {
					return err
				}
			}
		default:
			return related.NewValidationError(t.name, f.Name, fmt.Sprintf("command %s is not allowed on create", cmd.Op))
		}
	}
	return nil
}

// syncRaw replaces relational input values in raw by the linked ids.
func (t *Table) syncRaw(r *Record) {
	for _, f := range t.schema.Relational() {
		linked := t.linked(r, f)
		if len(linked) == 0 {
			continue
		}
		if f.Type == field.TypeMany2One {
			r.raw[f.Name] = linked[0].id.Value()
		} else {
			r.raw[f.Name] = idValues(linked)
		}
	}
}

func asValues(v any) Values {
	switch v := v.(type) {
	case Values:
		return v
	case map[string]any:
		return Values(v)
	}
	return Values{}
}

func (t *Table) setup(r *Record, vals Values) {
	if t.opts.Setup != nil {
		t.opts.Setup(r, vals)
	}
}

func (t *Table) insert(r *Record) {
	t.records[r.id] = r
	t.order = append(t.order, r)
}

// remove drops r from the table, unlinking it without recording
// commands.
func (t *Table) remove(r *Record) {
	for _, f := range t.schema.Relational() {
		for _, target := range t.linked(r, f) {
			_ = t.models.disconnect(f, r, target)
		}
	}
	t.unindex(r)
	delete(t.records, r.id)
	if i := slices.Index(t.order, r); i >= 0 {
		t.order = slices.Delete(t.order, i, i+1)
	}
	r.deleted = true
}

func (t *Table) linked(r *Record, f *field.Descriptor) []*Record {
	if f.Type == field.TypeMany2One {
		if target := r.one[f.Name]; target != nil {
			return []*Record{target}
		}
		return nil
	}
	return r.many[f.Name].list()
}

// Update applies vals to r. Scalars are assigned; many2one values are a
// record, an identifier, nested Values or a falsy value clearing the
// link; x2many values are commands. An id value re-keys the record.
// Unless Silent, r is marked dirty. An update event is dispatched per
// field, the id included.
func (t *Table) Update(r *Record, vals Values, opts ...MutationOption) error {
	var o mutationOptions
	for _, opt := range opts {
		opt(&o)
	}
	defer t.models.untrap()()
	return t.update(r, vals, o)
}

func (t *Table) update(r *Record, vals Values, o mutationOptions) error {
	if r == nil || r.table != t || r.deleted {
		return related.NewConsistencyError(t.name, "", fmt.Sprintf("record %v is not stored", r))
	}
	var changed []*field.Descriptor
	if v, ok := vals[schema.IDField]; ok {
		id, ok := related.ParseID(v)
		if !ok {
			return related.NewValidationError(t.name, schema.IDField, fmt.Sprintf("invalid id %v", v))
		}
		if id != r.id {
			if err := t.rekey(r, id); err != nil {
				return err
			}
			t.models.resolvePending(r)
			f, _ := t.schema.Field(schema.IDField)
			changed = append(changed, f)
		}
	}
	for _, f := range t.schema.Fields {
		v, ok := vals[f.Name]
		if !ok || f.Name == schema.IDField {
			continue
		}
		var err error
		switch {
		case f.Type == field.TypeMany2One:
			err = t.updateOne(r, f, v)
		case f.Type.IsX2Many():
			err = t.updateMany(r, f, v, o)
		default:
			r.values[f.Name] = v
			r.raw[f.Name] = v
		}
		if err != nil {
			return err
		}
		changed = append(changed, f)
	}
	if len(changed) == 0 {
		return nil
	}
	if !o.silent {
		r.SetDirty()
	}
	t.reindex(r)
	t.models.reindexTouched()
	for _, f := range changed {
		t.dispatch(Event{Type: EventUpdate, ID: r.id, Field: f.Name, Value: vals[f.Name]})
	}
	return nil
}

func (t *Table) updateOne(r *Record, f *field.Descriptor, v any) error {
	m := t.models
	comodel, ok := m.tables[f.Relation]
	if !ok || m.schema.Inverse(f) == nil {
		if id, ok := related.ParseID(v); ok {
			r.raw[f.Name] = id.Value()
		} else {
			r.raw[f.Name] = false
		}
		return nil
	}
	if falsy(v) {
		if cur := r.one[f.Name]; cur != nil {
			if err := m.disconnect(f, r, cur); err != nil {
				return err
			}
		}
		r.raw[f.Name] = false
		return nil
	}
	var target *Record
	switch v := v.(type) {
	case Values, map[string]any:
		created, err := comodel.create(asValues(v), createOptions{})
		if err != nil {
			return err
		}
		target = created
	default:
		target = comodel.resolve(v)
	}
	if target == nil {
		return related.NewConsistencyError(t.name, f.Name, fmt.Sprintf("%s record %v is undefined", f.Relation, v))
	}
	if err := m.connect(f, r, target); err != nil {
		return err
	}
	r.raw[f.Name] = target.id.Value()
	return nil
}

func (t *Table) updateMany(r *Record, f *field.Descriptor, v any, o mutationOptions) error {
	m := t.models
	comodel, ok := m.tables[f.Relation]
	if !ok || m.schema.Inverse(f) == nil {
		return nil
	}
	cmds, err := asCommands(v)
	if err != nil {
		return related.NewValidationError(t.name, f.Name, err.Error())
	}
	unlink := func(target *Record) error {
		if err := m.disconnect(f, r, target); err != nil {
			return err
		}
		if !o.silent && !f.IsDummy() && r.id.IsNumeric() && target.id.IsNumeric() {
			t.log.record(false, f.Name, r.id, target.id)
		}
		return nil
	}
	for _, cmd := range cmds {
		switch cmd.Op {
		case OpCreate:
			for _, item := range cmd.Items {
				target, err := comodel.create(asValues(item), createOptions{})
				if err != nil {
					return err
				}
				if err := m.connect(f, r, target); err != nil {
					return err
				}
			}
		case OpLink:
			for _, item := range cmd.Items {
				if err := m.connect(f, r, item); err != nil {
					return err
				}
			}
		case OpUnlink:
			for _, item := range cmd.Items {
				target := comodel.resolve(item)
				if target == nil {
					return related.NewConsistencyError(t.name, f.Name, fmt.Sprintf("%s record %v is undefined", f.Relation, item))
				}
				if err := unlink(target); err != nil {
					return err
				}
			}
		case OpClear:
			for _, target := range r.many[f.Name].list() {
				if err := unlink(target); err != nil {
					return err
				}
			}
		case OpSet:
			keep := make(map[*Record]bool, len(cmd.Items))
			targets := make([]*Record, 0, len(cmd.Items))
			for _, item := range cmd.Items {
				target := comodel.resolve(item)
				if target == nil {
					return related.NewConsistencyError(t.name, f.Name, fmt.Sprintf("%s record %v is undefined", f.Relation, item))
				}
				keep[target] = true
				targets = append(targets, target)
			}
			for _, cur := range r.many[f.Name].list() {
				if !keep[cur] {
					if err := unlink(cur); err != nil {
						return err
					}
				}
			}
			for _, target := range targets {
				if err := m.connect(f, r, target); err != nil {
					return err
				}
			}
		default:
			return related.NewValidationError(t.name, f.Name, fmt.Sprintf("unknown command %q", cmd.Op))
		}
	}
	r.raw[f.Name] = idValues(r.many[f.Name].list())
	return nil
}

func idValues(records []*Record) []any {
	ids := make([]any, len(records))
	for i, r := range records {
		ids[i] = r.id.Value()
	}
	return ids
}

// rekey changes the identifier of r, typically once the server assigned
// one to a local record.
func (t *Table) rekey(r *Record, id related.ID) error {
	if _, exists := t.records[id]; exists {
		return related.NewValidationError(t.name, schema.IDField, fmt.Sprintf("record %s already exists", id))
	}
	from := r.id
	delete(t.records, from)
	r.id = id
	r.raw[schema.IDField] = id.Value()
	t.records[id] = r
	t.log.rekey(from, id)
	t.models.rekey(r, from)
	return nil
}

// assign writes a slot directly, without commands, dirty marks or events.
func (t *Table) assign(r *Record, f *field.Descriptor, v any) error {
	m := t.models
	switch {
	case f.Name == schema.IDField:
		id, ok := related.ParseID(v)
		if !ok {
			return related.NewValidationError(t.name, f.Name, fmt.Sprintf("invalid id %v", v))
		}
		if id == r.id {
			return nil
		}
		if err := t.rekey(r, id); err != nil {
			return err
		}
		m.resolvePending(r)
		return nil
	case f.Type == field.TypeMany2One:
		if falsy(v) {
			if cur := r.one[f.Name]; cur != nil {
				return m.disconnect(f, r, cur)
			}
			return nil
		}
		return m.connect(f, r, v)
	case f.Type.IsX2Many():
		var targets []any
		switch v := v.(type) {
		case []*Record:
			for _, x := range v {
				targets = append(targets, x)
			}
		default:
			for _, id := range idList(v) {
				targets = append(targets, id)
			}
		}
		for _, cur := range r.many[f.Name].list() {
			if err := m.disconnect(f, r, cur); err != nil {
				return err
			}
		}
		for _, target := range targets {
			if err := m.connect(f, r, target); err != nil {
				return err
			}
		}
		return nil
	}
	r.values[f.Name] = v
	return nil
}

// Delete removes r and unlinks it from every related record. Unless
// Silent, the removal is recorded on the comodel side of each relation
// so that the related records report it; Backend records deletions
// instead of unlinks. A delete event carries the natural key.
func (t *Table) Delete(r *Record, opts ...MutationOption) error {
	var o mutationOptions
	for _, opt := range opts {
		opt(&o)
	}
	defer t.models.untrap()()
	return t.delete(r, o)
}

func (t *Table) delete(r *Record, o mutationOptions) error {
	if r == nil || r.table != t || r.deleted {
		return related.NewConsistencyError(t.name, "", fmt.Sprintf("record %v is not stored", r))
	}
	m := t.models
	for _, f := range t.schema.Relational() {
		inv := m.schema.Inverse(f)
		if inv == nil {
			continue
		}
		for _, target := range t.linked(r, f) {
			if !o.silent && inv.Type.IsX2Many() && !inv.IsDummy() && r.id.IsNumeric() && target.id.IsNumeric() {
				target.table.log.record(o.backend, inv.Name, target.id, r.id)
			}
			if err := m.disconnect(f, r, target); err != nil {
				return err
			}
		}
	}
	key := r.key()
	t.remove(r)
	t.log.drain(r.id)
	m.reindexTouched()
	t.dispatch(Event{Type: EventDelete, ID: r.id, Key: key})
	return nil
}

// DeleteMany deletes the records in order. At most the configured batch
// bound is deleted; the rest is left untouched and a warning is logged.
func (t *Table) DeleteMany(records []*Record, opts ...MutationOption) (int, error) {
	bound := t.models.maxDeleteBatch
	n := 0
	for _, r := range records {
		if bound > 0 && n >= bound {
			t.models.logger.Warn("delete batch bound reached",
				"model", t.name, "bound", bound, "remaining", len(records)-n)
			break
		}
		if err := t.Delete(r, opts...); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Read returns the record with the given identifier, or nil. Numeric
// strings are coerced.
func (t *Table) Read(id any) *Record {
	i, ok := related.ParseID(id)
	if !ok {
		return nil
	}
	return t.records[i]
}

// ReadMany returns the records with the given identifiers in argument
// order, skipping unknown ones.
func (t *Table) ReadMany(ids ...any) []*Record {
	out := make([]*Record, 0, len(ids))
	for _, id := range ids {
		if r := t.Read(id); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// ReadAll returns every record in insertion order.
func (t *Table) ReadAll() []*Record { return slices.Clone(t.order) }

// ReadBy returns the record indexed under value for key. On x2many
// indexes the first matching record is returned.
func (t *Table) ReadBy(key string, value any) (*Record, error) {
	if key == schema.IDField {
		return t.Read(value), nil
	}
	ix, ok := t.indexes[key]
	if !ok {
		return nil, related.NewLookupError(t.name, key)
	}
	if rs := ix.lookup(value); len(rs) > 0 {
		return rs[0], nil
	}
	return nil, nil
}

// ReadManyBy returns every record indexed under value for key.
func (t *Table) ReadManyBy(key string, value any) ([]*Record, error) {
	if key == schema.IDField {
		if r := t.Read(value); r != nil {
			return []*Record{r}, nil
		}
		return nil, nil
	}
	ix, ok := t.indexes[key]
	if !ok {
		return nil, related.NewLookupError(t.name, key)
	}
	return ix.lookup(value), nil
}

// ReadAllBy returns the whole index of key.
func (t *Table) ReadAllBy(key string) (map[any][]*Record, error) {
	if key == schema.IDField {
		out := make(map[any][]*Record, len(t.order))
		for _, r := range t.order {
			out[r.id] = []*Record{r}
		}
		return out, nil
	}
	ix, ok := t.indexes[key]
	if !ok {
		return nil, related.NewLookupError(t.name, key)
	}
	return ix.all(), nil
}
