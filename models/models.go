package models

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/syssam/related"
	"github.com/syssam/related/schema"
)

// DefaultMaxDeleteBatch is the default bound of DeleteMany.
const DefaultMaxDeleteBatch = 10000

// Models is the registry of the tables of a schema.
type Models struct {
	schema         *schema.Schema
	tables         map[string]*Table
	logger         *slog.Logger
	modelOpts      map[string]ModelOptions
	maxDeleteBatch int
	pending        map[string][]pendingLink
	// trap is the depth of the store's own mutations. While positive,
	// Record.Set writes slots directly.
	trap int
	// touched are the records whose relational slots changed since the
	// last reindex.
	touched map[*Record]bool
	touches []*Record
	// created are the records created by the running mutation, so that a
	// failure can remove them.
	created []*Record
}

// ModelOptions configure the table of one model.
type ModelOptions struct {
	// Key is the natural key field used in collections and delete events.
	// Defaults to "id". A key field other than id that is missing on
	// create receives a generated UUID.
	Key string
	// Indexes are the fields records can be read by.
	Indexes []string
	// ExtraFields are UI-local values accepted on create and kept when a
	// snapshot is merged into an existing record.
	ExtraFields []string
	// Setup is run after a record was created or loaded.
	Setup func(r *Record, vals Values)
}

// Option configures a Models.
type Option func(*Models)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Models) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithModel sets the options of one model.
func WithModel(name string, opts ModelOptions) Option {
	return func(m *Models) {
		m.modelOpts[name] = opts
	}
}

// WithIndexes declares indexes on a model, in addition to those of its
// ModelOptions.
func WithIndexes(name string, keys ...string) Option {
	return func(m *Models) {
		o := m.modelOpts[name]
		o.Indexes = append(slices.Clone(o.Indexes), keys...)
		m.modelOpts[name] = o
	}
}

// WithKey sets the natural key of a model.
func WithKey(name, key string) Option {
	return func(m *Models) {
		o := m.modelOpts[name]
		o.Key = key
		m.modelOpts[name] = o
	}
}

// WithMaxDeleteBatch bounds the number of records DeleteMany removes.
func WithMaxDeleteBatch(n int) Option {
	return func(m *Models) {
		m.maxDeleteBatch = n
	}
}

// New returns a registry with one empty table per model of s.
func New(s *schema.Schema, opts ...Option) (*Models, error) {
	m := &Models{
		schema:         s,
		tables:         make(map[string]*Table),
		logger:         slog.Default(),
		modelOpts:      make(map[string]ModelOptions),
		maxDeleteBatch: DefaultMaxDeleteBatch,
		pending:        make(map[string][]pendingLink),
		touched:        make(map[*Record]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	for name := range m.modelOpts {
		if _, ok := s.Model(name); !ok {
			return nil, related.NewSchemaError(name, "", "options given for an unknown model")
		}
	}
	for _, name := range s.Models() {
		sm, _ := s.Model(name)
		t, err := newTable(m, sm, m.modelOpts[name])
		if err != nil {
			return nil, err
		}
		m.tables[name] = t
	}
	return m, nil
}

// Schema returns the processed schema of the registry.
func (m *Models) Schema() *schema.Schema { return m.schema }

// Table returns the table of a model, or nil when the model is unknown.
func (m *Models) Table(name string) *Table { return m.tables[name] }

// MustTable is like Table but panics when the model is unknown.
func (m *Models) MustTable(name string) *Table {
	t, ok := m.tables[name]
	if !ok {
		panic(fmt.Sprintf("models: unknown model %q", name))
	}
	return t
}

// Pending returns the number of parked links per target key.
func (m *Models) Pending() map[string]int {
	out := make(map[string]int, len(m.pending))
	for k, links := range m.pending {
		out[k] = len(links)
	}
	return out
}

// untrap disables field-assignment interception until the returned
// function is called.
func (m *Models) untrap() func() {
	m.trap++
	return func() {
		m.trap--
		if m.trap == 0 {
			m.reindexTouched()
			m.created = nil
		}
	}
}

// touch marks records whose relational slots changed.
func (m *Models) touch(rs ...*Record) {
	for _, r := range rs {
		if !m.touched[r] {
			m.touched[r] = true
			m.touches = append(m.touches, r)
		}
	}
}

// reindexTouched refreshes the index entries of the touched records that
// are still stored. Records whose setup is delayed are indexed later.
func (m *Models) reindexTouched() {
	for _, r := range m.touches {
		if !r.deleted && r.indexed != nil {
			r.table.reindex(r)
		}
	}
	clear(m.touched)
	m.touches = nil
}

// rollback removes the records created since mark, newest first.
// Records that were announced get a delete event.
func (m *Models) rollback(mark int, announced func(*Record) bool) {
	for i := len(m.created) - 1; i >= mark; i-- {
		r := m.created[i]
		if r.deleted {
			continue
		}
		key := r.key()
		r.table.remove(r)
		if announced(r) {
			r.table.dispatch(Event{Type: EventDelete, ID: r.id, Key: key})
		}
	}
	m.created = m.created[:mark]
}

func (m *Models) trapped() bool { return m.trap > 0 }
