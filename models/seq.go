package models

import (
	"iter"
	"slices"
)

// KeyFunc extracts a key from a record.
type KeyFunc[K comparable] func(*Record) K

// All iterates the records in insertion order.
func (t *Table) All() iter.Seq[*Record] {
	return func(yield func(*Record) bool) {
		for _, r := range slices.Clone(t.order) {
			if !yield(r) {
				return
			}
		}
	}
}

// Each calls fn for every record in insertion order.
func (t *Table) Each(fn func(*Record)) {
	for r := range t.All() {
		fn(r)
	}
}

// Filter returns the records matching pred in insertion order.
func (t *Table) Filter(pred func(*Record) bool) []*Record {
	var out []*Record
	for _, r := range t.order {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the first record matching pred, or nil.
func (t *Table) Find(pred func(*Record) bool) *Record {
	for _, r := range t.order {
		if pred(r) {
			return r
		}
	}
	return nil
}

// Some reports whether a record matches pred.
func (t *Table) Some(pred func(*Record) bool) bool { return t.Find(pred) != nil }

// Every reports whether every record matches pred.
func (t *Table) Every(pred func(*Record) bool) bool {
	for _, r := range t.order {
		if !pred(r) {
			return false
		}
	}
	return true
}

// SortBy returns the records sorted by cmp. Equal records keep their
// insertion order.
func (t *Table) SortBy(cmp func(a, b *Record) int) []*Record {
	out := slices.Clone(t.order)
	slices.SortStableFunc(out, cmp)
	return out
}

// Map applies fn to every record of t in insertion order.
func Map[V any](t *Table, fn func(*Record) V) []V {
	out := make([]V, 0, len(t.order))
	for _, r := range t.order {
		out = append(out, fn(r))
	}
	return out
}

// Reduce folds the records of t in insertion order.
func Reduce[V any](t *Table, init V, fn func(V, *Record) V) V {
	acc := init
	for _, r := range t.order {
		acc = fn(acc, r)
	}
	return acc
}

// GroupBy groups records by key, keeping insertion order within groups.
//
//	byPartner := models.GroupBy(orders.ReadAll(), func(r *models.Record) related.ID {
//		if p := r.One("partner_id"); p != nil {
//			return p.ID()
//		}
//		return related.ID{}
//	})
func GroupBy[K comparable](records []*Record, keyFn KeyFunc[K]) map[K][]*Record {
	out := make(map[K][]*Record)
	for _, r := range records {
		k := keyFn(r)
		out[k] = append(out[k], r)
	}
	return out
}

// OrderByKeys reorders records to match keys. Missing records are nil.
func OrderByKeys[K comparable](keys []K, records []*Record, keyFn KeyFunc[K]) []*Record {
	lookup := make(map[K]*Record, len(records))
	for _, r := range records {
		lookup[keyFn(r)] = r
	}
	out := make([]*Record, len(keys))
	for i, k := range keys {
		out[i] = lookup[k]
	}
	return out
}
