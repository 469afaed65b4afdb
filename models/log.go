package models

import (
	"slices"

	"github.com/syssam/related"
)

// unlinked is one entry of the unlink or delete log: ID was removed from
// the collection of Owner.
type unlinked struct {
	Owner related.ID
	ID    related.ID
}

// commandLog tracks the local edits of one model until they are
// serialized with Clear.
type commandLog struct {
	update map[related.ID]struct{}
	unlink map[string][]unlinked
	delete map[string][]unlinked
}

func newCommandLog() *commandLog {
	return &commandLog{
		update: make(map[related.ID]struct{}),
		unlink: make(map[string][]unlinked),
		delete: make(map[string][]unlinked),
	}
}

func (l *commandLog) record(backend bool, field string, owner, id related.ID) {
	e := unlinked{Owner: owner, ID: id}
	if backend {
		l.delete[field] = append(l.delete[field], e)
		return
	}
	l.unlink[field] = append(l.unlink[field], e)
}

func entriesOf(entries []unlinked, owner related.ID) []related.ID {
	var ids []related.ID
	for _, e := range entries {
		if e.Owner == owner {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// drain forgets the edits of owner.
func (l *commandLog) drain(owner related.ID) {
	delete(l.update, owner)
	for _, m := range []map[string][]unlinked{l.unlink, l.delete} {
		for name, entries := range m {
			entries = slices.DeleteFunc(entries, func(e unlinked) bool { return e.Owner == owner })
			if len(entries) == 0 {
				delete(m, name)
			} else {
				m[name] = entries
			}
		}
	}
}

func (l *commandLog) rekey(from, to related.ID) {
	if _, ok := l.update[from]; ok {
		delete(l.update, from)
		l.update[to] = struct{}{}
	}
	for _, m := range []map[string][]unlinked{l.unlink, l.delete} {
		for _, entries := range m {
			for i := range entries {
				if entries[i].Owner == from {
					entries[i].Owner = to
				}
			}
		}
	}
}

// Log is a read-only view of the pending local edits of a model.
type Log struct{ l *commandLog }

// Updated returns the dirty record ids.
func (v Log) Updated() []related.ID {
	ids := make([]related.ID, 0, len(v.l.update))
	for id := range v.l.update {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, compareIDs)
	return ids
}

// Unlinked returns the ids removed from field of owner since the last
// commit.
func (v Log) Unlinked(field string, owner related.ID) []related.ID {
	return entriesOf(v.l.unlink[field], owner)
}

// Deleted returns the ids deleted from field of owner since the last
// commit.
func (v Log) Deleted(field string, owner related.ID) []related.ID {
	return entriesOf(v.l.delete[field], owner)
}

// Empty reports whether nothing is pending.
func (v Log) Empty() bool {
	return len(v.l.update) == 0 && len(v.l.unlink) == 0 && len(v.l.delete) == 0
}

func compareIDs(a, b related.ID) int {
	an, aok := a.Int64()
	bn, bok := b.Int64()
	switch {
	case aok && bok:
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return 0
	case aok:
		return -1
	case bok:
		return 1
	}
	switch {
	case a.String() < b.String():
		return -1
	case a.String() > b.String():
		return 1
	}
	return 0
}
