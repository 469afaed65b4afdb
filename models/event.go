package models

import "github.com/syssam/related"

// EventType names a table event.
type EventType string

// Table events.
const (
	EventCreate EventType = "create"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event is dispatched synchronously to the listeners of a table.
type Event struct {
	Type  EventType
	Model string
	// IDs of the created records.
	IDs []related.ID
	// ID of the updated record.
	ID related.ID
	// Field and Value of an update.
	Field string
	Value any
	// Key is the natural key of a deleted record.
	Key any
}

// Listener receives table events.
type Listener func(Event)

type listener struct{ fn Listener }

// On registers fn for events of type ev and returns a function removing
// it.
func (t *Table) On(ev EventType, fn Listener) func() {
	l := &listener{fn: fn}
	t.listeners[ev] = append(t.listeners[ev], l)
	return func() {
		ls := t.listeners[ev]
		for i, x := range ls {
			if x == l {
				t.listeners[ev] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

func (t *Table) dispatch(e Event) {
	e.Model = t.name
	for _, l := range t.listeners[e.Type] {
		l.fn(e)
	}
}
