package models

import (
	"maps"
	"reflect"

	"github.com/syssam/related"
)

// Values is a flat mapping of field names to values, used for create and
// update input, raw snapshots and serialized output.
type Values map[string]any

// Clone returns a shallow copy of v.
func (v Values) Clone() Values {
	if v == nil {
		return Values{}
	}
	return maps.Clone(v)
}

// Snapshot maps model names to the flat records of a server payload.
// Many2one values are raw ids and x2many values raw id lists.
type Snapshot map[string][]Values

// falsy reports whether v is an empty relational or scalar value on the
// wire: nil, false, zero numbers, empty strings and empty lists.
func falsy(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return v == ""
	case int:
		return v == 0
	case int64:
		return v == 0
	case float64:
		return v == 0
	case related.ID:
		return v.IsZero()
	case *Record:
		return v == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	case reflect.Pointer:
		return rv.IsNil()
	}
	return false
}

// idList extracts record identifiers from a list value. Items that are
// not identifiers are skipped.
func idList(v any) []related.ID {
	var ids []related.ID
	add := func(item any) {
		if r, ok := item.(*Record); ok && r != nil {
			ids = append(ids, r.id)
			return
		}
		if id, ok := related.ParseID(item); ok {
			ids = append(ids, id)
		}
	}
	switch v := v.(type) {
	case nil:
	case []related.ID:
		return append(ids, v...)
	case []*Record:
		for _, r := range v {
			add(r)
		}
	case []any:
		for _, item := range v {
			add(item)
		}
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice {
			add(v)
			return ids
		}
		for i := 0; i < rv.Len(); i++ {
			add(rv.Index(i).Interface())
		}
	}
	return ids
}

// indexValue normalizes a value used as an index or natural key so that
// equal wire values compare equal. It reports false for values that cannot
// be map keys.
func indexValue(v any) (any, bool) {
	switch v := v.(type) {
	case nil:
		return nil, false
	case *Record:
		if v == nil {
			return nil, false
		}
		return v.id, true
	case related.ID:
		return v, !v.IsZero()
	case string, bool:
		return v, true
	}
	if id, ok := related.ParseID(v); ok {
		if n, ok := id.Int64(); ok {
			return n, true
		}
	}
	if reflect.TypeOf(v).Comparable() {
		return v, true
	}
	return nil, false
}
