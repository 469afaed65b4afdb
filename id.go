package related

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type idKind uint8

const (
	noID idKind = iota
	numericID
	synthesizedID
)

// ID identifies a record. Persisted records carry the integer assigned by
// the server; records created locally carry a synthesized string of the
// form "<model>_<sequence>" until the server assigns one. The two spaces
// never compare equal.
//
// The zero value is the absent identifier.
type ID struct {
	kind idKind
	num  int64
	str  string
}

// IntID returns the identifier of a persisted record.
func IntID(n int64) ID { return ID{kind: numericID, num: n} }

// StringID returns a synthesized identifier. Use ParseID to coerce
// numeric strings.
func StringID(s string) ID { return ID{kind: synthesizedID, str: s} }

// SequenceID returns the synthesized identifier for the n-th local record
// of model.
func SequenceID(model string, n int64) ID {
	return StringID(model + "_" + strconv.FormatInt(n, 10))
}

// ParseID converts a wire value into an ID. Numeric strings and integral
// floats are coerced to numeric identifiers. Booleans and nil report false,
// matching the wire convention of sending false for an empty many2one.
func ParseID(v any) (ID, bool) {
	switch v := v.(type) {
	case nil:
		return ID{}, false
	case ID:
		return v, !v.IsZero()
	case *ID:
		if v == nil {
			return ID{}, false
		}
		return *v, !v.IsZero()
	case int:
		return IntID(int64(v)), true
	case int8:
		return IntID(int64(v)), true
	case int16:
		return IntID(int64(v)), true
	case int32:
		return IntID(int64(v)), true
	case int64:
		return IntID(v), true
	case uint:
		return IntID(int64(v)), true
	case uint8:
		return IntID(int64(v)), true
	case uint16:
		return IntID(int64(v)), true
	case uint32:
		return IntID(int64(v)), true
	case uint64:
		if v > math.MaxInt64 {
			return ID{}, false
		}
		return IntID(int64(v)), true
	case float32:
		return parseFloatID(float64(v))
	case float64:
		return parseFloatID(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return IntID(n), true
		}
		return ID{}, false
	case string:
		if v == "" {
			return ID{}, false
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return IntID(n), true
		}
		return StringID(v), true
	default:
		return ID{}, false
	}
}

func parseFloatID(f float64) (ID, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) || f < math.MinInt64 || f >= 1<<63 {
		return ID{}, false
	}
	return IntID(int64(f)), true
}

// MustParseID is like ParseID but panics on values that are not identifiers.
func MustParseID(v any) ID {
	id, ok := ParseID(v)
	if !ok {
		panic(fmt.Sprintf("related: %v (%T) is not a record identifier", v, v))
	}
	return id
}

// IsZero reports whether the identifier is absent.
func (id ID) IsZero() bool { return id.kind == noID }

// IsNumeric reports whether the identifier was assigned by the server.
func (id ID) IsNumeric() bool { return id.kind == numericID }

// IsSynthesized reports whether the identifier was generated locally.
func (id ID) IsSynthesized() bool { return id.kind == synthesizedID }

// Int64 returns the numeric identifier.
func (id ID) Int64() (int64, bool) {
	return id.num, id.kind == numericID
}

// Suffix returns the numeric sequence suffix of a synthesized identifier.
// For numeric identifiers it returns the number itself.
func (id ID) Suffix() (int64, bool) {
	switch id.kind {
	case numericID:
		return id.num, true
	case synthesizedID:
		i := strings.LastIndexByte(id.str, '_')
		if i < 0 {
			return 0, false
		}
		n, err := strconv.ParseInt(id.str[i+1:], 10, 64)
		return n, err == nil
	}
	return 0, false
}

// Value returns the wire representation: an int64, a string, or false
// for the absent identifier.
func (id ID) Value() any {
	switch id.kind {
	case numericID:
		return id.num
	case synthesizedID:
		return id.str
	}
	return false
}

// String implements fmt.Stringer.
func (id ID) String() string {
	switch id.kind {
	case numericID:
		return strconv.FormatInt(id.num, 10)
	case synthesizedID:
		return id.str
	}
	return ""
}

// MarshalJSON encodes the identifier with its wire representation.
func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Value())
}
