// Package codec encodes server snapshots and write payloads.
//
// Decoded numbers are normalized: integral values become int64 and the
// others float64, whatever the wire representation, so that identifiers
// read from either format compare equal.
package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/syssam/related"
	"github.com/syssam/related/models"
)

// Codec encodes values and decodes snapshots.
type Codec interface {
	// Name of the format, as accepted by ByName.
	Name() string
	// Marshal encodes v.
	Marshal(v any) ([]byte, error)
	// Unmarshal decodes a snapshot.
	Unmarshal(data []byte) (models.Snapshot, error)
}

var codecs = map[string]Codec{
	"json":    JSON{},
	"msgpack": Msgpack{},
}

// ByName returns the codec of a format name.
func ByName(name string) (Codec, error) {
	c, ok := codecs[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("codec: unknown format %q", name)
	}
	return c, nil
}

// ForPath returns the codec matching the extension of path. Files that
// are not .msgpack or .mpk are read as JSON.
func ForPath(path string) Codec {
	switch {
	case strings.HasSuffix(path, ".msgpack"), strings.HasSuffix(path, ".mpk"):
		return Msgpack{}
	}
	return JSON{}
}

// snapshot converts a decoded document into a Snapshot.
func snapshot(doc map[string]any) (models.Snapshot, error) {
	s := make(models.Snapshot, len(doc))
	for model, v := range doc {
		rows, ok := v.([]any)
		if !ok {
			if v == nil {
				s[model] = nil
				continue
			}
			return nil, fmt.Errorf("codec: model %q: expected a list of records, got %T", model, v)
		}
		records := make([]models.Values, 0, len(rows))
		for i, row := range rows {
			m, ok := normalize(row).(map[string]any)
			if !ok {
				return nil, fmt.Errorf("codec: model %q: record %d: expected a mapping, got %T", model, i, row)
			}
			records = append(records, models.Values(m))
		}
		s[model] = records
	}
	return s, nil
}

// normalize converts decoded numbers and nested containers.
func normalize(v any) any {
	switch v := v.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		f, err := v.Float64()
		if err != nil {
			return v.String()
		}
		return integral(f)
	case float64:
		return integral(v)
	case float32:
		return integral(float64(v))
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v)
		}
		return v
	case uint:
		return int64(v)
	case []any:
		for i := range v {
			v[i] = normalize(v[i])
		}
		return v
	case map[string]any:
		for k, x := range v {
			v[k] = normalize(x)
		}
		return v
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, x := range v {
			m[fmt.Sprint(k)] = normalize(x)
		}
		return m
	}
	return v
}

func integral(f float64) any {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

// wire converts values the encoders do not know into their wire form.
func wire(v any) any {
	switch v := v.(type) {
	case related.ID:
		return v.Value()
	case *models.Record:
		if v == nil {
			return false
		}
		return v.ID().Value()
	case models.Snapshot:
		m := make(map[string]any, len(v))
		for k, rows := range v {
			m[k] = wire(rows)
		}
		return m
	case []models.Values:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = wire(x)
		}
		return out
	case models.Values:
		return wire(map[string]any(v))
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, x := range v {
			m[k] = wire(x)
		}
		return m
	case []any:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = wire(x)
		}
		return out
	case []related.ID:
		out := make([]any, len(v))
		for i, x := range v {
			out[i] = x.Value()
		}
		return out
	}
	return v
}
