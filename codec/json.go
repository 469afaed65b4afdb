package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/syssam/related/models"
)

// JSON is the JSON codec.
type JSON struct {
	// Indent pretty-prints the output when set.
	Indent bool
}

// Name implements Codec.
func (JSON) Name() string { return "json" }

// Marshal implements Codec.
func (c JSON) Marshal(v any) ([]byte, error) {
	if c.Indent {
		return json.MarshalIndent(wire(v), "", "  ")
	}
	return json.Marshal(wire(v))
}

// Unmarshal implements Codec.
func (JSON) Unmarshal(data []byte) (models.Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("codec: decode json: %w", err)
	}
	return snapshot(doc)
}
