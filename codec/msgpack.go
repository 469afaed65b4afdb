package codec

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/related/models"
)

// Msgpack is the MessagePack codec.
type Msgpack struct{}

// Name implements Codec.
func (Msgpack) Name() string { return "msgpack" }

// Marshal implements Codec.
func (Msgpack) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	enc.UseCompactFloats(true)
	if err := enc.Encode(wire(v)); err != nil {
		return nil, fmt.Errorf("codec: encode msgpack: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal implements Codec.
func (Msgpack) Unmarshal(data []byte) (models.Snapshot, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("codec: decode msgpack: %w", err)
	}
	return snapshot(doc)
}
