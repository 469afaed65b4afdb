package related_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/related"
)

func TestParseID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   any
		want related.ID
		ok   bool
	}{
		{name: "int", in: 7, want: related.IntID(7), ok: true},
		{name: "int64", in: int64(7), want: related.IntID(7), ok: true},
		{name: "uint8", in: uint8(7), want: related.IntID(7), ok: true},
		{name: "integral float", in: 7.0, want: related.IntID(7), ok: true},
		{name: "fractional float", in: 7.5},
		{name: "float beyond int64", in: 1e19},
		{name: "float below int64", in: -1e19},
		{name: "uint64 beyond int64", in: uint64(math.MaxUint64)},
		{name: "json number", in: json.Number("12"), want: related.IntID(12), ok: true},
		{name: "numeric string", in: "42", want: related.IntID(42), ok: true},
		{name: "synthesized", in: "pos.order_3", want: related.StringID("pos.order_3"), ok: true},
		{name: "id", in: related.IntID(5), want: related.IntID(5), ok: true},
		{name: "empty string"},
		{name: "false", in: false},
		{name: "nil"},
		{name: "zero id", in: related.ID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := related.ParseID(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestIDKinds(t *testing.T) {
	t.Parallel()
	n := related.IntID(3)
	s := related.SequenceID("pos.order", 3)

	assert.True(t, n.IsNumeric())
	assert.False(t, n.IsSynthesized())
	assert.True(t, s.IsSynthesized())
	assert.NotEqual(t, n, s)
	assert.True(t, related.ID{}.IsZero())

	assert.Equal(t, "pos.order_3", s.String())
	assert.Equal(t, "3", n.String())
	assert.Equal(t, int64(3), n.Value())
	assert.Equal(t, "pos.order_3", s.Value())
	assert.Equal(t, false, related.ID{}.Value())

	suffix, ok := s.Suffix()
	require.True(t, ok)
	assert.Equal(t, int64(3), suffix)
	_, ok = related.StringID("abc").Suffix()
	assert.False(t, ok)

	_, ok = s.Int64()
	assert.False(t, ok)
}

func TestIDJSON(t *testing.T) {
	t.Parallel()
	out, err := json.Marshal([]related.ID{related.IntID(1), related.SequenceID("pos.tag", 2), {}})
	require.NoError(t, err)
	assert.JSONEq(t, `[1, "pos.tag_2", false]`, string(out))
}

func TestMustParseID(t *testing.T) {
	t.Parallel()
	assert.Equal(t, related.IntID(1), related.MustParseID("1"))
	assert.Panics(t, func() { related.MustParseID(true) })
}
