package schema_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/related"
	"github.com/syssam/related/schema"
	"github.com/syssam/related/schema/field"
)

const posYAML = `
res.partner:
  name: char
  order_ids:
    type: one2many
    relation: pos.order
    inverse_name: partner_id
pos.order:
  name:
    type: char
    required: true
    string: Order Ref
  partner_id: {type: many2one, relation: res.partner}
  tag_ids: {type: many2many, relation: pos.tag, relation_table: pos_order_tag_rel}
  selected: {type: boolean, local: true}
  amount_display: {type: monetary, compute: true}
pos.tag:
`

func TestParseYAML(t *testing.T) {
	t.Parallel()
	defs, err := schema.ParseYAML([]byte(posYAML))
	require.NoError(t, err)
	require.Len(t, defs, 3)
	assert.Empty(t, defs["pos.tag"])

	order := defs["pos.order"]
	names := make([]string, len(order))
	for i, f := range order {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"name", "partner_id", "tag_ids", "selected", "amount_display"}, names)
	assert.True(t, order[0].Required)
	assert.Equal(t, "Order Ref", order[0].Label())
	assert.Equal(t, "res.partner", order[1].Relation)
	assert.Equal(t, "pos_order_tag_rel", order[2].RelationTable)
	assert.True(t, order[3].Local)
	assert.True(t, order[4].Compute)
	assert.Equal(t, field.TypeChar, defs["res.partner"][0].Type)
	assert.Equal(t, "partner_id", defs["res.partner"][1].InverseName)

	s, err := schema.Process(defs)
	require.NoError(t, err)
	m2o, _ := s.Field("pos.order", "partner_id")
	o2m, _ := s.Field("res.partner", "order_ids")
	assert.Same(t, o2m, s.Inverse(m2o))
}

func TestParseYAMLErrors(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"not a mapping":   "- a\n- b\n",
		"unknown type":    "a:\n  x: reference\n",
		"fields list":     "a:\n  - x\n",
		"duplicate model": "a:\n  x: char\na:\n  y: char\n",
		"bad field":       "a:\n  x: [char]\n",
		"invalid":         "a: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := schema.ParseYAML([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestParseYAMLEmpty(t *testing.T) {
	t.Parallel()
	defs, err := schema.ParseYAML(nil)
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(posYAML), 0o600))
	s, err := schema.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"pos.order", "pos.tag", "res.partner"}, s.Models())

	_, err = schema.LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("a:\n  b_id: many2one\n"), 0o600))
	_, err = schema.LoadFile(bad)
	require.Error(t, err)
	assert.True(t, related.IsSchemaError(err))
}
