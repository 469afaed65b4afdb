package mixin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/related"
	"github.com/syssam/related/schema"
	"github.com/syssam/related/schema/field"
	"github.com/syssam/related/schema/mixin"
)

type audit struct{ mixin.Schema }

func (audit) Fields() []*field.Builder {
	return []*field.Builder{
		field.Many2One("create_uid", "res.users"),
	}
}

func names(fields []*field.Descriptor) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func TestSchemaBaseMixin(t *testing.T) {
	t.Parallel()
	assert.Nil(t, mixin.Schema{}.Fields())
	var _ mixin.Mixin = mixin.Schema{}
}

func TestFields(t *testing.T) {
	t.Parallel()

	t.Run("order", func(t *testing.T) {
		t.Parallel()
		fields := mixin.Fields([]mixin.Mixin{mixin.UUID{}, mixin.Time{}, audit{}}, field.Char("name"))
		assert.Equal(t, []string{"uuid", "create_date", "write_date", "create_uid", "name"}, names(fields))
		assert.Equal(t, field.TypeDatetime, fields[1].Type)
		assert.Equal(t, "UUID", fields[0].Label())
	})

	t.Run("override", func(t *testing.T) {
		t.Parallel()
		fields := mixin.Fields([]mixin.Mixin{mixin.UUID{}}, field.Char("uuid").Required(), field.Char("name"))
		assert.Equal(t, []string{"uuid", "name"}, names(fields))
		assert.True(t, fields[0].Required)
	})

	t.Run("processed", func(t *testing.T) {
		t.Parallel()
		s, err := schema.Process(schema.Definitions{
			"res.users": nil,
			"pos.order": mixin.Fields([]mixin.Mixin{audit{}}),
		})
		require.NoError(t, err)
		_, ok := s.Field("res.users", field.BackRefName("pos.order", "create_uid"))
		assert.True(t, ok)
	})
}

func TestApply(t *testing.T) {
	t.Parallel()
	defs := schema.Definitions{
		"pos.order": schema.Fields(field.Char("name"), field.Char("uuid").Required()),
		"pos.tag":   schema.Fields(field.Char("name")),
	}

	out, err := mixin.Apply(defs, map[string][]string{"pos.order": {"uuid", "time"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"uuid", "create_date", "write_date", "name"}, names(out["pos.order"]))
	assert.True(t, out["pos.order"][0].Required)
	assert.Equal(t, []string{"name"}, names(out["pos.tag"]))
	assert.Equal(t, []string{"name", "uuid"}, names(defs["pos.order"]))

	_, err = mixin.Apply(defs, map[string][]string{"pos.session": {"uuid"}})
	assert.True(t, related.IsSchemaError(err))
	_, err = mixin.Apply(defs, map[string][]string{"pos.order": {"audit"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mixin "audit"`)
}
