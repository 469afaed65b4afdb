package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/related"
	"github.com/syssam/related/models"
)

func TestMany2One(t *testing.T) {
	t.Parallel()

	t.Run("symmetric", func(t *testing.T) {
		t.Parallel()
		m := newModels(t)
		p := create(t, m, "res.partner", models.Values{"id": 1})
		o := create(t, m, "pos.order", models.Values{"id": 10, "partner_id": 1})
		assert.Same(t, p, o.One("partner_id"))
		assert.Equal(t, []*models.Record{o}, p.Many("order_ids"))
	})

	t.Run("same target is a no-op", func(t *testing.T) {
		t.Parallel()
		m := newModels(t)
		p := create(t, m, "res.partner", models.Values{"id": 1})
		o := create(t, m, "pos.order", models.Values{"id": 10})
		require.NoError(t, o.Update(models.Values{"partner_id": p}))
		require.NoError(t, o.Update(models.Values{"partner_id": 1}))
		assert.Equal(t, 1, p.Count("order_ids"))
	})

	t.Run("reassign detaches", func(t *testing.T) {
		t.Parallel()
		m := newModels(t)
		p1 := create(t, m, "res.partner", models.Values{"id": 1})
		p2 := create(t, m, "res.partner", models.Values{"id": 2})
		o := create(t, m, "pos.order", models.Values{"id": 10, "partner_id": p1})
		require.NoError(t, o.Update(models.Values{"partner_id": p2}))
		assert.Empty(t, p1.Many("order_ids"))
		assert.Equal(t, []*models.Record{o}, p2.Many("order_ids"))
		assert.Same(t, p2, o.One("partner_id"))
	})

	t.Run("falsy clears", func(t *testing.T) {
		t.Parallel()
		m := newModels(t)
		p := create(t, m, "res.partner", models.Values{"id": 1})
		o := create(t, m, "pos.order", models.Values{"id": 10, "partner_id": p})
		require.NoError(t, o.Update(models.Values{"partner_id": false}))
		assert.Nil(t, o.One("partner_id"))
		assert.Empty(t, p.Many("order_ids"))
		assert.Equal(t, false, o.Serialize()["partner_id"])
	})

	t.Run("unknown target", func(t *testing.T) {
		t.Parallel()
		m := newModels(t)
		o := create(t, m, "pos.order", models.Values{"id": 10})
		err := o.Update(models.Values{"partner_id": 99})
		require.Error(t, err)
		assert.True(t, related.IsConsistencyError(err))
	})
}

func TestOne2Many(t *testing.T) {
	t.Parallel()

	t.Run("link sets the inverse", func(t *testing.T) {
		t.Parallel()
		m := newModels(t)
		p := create(t, m, "res.partner", models.Values{"id": 1})
		o := create(t, m, "pos.order", models.Values{"id": 10})
		require.NoError(t, p.Update(models.Values{"order_ids": models.Link(o)}))
		assert.Same(t, p, o.One("partner_id"))
		assert.Equal(t, []*models.Record{o}, p.Many("order_ids"))
	})

	t.Run("steal keeps the previous parent listing", func(t *testing.T) {
		t.Parallel()
		m := newModels(t)
		p1 := create(t, m, "res.partner", models.Values{"id": 1})
		p2 := create(t, m, "res.partner", models.Values{"id": 2})
		o := create(t, m, "pos.order", models.Values{"id": 10, "partner_id": p1})
		require.NoError(t, p2.Update(models.Values{"order_ids": models.Link(o)}))
		assert.Same(t, p2, o.One("partner_id"))
		assert.Equal(t, []*models.Record{o}, p2.Many("order_ids"))
		assert.Equal(t, []*models.Record{o}, p1.Many("order_ids"))
	})

	t.Run("unlink restores state", func(t *testing.T) {
		t.Parallel()
		m := newModels(t)
		p := create(t, m, "res.partner", models.Values{"id": 1})
		o := create(t, m, "pos.order", models.Values{"id": 10})
		require.NoError(t, p.Update(models.Values{"order_ids": models.Link(o)}))
		require.NoError(t, p.Update(models.Values{"order_ids": models.Unlink(o)}))
		assert.Nil(t, o.One("partner_id"))
		assert.Empty(t, p.Many("order_ids"))
	})

	t.Run("dedup", func(t *testing.T) {
		t.Parallel()
		m := newModels(t)
		p := create(t, m, "res.partner", models.Values{"id": 1})
		o := create(t, m, "pos.order", models.Values{"id": 10})
		require.NoError(t, p.Update(models.Values{"order_ids": models.Link(o, 10, "10")}))
		assert.Equal(t, 1, p.Count("order_ids"))
	})

	t.Run("unlink undefined", func(t *testing.T) {
		t.Parallel()
		m := newModels(t)
		p := create(t, m, "res.partner", models.Values{"id": 1})
		err := p.Update(models.Values{"order_ids": models.Unlink(42)})
		require.Error(t, err)
		assert.True(t, related.IsConsistencyError(err))
	})

	t.Run("removal shifts positions", func(t *testing.T) {
		t.Parallel()
		m := newModels(t)
		p := create(t, m, "res.partner", models.Values{"id": 1})
		var orders []*models.Record
		for _, id := range []int{10, 11, 12} {
			orders = append(orders, create(t, m, "pos.order", models.Values{"id": id, "partner_id": p}))
		}
		require.NoError(t, p.Update(models.Values{"order_ids": models.Unlink(orders[0])}))
		require.NoError(t, p.Update(models.Values{"order_ids": models.Unlink(orders[2])}))
		assert.Equal(t, []*models.Record{orders[1]}, p.Many("order_ids"))
		require.NoError(t, p.Update(models.Values{"order_ids": models.Link(orders[0])}))
		assert.Equal(t, []*models.Record{orders[1], orders[0]}, p.Many("order_ids"))
	})
}

func TestMany2Many(t *testing.T) {
	t.Parallel()
	const back = "<-pos.order.tag_ids"

	m := newModels(t)
	t1 := create(t, m, "pos.tag", models.Values{"id": 1, "name": "hot"})
	t2 := create(t, m, "pos.tag", models.Values{"id": 2, "name": "cold"})
	o1 := create(t, m, "pos.order", models.Values{"id": 10, "tag_ids": models.Link(t1, t2)})
	o2 := create(t, m, "pos.order", models.Values{"id": 11, "tag_ids": []any{1}})

	assert.Equal(t, []*models.Record{t1, t2}, o1.Many("tag_ids"))
	assert.Equal(t, []*models.Record{o1, o2}, t1.Many(back))
	assert.Equal(t, []*models.Record{o1}, t2.Many(back))

	require.NoError(t, o1.Update(models.Values{"tag_ids": models.Unlink(t1)}))
	assert.Equal(t, []*models.Record{t2}, o1.Many("tag_ids"))
	assert.Equal(t, []*models.Record{o2}, t1.Many(back))

	require.NoError(t, o2.Update(models.Values{"tag_ids": models.Set(t2)}))
	assert.Equal(t, []*models.Record{t2}, o2.Many("tag_ids"))
	assert.Empty(t, t1.Many(back))
	assert.Equal(t, []*models.Record{o1, o2}, t2.Many(back))

	// The synthesized inverse never reaches the wire.
	assert.NotContains(t, t2.Serialize(), back)
}

func TestRekey(t *testing.T) {
	t.Parallel()
	m := newModels(t)
	p := create(t, m, "res.partner", models.Values{"id": 1})
	o := create(t, m, "pos.order", models.Values{"partner_id": p})
	require.True(t, o.ID().IsSynthesized())

	require.NoError(t, o.Update(models.Values{"id": 50}))
	assert.Equal(t, related.IntID(50), o.ID())
	assert.Same(t, o, m.Table("pos.order").Read(50))
	assert.Nil(t, m.Table("pos.order").Read("pos.order_1"))
	require.NoError(t, p.Update(models.Values{"order_ids": models.Link(50)}))
	assert.Equal(t, []*models.Record{o}, p.Many("order_ids"))
	require.NoError(t, p.Update(models.Values{"order_ids": models.Unlink(o)}))
	assert.Empty(t, p.Many("order_ids"))
}
