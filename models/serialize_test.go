package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/related"
	"github.com/syssam/related/models"
)

func TestSerializeFlat(t *testing.T) {
	t.Parallel()
	m := newModels(t)
	create(t, m, "res.partner", models.Values{"id": 1, "name": "Acme"})
	tag := create(t, m, "pos.tag", models.Values{"id": 3, "name": "hot"})
	o := create(t, m, "pos.order", models.Values{"id": 10, "name": "A", "partner_id": 1, "note": "x", "tag_ids": models.Link(tag)})
	create(t, m, "pos.order.line", models.Values{"id": 100, "qty": 1.0, "order_id": o})

	assert.Equal(t, models.Values{
		"id":         int64(10),
		"name":       "A",
		"partner_id": int64(1),
		"lines":      []any{int64(100)},
		"tag_ids":    []any{int64(3)},
		"note":       "x",
	}, o.Serialize())
	assert.Equal(t, o.Serialize(), m.Table("pos.order").Serialize(o))

	orm := m.Table("pos.order").Serialize(o, models.ORM())
	assert.NotContains(t, orm, "note")

	empty := create(t, m, "pos.order", models.Values{"id": 11})
	assert.Equal(t, models.Values{
		"id":         int64(11),
		"name":       false,
		"partner_id": false,
		"lines":      []any{},
		"tag_ids":    []any{},
		"note":       false,
	}, empty.Serialize())

	assert.Equal(t, models.Values{"id": int64(3), "name": "hot", "uuid": false}, tag.Serialize())
}

func TestSerializeRoundTrip(t *testing.T) {
	t.Parallel()
	src := newModels(t)
	p := create(t, src, "res.partner", models.Values{"id": 1, "name": "Acme"})
	t1 := create(t, src, "pos.tag", models.Values{"id": 1, "name": "hot"})
	t2 := create(t, src, "pos.tag", models.Values{"id": 2, "name": "cold"})
	create(t, src, "pos.order", models.Values{
		"id":         10,
		"name":       "A",
		"partner_id": p,
		"tag_ids":    models.Link(t1, t2),
		"lines":      models.Create(models.Values{"id": 100, "qty": 1.0}, models.Values{"id": 101, "qty": 2.5}),
	})
	create(t, src, "pos.order", models.Values{"id": 11, "partner_id": p, "tag_ids": models.Link(t2)})
	create(t, src, "pos.order", models.Values{"name": "local"})

	snapshot := models.Snapshot{}
	for _, name := range src.Schema().Models() {
		for _, r := range src.Table(name).ReadAll() {
			snapshot[name] = append(snapshot[name], r.Serialize())
		}
	}

	dst := newModels(t)
	_, err := dst.Load(snapshot, models.LoadSerialized())
	require.NoError(t, err)
	assert.Empty(t, dst.Pending())
	for _, name := range src.Schema().Models() {
		want, got := src.Table(name).ReadAll(), dst.Table(name).ReadAll()
		require.Len(t, got, len(want), name)
		for i := range want {
			assert.Equal(t, want[i].Serialize(), got[i].Serialize(), "%s %s", name, want[i].ID())
		}
	}

	next := create(t, dst, "pos.order", models.Values{})
	assert.Equal(t, related.StringID("pos.order_2"), next.ID())
}

func TestSerializeORM(t *testing.T) {
	t.Parallel()
	m := newModels(t)
	o := create(t, m, "pos.order", models.Values{"id": 10, "name": "A", "note": "x"})
	create(t, m, "pos.order.line", models.Values{"id": 100, "qty": 1.0, "order_id": 10})
	l101 := create(t, m, "pos.order.line", models.Values{"id": 101, "qty": 2.0, "order_id": 10})
	create(t, m, "pos.order.line", models.Values{"id": 102, "qty": 3.0, "order_id": 10})

	require.NoError(t, l101.Update(models.Values{"qty": 5.0}))
	require.NoError(t, o.Update(models.Values{"lines": []models.Command{
		models.Create(models.Values{"qty": 7.0}),
		models.Unlink(102),
	}}))

	want := models.Values{
		"id":         int64(10),
		"name":       "A",
		"partner_id": false,
		"tag_ids":    []any{},
		"lines": []any{
			[]any{4, int64(100)},
			[]any{1, int64(101), models.Values{"id": int64(101), "qty": 5.0}},
			[]any{0, 0, models.Values{"qty": 7.0}},
			[]any{3, int64(102)},
		},
	}
	assert.Equal(t, want, o.Serialize(models.ORM()))
	// Without Commit the payload can be sent again.
	assert.Equal(t, want, o.Serialize(models.ORM()))

	assert.Equal(t, want, o.Serialize(models.ORM(), models.Commit()))
	assert.True(t, m.Table("pos.order").Log().Empty())
	assert.True(t, m.Table("pos.order.line").Log().Empty())
	assert.Equal(t, []any{
		[]any{4, int64(100)},
		[]any{4, int64(101)},
		[]any{0, 0, models.Values{"qty": 7.0}},
	}, o.Serialize(models.ORM())["lines"])
}

func TestSerializeORMDeleted(t *testing.T) {
	t.Parallel()
	m := newModels(t)
	o := create(t, m, "pos.order", models.Values{"id": 10})
	l := create(t, m, "pos.order.line", models.Values{"id": 100, "qty": 1.0, "order_id": 10})
	require.NoError(t, l.Delete(models.Backend()))
	assert.Equal(t, []any{[]any{2, int64(100)}}, o.Serialize(models.ORM())["lines"])
}

func TestSerializeORMLocal(t *testing.T) {
	t.Parallel()
	m := newModels(t)
	p := create(t, m, "res.partner", models.Values{"name": "Walk-in"})
	o := create(t, m, "pos.order", models.Values{"partner_id": p})

	payload := o.Serialize(models.ORM())
	assert.NotContains(t, payload, "id")
	assert.Equal(t, int64(1), payload["partner_id"])

	orders := p.Serialize(models.ORM())["order_ids"].([]any)
	require.Len(t, orders, 1)
	tuple := orders[0].([]any)
	assert.Equal(t, 0, tuple[0])
	diff := tuple[2].(models.Values)
	assert.NotContains(t, diff, "partner_id")
	assert.NotContains(t, diff, "id")
}

func TestSetDirty(t *testing.T) {
	t.Parallel()
	m := newModels(t)
	persisted := create(t, m, "pos.tag", models.Values{"id": 1})
	local := create(t, m, "pos.tag", models.Values{})
	persisted.SetDirty()
	local.SetDirty()
	assert.True(t, persisted.IsDirty())
	assert.False(t, local.IsDirty())
	assert.Equal(t, []related.ID{related.IntID(1)}, m.Table("pos.tag").Log().Updated())
}
