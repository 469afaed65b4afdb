package models_test

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/related"
	"github.com/syssam/related/models"
)

func TestSequenceHelpers(t *testing.T) {
	t.Parallel()
	m := newModels(t)
	lines := m.Table("pos.order.line")
	create(t, m, "pos.order", models.Values{"id": 10})
	create(t, m, "pos.order", models.Values{"id": 11})
	for i, qty := range []float64{3, 1, 2} {
		order := 10
		if i == 2 {
			order = 11
		}
		create(t, m, "pos.order.line", models.Values{"id": 100 + i, "qty": qty, "order_id": order})
	}
	qty := func(r *models.Record) float64 { return r.Get("qty").(float64) }

	assert.Equal(t, []float64{3, 1, 2}, models.Map(lines, qty))
	assert.Equal(t, 6.0, models.Reduce(lines, 0.0, func(acc float64, r *models.Record) float64 { return acc + qty(r) }))
	assert.Equal(t, []related.ID{related.IntID(100), related.IntID(102)},
		ids(lines.Filter(func(r *models.Record) bool { return qty(r) > 1 })))
	assert.Equal(t, related.IntID(101), lines.Find(func(r *models.Record) bool { return qty(r) == 1 }).ID())
	assert.Nil(t, lines.Find(func(r *models.Record) bool { return qty(r) > 10 }))
	assert.True(t, lines.Some(func(r *models.Record) bool { return qty(r) == 2 }))
	assert.True(t, lines.Every(func(r *models.Record) bool { return qty(r) > 0 }))
	assert.False(t, lines.Every(func(r *models.Record) bool { return qty(r) > 1 }))
	assert.Equal(t, []related.ID{related.IntID(101), related.IntID(102), related.IntID(100)},
		ids(lines.SortBy(func(a, b *models.Record) int { return cmp.Compare(qty(a), qty(b)) })))

	groups := models.GroupBy(lines.ReadAll(), func(r *models.Record) related.ID { return r.One("order_id").ID() })
	assert.Len(t, groups[related.IntID(10)], 2)
	assert.Len(t, groups[related.IntID(11)], 1)

	ordered := models.OrderByKeys([]related.ID{related.IntID(102), related.IntID(999), related.IntID(100)},
		lines.ReadAll(), (*models.Record).ID)
	assert.Equal(t, related.IntID(102), ordered[0].ID())
	assert.Nil(t, ordered[1])
	assert.Equal(t, related.IntID(100), ordered[2].ID())

	var seen int
	lines.Each(func(*models.Record) { seen++ })
	assert.Equal(t, 3, seen)
	for r := range lines.All() {
		_ = r.Delete()
	}
	assert.Zero(t, lines.Len())
}
