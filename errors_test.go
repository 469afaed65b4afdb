package related_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/related"
)

func TestSchemaError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := related.NewSchemaError("pos.order", "lines", "ambiguous inverse")
		assert.Equal(t, "related: schema error on model pos.order field lines: ambiguous inverse", err.Error())

		cause := errors.New("unknown field type")
		err = &related.SchemaError{Model: "pos.order", Cause: cause}
		assert.Equal(t, "related: schema error on model pos.order: unknown field type", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("IsSchemaError", func(t *testing.T) {
		err := related.NewSchemaError("a", "", "bad")
		assert.True(t, errors.Is(err, related.ErrSchema))
		assert.True(t, related.IsSchemaError(fmt.Errorf("load: %w", err)))
		assert.True(t, related.IsSchemaError(related.ErrSchema))
		assert.False(t, related.IsSchemaError(errors.New("other error")))
		assert.False(t, related.IsSchemaError(nil))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := related.NewRequiredError("pos.order.line", "qty")
		assert.Equal(t, `related: validation failed for pos.order.line field "qty": field is required when creating "pos.order.line" record`, err.Error())
	})

	t.Run("IsValidationError", func(t *testing.T) {
		err := related.NewValidationError("a", "x", "bad")
		assert.True(t, errors.Is(err, related.ErrValidation))
		assert.True(t, related.IsValidationError(fmt.Errorf("wrapper: %w", err)))
		assert.False(t, related.IsValidationError(related.ErrSchema))
		assert.False(t, related.IsValidationError(nil))
	})
}

func TestLookupError(t *testing.T) {
	err := related.NewLookupError("pos.order", "name")
	assert.Equal(t, `related: unable to get record by "name": pos.order has no index on it`, err.Error())
	assert.True(t, errors.Is(err, related.ErrLookup))
	assert.True(t, related.IsLookupError(fmt.Errorf("read: %w", err)))
	assert.False(t, related.IsLookupError(nil))
}

func TestConsistencyError(t *testing.T) {
	err := related.NewConsistencyError("pos.order", "lines", "record is undefined")
	assert.Equal(t, "related: pos.order.lines: record is undefined", err.Error())
	assert.Equal(t, "related: pos.order: gone", related.NewConsistencyError("pos.order", "", "gone").Error())
	assert.True(t, errors.Is(err, related.ErrConsistency))
	assert.True(t, related.IsConsistencyError(fmt.Errorf("update: %w", err)))
	assert.False(t, related.IsConsistencyError(related.NewLookupError("a", "b")))
}

func BenchmarkErrors(b *testing.B) {
	b.Run("NewConsistencyError", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = related.NewConsistencyError("pos.order", "lines", "undefined")
		}
	})

	b.Run("IsConsistencyError", func(b *testing.B) {
		err := fmt.Errorf("wrap: %w", related.NewConsistencyError("pos.order", "lines", "undefined"))
		for i := 0; i < b.N; i++ {
			_ = related.IsConsistencyError(err)
		}
	})
}
