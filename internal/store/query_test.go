package store_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timada-org/taskflow/internal/store"
	"github.com/timada-org/taskflow/pkg/todo"
)

func TestQuery(t *testing.T) {

	t.Run("builder does not share filters", func(t *testing.T) {
		base := store.Where(todo.ColumnOwnerEmail, "a@b.com")
		a := base.Eq(todo.ColumnCompleted, true)
		b := base.Eq(todo.ColumnCompleted, false)

		require.Len(t, base.Filters, 1)
		require.Len(t, a.Filters, 2)
		require.Len(t, b.Filters, 2)
		assert.Equal(t, true, a.Filters[1].Value)
		assert.Equal(t, false, b.Filters[1].Value)
	})

	t.Run("order", func(t *testing.T) {
		q := store.Where(todo.ColumnOwnerEmail, "a@b.com").OrderBy(todo.ColumnCreatedAt, store.Descending)

		require.NotNil(t, q.Order)
		assert.Equal(t, todo.ColumnCreatedAt, q.Order.Column)
		assert.Equal(t, "desc", q.Order.Direction.String())
		assert.Equal(t, "asc", store.Ascending.String())
	})

	t.Run("validate", func(t *testing.T) {
		require.NoError(t, store.ByID(1).ValidateMutation())
		require.ErrorIs(t, store.Query{}.ValidateMutation(), store.ErrUnfiltered)
		require.ErrorIs(t, store.Where("nope", 1).Validate(), store.ErrUnknownColumn)
		require.ErrorIs(t, store.Query{}.OrderBy("nope", store.Ascending).Validate(), store.ErrUnknownColumn)
	})

	t.Run("match", func(t *testing.T) {
		item := todo.Todo{ID: 7, Title: "x", OwnerEmail: "a@b.com"}

		assert.True(t, store.ByID(7).Match(item))
		assert.True(t, store.Where(todo.ColumnOwnerEmail, "a@b.com").Eq(todo.ColumnCompleted, false).Match(item))
		assert.False(t, store.ByID(8).Match(item))
	})
}

func TestDetails(t *testing.T) {
	err := &store.Error{Op: "insert", Message: "duplicate key value", Err: errors.New("pq: 23505")}

	assert.Equal(t, "duplicate key value", store.Details(err))
	assert.Equal(t, "insert: duplicate key value", err.Error())
	assert.Equal(t, "boom", store.Details(errors.New("boom")))
	assert.Equal(t, "", store.Details(nil))
}
