package todolist_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timada-org/taskflow/internal/session"
	"github.com/timada-org/taskflow/internal/store"
	"github.com/timada-org/taskflow/internal/store/storetest"
	"github.com/timada-org/taskflow/internal/todolist"
	"github.com/timada-org/taskflow/pkg/todo"
)

var now = time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC)

func newSession(t *testing.T, owner string) *session.Session {
	t.Helper()

	s := session.New(session.NewFileStore(filepath.Join(t.TempDir(), "session.json")))
	if owner != "" {
		require.NoError(t, s.Persist(context.Background(), owner))
	}

	return s
}

func newList(t *testing.T, backend store.Backend, owner string) *todolist.List {
	t.Helper()

	return todolist.New(backend, newSession(t, owner),
		todolist.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		todolist.WithNow(func() time.Time { return now }),
	)
}

func record(l *todolist.List) *[]todolist.Change {
	changes := &[]todolist.Change{}
	l.Subscribe(func(c todolist.Change) {
		*changes = append(*changes, c)
	})
	return changes
}

func TestScenario(t *testing.T) {
	ctx := context.Background()
	backend := storetest.New()

	sess := newSession(t, "")
	l := todolist.New(backend, sess, todolist.WithNow(func() time.Time { return now }))
	assert.False(t, l.Loading())

	require.NoError(t, sess.Persist(ctx, "user@example.com"))
	assert.True(t, l.Loading())
	require.NoError(t, l.LoadAll(ctx, "user@example.com"))
	assert.False(t, l.Loading())

	created, err := l.Create(ctx, "Write report")
	require.NoError(t, err)
	require.Len(t, l.Todos(), 1)
	assert.False(t, l.Todos()[0].Completed)
	assert.Equal(t, "user@example.com", created.OwnerEmail)

	require.NoError(t, l.SetCompleted(ctx, created.ID, true))
	assert.True(t, l.Todos()[0].Completed)
	assert.Equal(t, todolist.Stats{Total: 1, Done: 1}, l.Stats())

	require.NoError(t, l.Remove(ctx, created.ID))
	assert.Empty(t, l.Todos())

	require.NoError(t, l.LoadAll(ctx, "user@example.com"))
	assert.Equal(t, []todo.Todo{}, l.Todos())
	assert.Empty(t, l.Err())
}

func TestLoadAll(t *testing.T) {
	ctx := context.Background()
	t1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	backend := storetest.New(
		todo.Todo{ID: 1, Title: "old", OwnerEmail: "a@b.com", CreatedAt: t1},
		todo.Todo{ID: 2, Title: "new", OwnerEmail: "a@b.com", CreatedAt: t1.Add(time.Hour)},
		todo.Todo{ID: 3, Title: "someone else", OwnerEmail: "c@d.com", CreatedAt: t1},
	)

	l := newList(t, backend, "a@b.com")
	changes := record(l)

	require.NoError(t, l.LoadAll(ctx, "a@b.com"))
	todos := l.Todos()
	require.Len(t, todos, 2)
	assert.Equal(t, "new", todos[0].Title)
	assert.Equal(t, "old", todos[1].Title)
	assert.Equal(t, []todolist.Change{{Kind: todolist.Loaded}}, *changes)

	t.Run("failure keeps state", func(t *testing.T) {
		backend.Fail("select", errors.New("connection refused"))
		defer backend.Fail("select", nil)

		err := l.LoadAll(ctx, "a@b.com")
		assert.Error(t, err)
		assert.Equal(t, "Failed to fetch todos. Please check your connection.", l.Err())
		assert.Len(t, l.Todos(), 2)
		assert.False(t, l.Loading())

		l.ClearErr()
		assert.Empty(t, l.Err())
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("prepends trimmed todo", func(t *testing.T) {
		backend := storetest.New()
		l := newList(t, backend, "a@b.com")
		changes := record(l)

		_, err := l.Create(ctx, "first")
		require.NoError(t, err)
		created, err := l.Create(ctx, "  second  ")
		require.NoError(t, err)

		assert.Equal(t, "second", created.Title)
		assert.False(t, created.Completed)
		assert.Equal(t, now, created.CreatedAt)
		assert.Equal(t, now, created.UpdatedAt)

		todos := l.Todos()
		require.Len(t, todos, 2)
		assert.Equal(t, "second", todos[0].Title)
		assert.Equal(t, "first", todos[1].Title)

		require.Len(t, *changes, 2)
		assert.Equal(t, todolist.Created, (*changes)[1].Kind)
		assert.Equal(t, created.ID, (*changes)[1].ID)
	})

	t.Run("blank title or no owner is a no-op", func(t *testing.T) {
		backend := storetest.New()

		created, err := newList(t, backend, "a@b.com").Create(ctx, "   ")
		require.NoError(t, err)
		assert.Zero(t, created)

		created, err = newList(t, backend, "").Create(ctx, "Buy milk")
		require.NoError(t, err)
		assert.Zero(t, created)

		assert.Empty(t, backend.Calls())
	})

	t.Run("failure", func(t *testing.T) {
		backend := storetest.New()
		backend.Fail("insert", errors.New("timeout"))
		l := newList(t, backend, "a@b.com")
		changes := record(l)

		_, err := l.Create(ctx, "Buy milk")
		assert.Error(t, err)
		assert.Equal(t, "Failed to add todo. Please try again.", l.Err())
		assert.Empty(t, l.Todos())
		assert.Empty(t, *changes)
	})

	t.Run("no row returned", func(t *testing.T) {
		backend := storetest.New()
		backend.EmptyInsert = true
		l := newList(t, backend, "a@b.com")

		_, err := l.Create(ctx, "Buy milk")
		assert.Error(t, err)
		assert.Equal(t, "Failed to add todo. Please try again.", l.Err())
		assert.Empty(t, l.Todos())
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*storetest.Backend, *todolist.List) {
		backend := storetest.New(
			todo.Todo{ID: 7, Title: "Buy milk", OwnerEmail: "a@b.com", CreatedAt: now},
		)
		l := newList(t, backend, "a@b.com")
		require.NoError(t, l.LoadAll(ctx, "a@b.com"))
		return backend, l
	}

	t.Run("toggle", func(t *testing.T) {
		_, l := setup(t)
		changes := record(l)

		require.NoError(t, l.SetCompleted(ctx, 7, true))
		assert.True(t, l.Todos()[0].Completed)
		assert.Equal(t, "Buy milk", l.Todos()[0].Title)

		require.Len(t, *changes, 1)
		assert.Equal(t, todolist.Updated, (*changes)[0].Kind)
		assert.True(t, (*changes)[0].Todo.Completed)
	})

	t.Run("rename", func(t *testing.T) {
		backend, l := setup(t)

		require.NoError(t, l.Rename(ctx, 7, "  Buy oat milk "))
		assert.Equal(t, "Buy oat milk", l.Todos()[0].Title)
		assert.False(t, l.Todos()[0].Completed)

		calls := backend.Calls()
		last := calls[len(calls)-1]
		assert.Equal(t, "update", last.Op)
		assert.Nil(t, last.Patch.Completed)
	})

	t.Run("blank rename is a no-op", func(t *testing.T) {
		backend, l := setup(t)
		before := len(backend.Calls())

		require.NoError(t, l.Rename(ctx, 7, "  "))
		assert.Len(t, backend.Calls(), before)
		assert.Equal(t, "Buy milk", l.Todos()[0].Title)
	})

	t.Run("unknown id still reaches the backend", func(t *testing.T) {
		backend, l := setup(t)
		changes := record(l)

		require.NoError(t, l.SetCompleted(ctx, 99, true))
		assert.False(t, l.Todos()[0].Completed)

		calls := backend.Calls()
		last := calls[len(calls)-1]
		assert.Equal(t, store.ByID(99).Filters, last.Query.Filters)

		require.Len(t, *changes, 1)
		assert.Zero(t, (*changes)[0].Todo)
	})

	t.Run("failure keeps state", func(t *testing.T) {
		backend, l := setup(t)
		backend.Fail("update", errors.New("timeout"))

		assert.Error(t, l.SetCompleted(ctx, 7, true))
		assert.False(t, l.Todos()[0].Completed)
		assert.Equal(t, "Failed to update todo. Please try again.", l.Err())
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()

	backend := storetest.New(
		todo.Todo{ID: 1, Title: "one", OwnerEmail: "a@b.com", CreatedAt: now},
		todo.Todo{ID: 2, Title: "two", OwnerEmail: "a@b.com", CreatedAt: now.Add(time.Minute)},
	)
	l := newList(t, backend, "a@b.com")
	require.NoError(t, l.LoadAll(ctx, "a@b.com"))

	backend.Fail("delete", errors.New("timeout"))
	assert.Error(t, l.Remove(ctx, 1))
	assert.Len(t, l.Todos(), 2)
	assert.Equal(t, "Failed to delete todo. Please try again.", l.Err())
	backend.Fail("delete", nil)

	require.NoError(t, l.Remove(ctx, 1))
	require.NoError(t, l.Remove(ctx, 1))

	todos := l.Todos()
	require.Len(t, todos, 1)
	assert.Equal(t, int64(2), todos[0].ID)
}

func TestNotConfigured(t *testing.T) {
	ctx := context.Background()
	l := newList(t, nil, "a@b.com")

	assert.ErrorIs(t, l.LoadAll(ctx, "a@b.com"), store.ErrNotConfigured)
	assert.False(t, l.Loading())

	_, err := l.Create(ctx, "Buy milk")
	assert.ErrorIs(t, err, store.ErrNotConfigured)
	assert.ErrorIs(t, l.SetCompleted(ctx, 1, true), store.ErrNotConfigured)
	assert.ErrorIs(t, l.Rename(ctx, 1, "x"), store.ErrNotConfigured)
	assert.ErrorIs(t, l.Remove(ctx, 1), store.ErrNotConfigured)

	assert.Equal(t, "Backend is not configured. Please check your environment variables.", l.Err())
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	l := newList(t, storetest.New(), "a@b.com")

	var first, second int
	unsubscribe := l.Subscribe(func(todolist.Change) { first++ })
	l.Subscribe(func(todolist.Change) { second++ })

	_, err := l.Create(ctx, "one")
	require.NoError(t, err)

	unsubscribe()
	unsubscribe()

	_, err = l.Create(ctx, "two")
	require.NoError(t, err)

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestOwner(t *testing.T) {
	ctx := context.Background()

	t.Run("session owner survives loading another email", func(t *testing.T) {
		backend := storetest.New()
		l := newList(t, backend, "a@b.com")

		err := l.LoadAll(ctx, "other@x.com")
		assert.ErrorIs(t, err, todolist.ErrOwnerMismatch)
		assert.Equal(t, "a@b.com", l.Owner())
		assert.Empty(t, backend.Calls())

		created, err := l.Create(ctx, "Buy milk")
		require.NoError(t, err)
		assert.Equal(t, "a@b.com", created.OwnerEmail)
	})

	t.Run("malformed email is never loaded", func(t *testing.T) {
		backend := storetest.New()
		l := newList(t, backend, "")

		assert.ErrorIs(t, l.LoadAll(ctx, "bad-owner"), todolist.ErrInvalidOwner)
		assert.Empty(t, l.Owner())

		created, err := l.Create(ctx, "Buy milk")
		require.NoError(t, err)
		assert.Zero(t, created)
		assert.Empty(t, backend.Calls())
	})

	t.Run("malformed stored owner creates nothing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"owner_email": "not an email"}`), 0o600))

		sess := session.New(session.NewFileStore(path))
		_, ok, err := sess.Restore(ctx)
		require.NoError(t, err)
		assert.False(t, ok)

		backend := storetest.New()
		l := todolist.New(backend, sess)

		created, err := l.Create(ctx, "Buy milk")
		require.NoError(t, err)
		assert.Zero(t, created)
		assert.Empty(t, backend.Rows())
		assert.False(t, l.Loading())
	})
}
