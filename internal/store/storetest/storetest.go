// Package storetest provides an in-memory store.Backend that records calls
// and can be told to fail.
package storetest

import (
	"context"
	"sort"
	"sync"

	"github.com/timada-org/taskflow/internal/store"
	"github.com/timada-org/taskflow/pkg/todo"
)

type Call struct {
	Op    string
	Query store.Query
	Patch todo.Patch
	Rows  []todo.Todo
}

type Backend struct {
	mux    sync.Mutex
	nextID int64
	rows   []todo.Todo
	calls  []Call
	errs   map[string]error

	// EmptyInsert makes Insert succeed without returning rows.
	EmptyInsert bool
}

func New(rows ...todo.Todo) *Backend {
	b := &Backend{errs: make(map[string]error)}

	for _, r := range rows {
		if r.ID > b.nextID {
			b.nextID = r.ID
		}
		b.rows = append(b.rows, r)
	}

	return b
}

// Fail makes every later call to op ("select", "insert", "update", "delete")
// return err. A nil err clears the failure.
func (b *Backend) Fail(op string, err error) {
	b.mux.Lock()
	defer b.mux.Unlock()

	if err == nil {
		delete(b.errs, op)
		return
	}

	b.errs[op] = err
}

func (b *Backend) Calls() []Call {
	b.mux.Lock()
	defer b.mux.Unlock()

	return append([]Call(nil), b.calls...)
}

func (b *Backend) Rows() []todo.Todo {
	b.mux.Lock()
	defer b.mux.Unlock()

	return append([]todo.Todo(nil), b.rows...)
}

func (b *Backend) Select(ctx context.Context, q store.Query) ([]todo.Todo, error) {
	b.mux.Lock()
	defer b.mux.Unlock()

	b.calls = append(b.calls, Call{Op: "select", Query: q})
	if err := b.errs["select"]; err != nil {
		return nil, err
	}

	if err := q.Validate(); err != nil {
		return nil, err
	}

	out := []todo.Todo{}
	for _, r := range b.rows {
		if q.Match(r) {
			out = append(out, r)
		}
	}

	if q.Order != nil && q.Order.Column == todo.ColumnCreatedAt {
		desc := q.Order.Direction == store.Descending
		sort.SliceStable(out, func(i, j int) bool {
			if desc {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	}

	return out, nil
}

func (b *Backend) Insert(ctx context.Context, rows ...todo.Todo) ([]todo.Todo, error) {
	b.mux.Lock()
	defer b.mux.Unlock()

	b.calls = append(b.calls, Call{Op: "insert", Rows: rows})
	if err := b.errs["insert"]; err != nil {
		return nil, err
	}

	if b.EmptyInsert {
		return []todo.Todo{}, nil
	}

	out := make([]todo.Todo, 0, len(rows))
	for _, r := range rows {
		b.nextID++
		r.ID = b.nextID
		b.rows = append(b.rows, r)
		out = append(out, r)
	}

	return out, nil
}

func (b *Backend) Update(ctx context.Context, q store.Query, patch todo.Patch) error {
	b.mux.Lock()
	defer b.mux.Unlock()

	b.calls = append(b.calls, Call{Op: "update", Query: q, Patch: patch})
	if err := b.errs["update"]; err != nil {
		return err
	}

	if err := q.ValidateMutation(); err != nil {
		return err
	}

	for i := range b.rows {
		if q.Match(b.rows[i]) {
			patch.Apply(&b.rows[i])
		}
	}

	return nil
}

func (b *Backend) Delete(ctx context.Context, q store.Query) error {
	b.mux.Lock()
	defer b.mux.Unlock()

	b.calls = append(b.calls, Call{Op: "delete", Query: q})
	if err := b.errs["delete"]; err != nil {
		return err
	}

	if err := q.ValidateMutation(); err != nil {
		return err
	}

	kept := b.rows[:0]
	for _, r := range b.rows {
		if !q.Match(r) {
			kept = append(kept, r)
		}
	}
	b.rows = kept

	return nil
}

func (b *Backend) Close() error {
	return nil
}
