// Package todolist keeps the owner's todos in memory and mirrors every
// change to the backend before applying it locally.
package todolist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/timada-org/taskflow/internal/session"
	"github.com/timada-org/taskflow/internal/store"
	"github.com/timada-org/taskflow/pkg/todo"
)

// NotConfiguredMessage is recorded by every operation when no backend is set.
const NotConfiguredMessage = "Backend is not configured. Please check your environment variables."

const (
	msgLoadFailed   = "Failed to fetch todos. Please check your connection."
	msgCreateFailed = "Failed to add todo. Please try again."
	msgUpdateFailed = "Failed to update todo. Please try again."
	msgDeleteFailed = "Failed to delete todo. Please try again."
)

var (
	ErrInvalidOwner  = errors.New("invalid owner email")
	ErrOwnerMismatch = errors.New("email does not match the session owner")
)

type Option func(*List)

func WithLogger(logger *slog.Logger) Option {
	return func(l *List) {
		l.logger = logger
	}
}

func WithNow(now func() time.Time) Option {
	return func(l *List) {
		l.now = now
	}
}

type Stats struct {
	Total   int
	Done    int
	Pending int
}

type List struct {
	mux     sync.RWMutex
	backend store.Backend
	session *session.Session
	logger  *slog.Logger
	now     func() time.Time
	bus     *bus

	todos  []todo.Todo
	owner  string
	loaded bool
	err    string
}

// New returns an empty list. backend may be nil, in which case every
// operation fails with store.ErrNotConfigured.
func New(backend store.Backend, sess *session.Session, opts ...Option) *List {
	l := &List{
		backend: backend,
		session: sess,
		logger:  slog.Default(),
		now:     time.Now,
		bus:     newBus(),
		todos:   []todo.Todo{},
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *List) Configured() bool {
	return l.backend != nil
}

func (l *List) Subscribe(fn func(Change)) func() {
	return l.bus.subscribe(fn)
}

// LoadAll replaces the local todos with the ones email owns, newest first.
// Once the session has an owner, email must be that owner.
func (l *List) LoadAll(ctx context.Context, email string) error {
	if err := l.configured(); err != nil {
		l.mux.Lock()
		l.loaded = true
		l.mux.Unlock()
		return err
	}

	if !todo.ValidateEmail(email) {
		return fmt.Errorf("load todos: %w: %q", ErrInvalidOwner, email)
	}

	if owner := l.sessionOwner(); owner != "" && owner != email {
		return fmt.Errorf("load todos: %w", ErrOwnerMismatch)
	}

	query := store.Where(todo.ColumnOwnerEmail, email).
		OrderBy(todo.ColumnCreatedAt, store.Descending)

	todos, err := l.backend.Select(ctx, query)

	l.mux.Lock()
	l.loaded = true
	if err != nil {
		l.err = msgLoadFailed
		l.mux.Unlock()
		l.logger.Warn("load todos", "owner", email, "err", err)
		return fmt.Errorf("load todos: %w", err)
	}

	if todos == nil {
		todos = []todo.Todo{}
	}
	l.todos = todos
	l.owner = email
	l.mux.Unlock()

	l.bus.send(Change{Kind: Loaded})

	return nil
}

// Create adds a todo for the current owner and returns it. A blank title or
// an unknown owner is a no-op and returns a zero todo.
func (l *List) Create(ctx context.Context, title string) (todo.Todo, error) {
	if err := l.configured(); err != nil {
		return todo.Todo{}, err
	}

	title = strings.TrimSpace(title)
	owner := l.Owner()
	if title == "" || !todo.ValidateEmail(owner) {
		return todo.Todo{}, nil
	}

	rows, err := l.backend.Insert(ctx, todo.New(title, owner, false, l.now()))
	if err == nil && len(rows) == 0 {
		err = &store.Error{Op: "insert", Message: "no data returned"}
	}

	if err != nil {
		l.setErr(msgCreateFailed)
		l.logger.Warn("create todo", "owner", owner, "err", err)
		return todo.Todo{}, fmt.Errorf("create todo: %w", err)
	}

	created := rows[0]

	l.mux.Lock()
	l.todos = append([]todo.Todo{created}, l.todos...)
	l.mux.Unlock()

	l.bus.send(Change{Kind: Created, ID: created.ID, Todo: created})

	return created, nil
}

func (l *List) SetCompleted(ctx context.Context, id int64, completed bool) error {
	return l.update(ctx, id, todo.SetCompleted(completed))
}

// Rename changes a todo's title. A blank title is a no-op.
func (l *List) Rename(ctx context.Context, id int64, title string) error {
	if err := l.configured(); err != nil {
		return err
	}

	if strings.TrimSpace(title) == "" {
		return nil
	}

	return l.update(ctx, id, todo.SetTitle(title))
}

func (l *List) update(ctx context.Context, id int64, patch todo.Patch) error {
	if err := l.configured(); err != nil {
		return err
	}

	if err := l.backend.Update(ctx, store.ByID(id), patch); err != nil {
		l.setErr(msgUpdateFailed)
		l.logger.Warn("update todo", "id", id, "err", err)
		return fmt.Errorf("update todo %d: %w", id, err)
	}

	change := Change{Kind: Updated, ID: id}

	l.mux.Lock()
	for i := range l.todos {
		if l.todos[i].ID == id {
			patch.Apply(&l.todos[i])
			change.Todo = l.todos[i]
			break
		}
	}
	l.mux.Unlock()

	l.bus.send(change)

	return nil
}

// Remove deletes a todo. Removing an id the list does not hold only calls
// the backend.
func (l *List) Remove(ctx context.Context, id int64) error {
	if err := l.configured(); err != nil {
		return err
	}

	if err := l.backend.Delete(ctx, store.ByID(id)); err != nil {
		l.setErr(msgDeleteFailed)
		l.logger.Warn("delete todo", "id", id, "err", err)
		return fmt.Errorf("delete todo %d: %w", id, err)
	}

	l.mux.Lock()
	for i := range l.todos {
		if l.todos[i].ID == id {
			l.todos = append(l.todos[:i:i], l.todos[i+1:]...)
			break
		}
	}
	l.mux.Unlock()

	l.bus.send(Change{Kind: Removed, ID: id})

	return nil
}

func (l *List) Todos() []todo.Todo {
	l.mux.RLock()
	defer l.mux.RUnlock()

	return append([]todo.Todo{}, l.todos...)
}

// Owner is the session owner, or the email of the last successful LoadAll
// when the session has none.
func (l *List) Owner() string {
	if owner := l.sessionOwner(); owner != "" {
		return owner
	}

	l.mux.RLock()
	defer l.mux.RUnlock()

	return l.owner
}

func (l *List) sessionOwner() string {
	if l.session == nil {
		return ""
	}

	return l.session.Owner()
}

// Loading reports whether the first load for a known owner is still pending.
func (l *List) Loading() bool {
	l.mux.RLock()
	loaded := l.loaded
	l.mux.RUnlock()

	return !loaded && l.Owner() != ""
}

func (l *List) Err() string {
	l.mux.RLock()
	defer l.mux.RUnlock()

	return l.err
}

func (l *List) ClearErr() {
	l.setErr("")
}

func (l *List) Stats() Stats {
	l.mux.RLock()
	defer l.mux.RUnlock()

	stats := Stats{Total: len(l.todos)}
	for _, t := range l.todos {
		if t.Completed {
			stats.Done++
		}
	}
	stats.Pending = stats.Total - stats.Done

	return stats
}

func (l *List) configured() error {
	if l.backend != nil {
		return nil
	}

	l.setErr(NotConfiguredMessage)

	return store.ErrNotConfigured
}

func (l *List) setErr(message string) {
	l.mux.Lock()
	defer l.mux.Unlock()

	l.err = message
}
