package todolist

import (
	"sync"

	"github.com/timada-org/taskflow/pkg/todo"
)

type ChangeKind int

const (
	Loaded ChangeKind = iota
	Created
	Updated
	Removed
)

func (k ChangeKind) String() string {
	switch k {
	case Loaded:
		return "Loaded"
	case Created:
		return "Created"
	case Updated:
		return "Updated"
	case Removed:
		return "Removed"
	default:
		return "Unknown"
	}
}

// Change describes a mutation the list has applied. ID is zero for Loaded.
// Todo is the entry as held after the change, when the list holds it.
type Change struct {
	Kind ChangeKind
	ID   int64
	Todo todo.Todo
}

type bus struct {
	mux           sync.RWMutex
	next          int
	subscriptions map[int]func(Change)
}

func newBus() *bus {
	return &bus{subscriptions: make(map[int]func(Change))}
}

func (b *bus) subscribe(fn func(Change)) func() {
	b.mux.Lock()
	defer b.mux.Unlock()

	b.next++
	id := b.next
	b.subscriptions[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mux.Lock()
			defer b.mux.Unlock()
			delete(b.subscriptions, id)
		})
	}
}

// send runs subscribers outside the lock so they may unsubscribe.
func (b *bus) send(change Change) {
	b.mux.RLock()
	handlers := make([]func(Change), 0, len(b.subscriptions))
	for _, fn := range b.subscriptions {
		handlers = append(handlers, fn)
	}
	b.mux.RUnlock()

	for _, fn := range handlers {
		fn(change)
	}
}
