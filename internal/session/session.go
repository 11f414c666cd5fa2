// Package session remembers who owns the todos on this machine.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/timada-org/taskflow/pkg/todo"
)

const OwnerKey = "owner_email"

var (
	ErrOwnerSet     = errors.New("session owner already set")
	ErrInvalidEmail = errors.New("invalid email format")
)

// Store is a small persistent key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type Session struct {
	mux   sync.RWMutex
	store Store
	owner string
}

func New(store Store) *Session {
	return &Session{store: store}
}

// Restore reads the persisted owner. It is meant to be called once at
// startup. A stored value that is not a valid email counts as no owner.
func (s *Session) Restore(ctx context.Context) (string, bool, error) {
	email, ok, err := s.store.Get(ctx, OwnerKey)
	if err != nil {
		return "", false, fmt.Errorf("restore session: %w", err)
	}

	email = strings.TrimSpace(email)
	if !ok || !todo.ValidateEmail(email) {
		return "", false, nil
	}

	s.mux.Lock()
	s.owner = email
	s.mux.Unlock()

	return email, true, nil
}

// Persist validates email, stores it and makes it the owner. The owner
// cannot change once set.
func (s *Session) Persist(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !todo.ValidateEmail(email) {
		return ErrInvalidEmail
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	if s.owner != "" {
		if s.owner == email {
			return nil
		}
		return ErrOwnerSet
	}

	if err := s.store.Set(ctx, OwnerKey, email); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.owner = email

	return nil
}

func (s *Session) Owner() string {
	s.mux.RLock()
	defer s.mux.RUnlock()

	return s.owner
}
