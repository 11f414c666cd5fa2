// Package store defines the persistence capability the API and the todo list
// are built on: select, insert, update and delete over the todos table with
// equality filters and a single sort column.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/timada-org/taskflow/pkg/todo"
)

var (
	ErrNotConfigured = errors.New("backend not configured")
	ErrUnfiltered    = errors.New("refusing to modify rows without a filter")
	ErrUnknownColumn = errors.New("unknown column")
)

type Backend interface {
	Select(ctx context.Context, q Query) ([]todo.Todo, error)
	// Insert returns the rows as stored, ids included.
	Insert(ctx context.Context, rows ...todo.Todo) ([]todo.Todo, error)
	Update(ctx context.Context, q Query, patch todo.Patch) error
	Delete(ctx context.Context, q Query) error
	Close() error
}

// Error is returned by backends when a call fails. Message is meant to be
// read by a human and may be forwarded as error details.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Details returns the human readable part of err, if any.
func Details(err error) string {
	var serr *Error
	if errors.As(err, &serr) {
		if serr.Message != "" {
			return serr.Message
		}

		if serr.Err != nil {
			return serr.Err.Error()
		}
	}

	if err == nil {
		return ""
	}

	return err.Error()
}
