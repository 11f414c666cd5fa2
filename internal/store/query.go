package store

import (
	"fmt"

	"github.com/timada-org/taskflow/pkg/todo"
)

type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}

	return "asc"
}

type Filter struct {
	Column string
	Value  any
}

type Order struct {
	Column    string
	Direction Direction
}

// Query is built by value so a base query can be shared and extended.
//
//	store.Where("owner_email", email).OrderBy("created_at", store.Descending)
type Query struct {
	Filters []Filter
	Order   *Order
}

func Where(column string, value any) Query {
	return Query{}.Eq(column, value)
}

func ByID(id int64) Query {
	return Where(todo.ColumnID, id)
}

func (q Query) Eq(column string, value any) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)

	q.Filters = append(filters, Filter{Column: column, Value: value})

	return q
}

func (q Query) OrderBy(column string, direction Direction) Query {
	q.Order = &Order{Column: column, Direction: direction}
	return q
}

func (q Query) Validate() error {
	for _, f := range q.Filters {
		if !todo.IsColumn(f.Column) {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, f.Column)
		}
	}

	if q.Order != nil && !todo.IsColumn(q.Order.Column) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, q.Order.Column)
	}

	return nil
}

// ValidateMutation is Validate plus the requirement that at least one filter
// is present, so that an update or delete never touches the whole table.
func (q Query) ValidateMutation() error {
	if len(q.Filters) == 0 {
		return ErrUnfiltered
	}

	return q.Validate()
}

// Match reports whether t satisfies every filter of q.
func (q Query) Match(t todo.Todo) bool {
	for _, f := range q.Filters {
		if !matchColumn(t, f) {
			return false
		}
	}

	return true
}

func matchColumn(t todo.Todo, f Filter) bool {
	switch f.Column {
	case todo.ColumnID:
		return fmt.Sprint(t.ID) == fmt.Sprint(f.Value)
	case todo.ColumnTitle:
		return t.Title == fmt.Sprint(f.Value)
	case todo.ColumnCompleted:
		return fmt.Sprint(t.Completed) == fmt.Sprint(f.Value)
	case todo.ColumnOwnerEmail:
		return t.OwnerEmail == fmt.Sprint(f.Value)
	default:
		return false
	}
}
