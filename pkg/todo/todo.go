package todo

import (
	"strings"
	"time"
)

type Todo struct {
	ID         int64     `json:"id" mapstructure:"id"`
	Title      string    `json:"title" mapstructure:"title"`
	Completed  bool      `json:"completed" mapstructure:"completed"`
	OwnerEmail string    `json:"owner_email" mapstructure:"owner_email"`
	CreatedAt  time.Time `json:"created_at" mapstructure:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" mapstructure:"updated_at"`
}

// New returns a todo ready to be inserted: title and email trimmed and both
// timestamps set to now. The id is left for the backend to assign.
func New(title, ownerEmail string, completed bool, now time.Time) Todo {
	now = now.UTC()

	return Todo{
		Title:      strings.TrimSpace(title),
		Completed:  completed,
		OwnerEmail: strings.TrimSpace(ownerEmail),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

func SetTitle(title string) Patch {
	title = strings.TrimSpace(title)
	return Patch{Title: &title}
}

func SetCompleted(value bool) Patch {
	return Patch{Completed: &value}
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Completed == nil
}

func (p Patch) Apply(t *Todo) {
	if p.Title != nil {
		t.Title = *p.Title
	}

	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}

// Columns maps the patch onto table column names.
func (p Patch) Columns() map[string]any {
	columns := make(map[string]any, 2)

	if p.Title != nil {
		columns[ColumnTitle] = *p.Title
	}

	if p.Completed != nil {
		columns[ColumnCompleted] = *p.Completed
	}

	return columns
}

const (
	Table = "todos"

	ColumnID         = "id"
	ColumnTitle      = "title"
	ColumnCompleted  = "completed"
	ColumnOwnerEmail = "owner_email"
	ColumnCreatedAt  = "created_at"
	ColumnUpdatedAt  = "updated_at"
)

var Columns = []string{
	ColumnID,
	ColumnTitle,
	ColumnCompleted,
	ColumnOwnerEmail,
	ColumnCreatedAt,
	ColumnUpdatedAt,
}

func IsColumn(name string) bool {
	for _, c := range Columns {
		if c == name {
			return true
		}
	}

	return false
}
