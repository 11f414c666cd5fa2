package gormstore

import (
	"time"

	"github.com/timada-org/taskflow/pkg/todo"
)

type todoModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	Title      string    `gorm:"not null"`
	Completed  bool      `gorm:"not null;default:false"`
	OwnerEmail string    `gorm:"column:owner_email;not null;index"`
	CreatedAt  time.Time `gorm:"not null;index"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (todoModel) TableName() string {
	return todo.Table
}

func toModel(t todo.Todo) todoModel {
	return todoModel{
		ID:         t.ID,
		Title:      t.Title,
		Completed:  t.Completed,
		OwnerEmail: t.OwnerEmail,
		CreatedAt:  t.CreatedAt.UTC(),
		UpdatedAt:  t.UpdatedAt.UTC(),
	}
}

func (m *todoModel) toEntity() todo.Todo {
	return todo.Todo{
		ID:         m.ID,
		Title:      m.Title,
		Completed:  m.Completed,
		OwnerEmail: m.OwnerEmail,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}
