// Package gormstore keeps todos in a SQL database reached through GORM.
package gormstore

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/timada-org/taskflow/internal/store"
	"github.com/timada-org/taskflow/pkg/todo"
)

type Store struct {
	db *gorm.DB
}

// OpenPostgres connects with a postgres:// DSN.
func OpenPostgres(dsn string) (*Store, error) {
	return open(postgres.Open(dsn))
}

// OpenSQLite opens a SQLite database file. ":memory:" keeps everything in
// a single private connection.
func OpenSQLite(path string) (*Store, error) {
	s, err := open(sqlite.Open(path))
	if err != nil {
		return nil, err
	}

	if strings.Contains(path, ":memory:") {
		sqlDB, err := s.db.DB()
		if err != nil {
			return nil, err
		}

		sqlDB.SetMaxOpenConns(1)
	}

	return s, nil
}

func open(dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("gormstore: open: %w", err)
	}

	return New(db)
}

// New wraps an existing connection and migrates the todos table.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&todoModel{}); err != nil {
		return nil, fmt.Errorf("gormstore: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Select(ctx context.Context, q store.Query) ([]todo.Todo, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var models []todoModel
	if err := s.scope(ctx, q).Find(&models).Error; err != nil {
		return nil, &store.Error{Op: "select", Message: err.Error(), Err: err}
	}

	todos := make([]todo.Todo, 0, len(models))
	for i := range models {
		todos = append(todos, models[i].toEntity())
	}

	return todos, nil
}

func (s *Store) Insert(ctx context.Context, rows ...todo.Todo) ([]todo.Todo, error) {
	if len(rows) == 0 {
		return []todo.Todo{}, nil
	}

	models := make([]todoModel, 0, len(rows))
	for _, row := range rows {
		m := toModel(row)
		m.ID = 0
		models = append(models, m)
	}

	if err := s.db.WithContext(ctx).Create(&models).Error; err != nil {
		return nil, &store.Error{Op: "insert", Message: err.Error(), Err: err}
	}

	todos := make([]todo.Todo, 0, len(models))
	for i := range models {
		todos = append(todos, models[i].toEntity())
	}

	return todos, nil
}

func (s *Store) Update(ctx context.Context, q store.Query, patch todo.Patch) error {
	if err := q.ValidateMutation(); err != nil {
		return err
	}

	if patch.IsEmpty() {
		return nil
	}

	// UpdateColumns leaves updated_at alone: only the patched fields change.
	err := s.scope(ctx, q).Model(&todoModel{}).UpdateColumns(patch.Columns()).Error
	if err != nil {
		return &store.Error{Op: "update", Message: err.Error(), Err: err}
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, q store.Query) error {
	if err := q.ValidateMutation(); err != nil {
		return err
	}

	if err := s.scope(ctx, q).Delete(&todoModel{}).Error; err != nil {
		return &store.Error{Op: "delete", Message: err.Error(), Err: err}
	}

	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func (s *Store) scope(ctx context.Context, q store.Query) *gorm.DB {
	tx := s.db.WithContext(ctx)

	for _, f := range q.Filters {
		tx = tx.Where(map[string]any{f.Column: f.Value})
	}

	if q.Order != nil {
		tx = tx.Order(clause.OrderByColumn{
			Column: clause.Column{Name: q.Order.Column},
			Desc:   q.Order.Direction == store.Descending,
		})
	}

	return tx
}
