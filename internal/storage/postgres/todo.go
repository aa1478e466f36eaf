package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"gorm.io/gorm"

	"github.com/xenking/todo-api/internal/domain/todo"
)

// TodoRecord is the GORM model of the todos table. It is also the declared
// schema that todo-migrate diffs against the live database.
type TodoRecord struct {
	ID          int64   `gorm:"primaryKey"`
	Title       string  `gorm:"type:text;not null"`
	Description *string `gorm:"type:text"`
	Completed   bool    `gorm:"not null;default:false"`
}

// TableName implements gorm's schema.Tabler.
func (TodoRecord) TableName() string { return "todos" }

func (r TodoRecord) toDomain() *todo.Todo {
	return &todo.Todo{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
	}
}

func (r *TodoRecord) apply(in todo.Input) {
	r.Title = in.Title
	r.Description = in.Description
	r.Completed = in.Completed
}

var _ todo.Repository = (*TodoRepository)(nil)

// TodoRepository implements todo.Repository with GORM. Every method opens a
// new session bound to the caller's context, so a connection is held only
// for the duration of one call.
type TodoRepository struct {
	db *gorm.DB
}

// NewTodoRepository returns a TodoRepository that uses db.
func NewTodoRepository(db *gorm.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

// Create inserts a todo and returns it with the id assigned by the sequence.
func (r *TodoRepository) Create(ctx context.Context, in todo.Input) (*todo.Todo, error) {
	var rec TodoRecord
	rec.apply(in)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, errors.Wrap(err, "insert todo")
	}
	return rec.toDomain(), nil
}

// List returns a page of todos ordered by id.
func (r *TodoRepository) List(ctx context.Context, page todo.Page) ([]todo.Todo, error) {
	out := make([]todo.Todo, 0)
	if page.Limit == 0 {
		return out, nil
	}

	var recs []TodoRecord
	err := r.db.WithContext(ctx).
		Order("id").
		Offset(page.Skip).
		Limit(page.Limit).
		Find(&recs).Error
	if err != nil {
		return nil, errors.Wrap(err, "select todos")
	}
	for _, rec := range recs {
		out = append(out, *rec.toDomain())
	}
	return out, nil
}

// Get returns the todo with the given id or todo.ErrNotFound.
func (r *TodoRepository) Get(ctx context.Context, id int64) (*todo.Todo, error) {
	var rec TodoRecord
	if err := r.db.WithContext(ctx).Take(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, todo.ErrNotFound
		}
		return nil, errors.Wrapf(err, "select todo %d", id)
	}
	return rec.toDomain(), nil
}

// Update looks up the todo and overwrites its fields in one transaction.
func (r *TodoRepository) Update(ctx context.Context, id int64, in todo.Input) (*todo.Todo, error) {
	var rec TodoRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&rec, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return todo.ErrNotFound
			}
			return errors.Wrapf(err, "select todo %d", id)
		}
		rec.apply(in)
		if err := tx.Save(&rec).Error; err != nil {
			return errors.Wrapf(err, "save todo %d", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec.toDomain(), nil
}

// Delete removes the todo with the given id or returns todo.ErrNotFound.
func (r *TodoRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&TodoRecord{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete todo %d", id)
	}
	if res.RowsAffected == 0 {
		return todo.ErrNotFound
	}
	return nil
}
