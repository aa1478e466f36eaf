// Package memory provides in-process repository implementations.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/todo-api/internal/domain/todo"
)

var _ todo.Repository = (*TodoRepository)(nil)

// TodoRepository is an in-memory todo.Repository. It is safe for concurrent
// use. Ids start at 1 and are never reused.
type TodoRepository struct {
	mu     sync.RWMutex
	lastID int64
	byID   map[int64]todo.Todo
}

// NewTodoRepository returns an empty TodoRepository.
func NewTodoRepository() *TodoRepository {
	return &TodoRepository{byID: make(map[int64]todo.Todo)}
}

func (r *TodoRepository) Create(_ context.Context, in todo.Input) (*todo.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastID++
	t := todo.Todo{
		ID:          r.lastID,
		Title:       in.Title,
		Description: cloneString(in.Description),
		Completed:   in.Completed,
	}
	r.byID[t.ID] = t
	return cloneTodo(t), nil
}

func (r *TodoRepository) List(_ context.Context, page todo.Page) ([]todo.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]todo.Todo, 0)
	if page.Skip >= len(ids) {
		return out, nil
	}
	ids = ids[page.Skip:]
	if page.Limit < len(ids) {
		ids = ids[:page.Limit]
	}
	for _, id := range ids {
		out = append(out, *cloneTodo(r.byID[id]))
	}
	return out, nil
}

func (r *TodoRepository) Get(_ context.Context, id int64) (*todo.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[id]
	if !ok {
		return nil, todo.ErrNotFound
	}
	return cloneTodo(t), nil
}

func (r *TodoRepository) Update(_ context.Context, id int64, in todo.Input) (*todo.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return nil, todo.ErrNotFound
	}
	t.Title = in.Title
	t.Description = cloneString(in.Description)
	t.Completed = in.Completed
	r.byID[id] = t
	return cloneTodo(t), nil
}

func (r *TodoRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return todo.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func cloneTodo(t todo.Todo) *todo.Todo {
	t.Description = cloneString(t.Description)
	return &t
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
