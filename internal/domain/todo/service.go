package todo

import (
	"context"

	"github.com/go-faster/errors"
)

// Service validates todo input and delegates storage to a Repository.
type Service struct {
	repo Repository
}

// NewService creates a Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a new todo and returns it with its assigned id.
func (s *Service) Create(ctx context.Context, in Input) (*Todo, error) {
	if in.Title == "" {
		return nil, ErrTitleRequired
	}
	t, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, errors.Wrap(err, "create todo")
	}
	return t, nil
}

// List returns the todos in page, ordered by id.
func (s *Service) List(ctx context.Context, page Page) ([]Todo, error) {
	var invalid []string
	if page.Skip < 0 {
		invalid = append(invalid, "skip")
	}
	if page.Limit < 0 {
		invalid = append(invalid, "limit")
	}
	if len(invalid) > 0 {
		return nil, &InvalidPageError{Fields: invalid}
	}
	todos, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, errors.Wrap(err, "list todos")
	}
	return todos, nil
}

// Get returns the todo with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*Todo, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get todo %d", id)
	}
	return t, nil
}

// Update overwrites every writable field of the todo with the given id.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*Todo, error) {
	if in.Title == "" {
		return nil, ErrTitleRequired
	}
	t, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, errors.Wrapf(err, "update todo %d", id)
	}
	return t, nil
}

// Delete removes the todo with the given id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrapf(err, "delete todo %d", id)
	}
	return nil
}
