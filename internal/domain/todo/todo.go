package todo

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

// DefaultLimit is the page size used when the caller does not specify one.
const DefaultLimit = 10

var (
	// ErrNotFound is returned when no todo with the requested id exists.
	ErrNotFound = errors.New("todo not found")
	// ErrTitleRequired is returned when a todo is written with an empty title.
	ErrTitleRequired = errors.New("title required")
)

// Todo is a single to-do item. ID is assigned by the store on creation and
// never changes afterwards.
type Todo struct {
	ID          int64
	Title       string
	Description *string
	Completed   bool
}

// Input carries the writable fields of a todo. Update replaces all of them.
type Input struct {
	Title       string
	Description *string
	Completed   bool
}

// Page selects a window of todos ordered by id.
type Page struct {
	Skip  int
	Limit int
}

// InvalidPageError lists every negative pagination parameter.
type InvalidPageError struct {
	Fields []string
}

func (e *InvalidPageError) Error() string {
	return fmt.Sprintf("%s must be greater than or equal to 0", strings.Join(e.Fields, ", "))
}

// Repository defines persistence operations for todos. Implementations
// return ErrNotFound for missing ids.
type Repository interface {
	Create(ctx context.Context, in Input) (*Todo, error)
	List(ctx context.Context, page Page) ([]Todo, error)
	Get(ctx context.Context, id int64) (*Todo, error)
	Update(ctx context.Context, id int64, in Input) (*Todo, error)
	Delete(ctx context.Context, id int64) error
}
