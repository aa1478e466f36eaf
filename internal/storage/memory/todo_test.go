package memory

import (
	"testing"

	"github.com/xenking/todo-api/internal/domain/todo"
	"github.com/xenking/todo-api/internal/storage/storagetest"
)

func TestContract_TodoRepository(t *testing.T) {
	storagetest.RunTodoRepository(t, func(t *testing.T) todo.Repository {
		t.Helper()
		return NewTodoRepository()
	})
}
