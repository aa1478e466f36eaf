// Package storagetest holds behaviour suites shared by every repository
// implementation.
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/todo-api/internal/domain/todo"
)

// NewTodoRepository returns an empty repository for a single subtest.
type NewTodoRepository func(t *testing.T) todo.Repository

func strPtr(s string) *string { return &s }

// RunTodoRepository runs the todo.Repository contract against newRepo.
func RunTodoRepository(t *testing.T, newRepo NewTodoRepository) {
	t.Helper()
	ctx := context.Background()

	t.Run("create assigns id", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, todo.Input{Title: "Buy milk"})
		require.NoError(t, err)
		assert.Positive(t, created.ID)
		assert.Equal(t, "Buy milk", created.Title)
		assert.Nil(t, created.Description)
		assert.False(t, created.Completed)

		second, err := repo.Create(ctx, todo.Input{Title: "Buy milk"})
		require.NoError(t, err)
		assert.Greater(t, second.ID, created.ID)
	})

	t.Run("get returns stored fields", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, todo.Input{
			Title:       "Write report",
			Description: strPtr("quarterly numbers"),
			Completed:   true,
		})
		require.NoError(t, err)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("get missing", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Get(ctx, 99999)
		require.ErrorIs(t, err, todo.ErrNotFound)
	})

	t.Run("list pages in insertion order", func(t *testing.T) {
		repo := newRepo(t)

		var ids []int64
		for _, title := range []string{"a", "b", "c", "d", "e"} {
			created, err := repo.Create(ctx, todo.Input{Title: title})
			require.NoError(t, err)
			ids = append(ids, created.ID)
		}

		all, err := repo.List(ctx, todo.Page{Skip: 0, Limit: todo.DefaultLimit})
		require.NoError(t, err)
		require.Len(t, all, 5)
		for i, item := range all {
			assert.Equal(t, ids[i], item.ID)
		}

		first, err := repo.List(ctx, todo.Page{Skip: 0, Limit: 2})
		require.NoError(t, err)
		second, err := repo.List(ctx, todo.Page{Skip: 2, Limit: 2})
		require.NoError(t, err)
		require.Len(t, first, 2)
		require.Len(t, second, 2)
		assert.Equal(t, []int64{ids[0], ids[1]}, []int64{first[0].ID, first[1].ID})
		assert.Equal(t, []int64{ids[2], ids[3]}, []int64{second[0].ID, second[1].ID})

		tail, err := repo.List(ctx, todo.Page{Skip: 4, Limit: 10})
		require.NoError(t, err)
		require.Len(t, tail, 1)
		assert.Equal(t, "e", tail[0].Title)

		empty, err := repo.List(ctx, todo.Page{Skip: 10, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, empty)

		none, err := repo.List(ctx, todo.Page{Skip: 0, Limit: 0})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("update overwrites fields and keeps id", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, todo.Input{Title: "old", Description: strPtr("old desc")})
		require.NoError(t, err)

		updated, err := repo.Update(ctx, created.ID, todo.Input{Title: "X", Description: strPtr("Y"), Completed: true})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "X", updated.Title)
		require.NotNil(t, updated.Description)
		assert.Equal(t, "Y", *updated.Description)
		assert.True(t, updated.Completed)

		cleared, err := repo.Update(ctx, created.ID, todo.Input{Title: "X"})
		require.NoError(t, err)
		assert.Nil(t, cleared.Description)
		assert.False(t, cleared.Completed)

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, cleared, got)
	})

	t.Run("update missing", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Update(ctx, 99999, todo.Input{Title: "X"})
		require.ErrorIs(t, err, todo.ErrNotFound)
	})

	t.Run("delete removes record", func(t *testing.T) {
		repo := newRepo(t)

		created, err := repo.Create(ctx, todo.Input{Title: "temporary"})
		require.NoError(t, err)

		require.NoError(t, repo.Delete(ctx, created.ID))

		_, err = repo.Get(ctx, created.ID)
		require.ErrorIs(t, err, todo.ErrNotFound)
		_, err = repo.Update(ctx, created.ID, todo.Input{Title: "again"})
		require.ErrorIs(t, err, todo.ErrNotFound)
		require.ErrorIs(t, repo.Delete(ctx, created.ID), todo.ErrNotFound)
	})
}
