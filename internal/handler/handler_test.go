package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/todo-api/internal/domain/todo"
	"github.com/xenking/todo-api/internal/storage/memory"
)

// --- Helpers ---

type todoResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

type validationResponse struct {
	Detail []struct {
		Loc  []string `json:"loc"`
		Msg  string   `json:"msg"`
		Type string   `json:"type"`
	} `json:"detail"`
}

func newTestRouter(repo todo.Repository) http.Handler {
	return NewRouter(NewHandler(todo.NewService(repo)))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), "body: %s", w.Body.String())
	return v
}

func createTodo(t *testing.T, h http.Handler, body string) todoResponse {
	t.Helper()

	w := do(t, h, http.MethodPost, "/todos/", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[todoResponse](t, w)
}

type failingRepo struct{ err error }

func (f failingRepo) Create(context.Context, todo.Input) (*todo.Todo, error) { return nil, f.err }
func (f failingRepo) List(context.Context, todo.Page) ([]todo.Todo, error) { return nil, f.err }
func (f failingRepo) Get(context.Context, int64) (*todo.Todo, error) { return nil, f.err }
func (f failingRepo) Update(context.Context, int64, todo.Input) (*todo.Todo, error) { return nil, f.err }
func (f failingRepo) Delete(context.Context, int64) error { return f.err }

// --- Tests ---

func TestCreateTodo(t *testing.T) {
	h := newTestRouter(memory.NewTodoRepository())

	w := do(t, h, http.MethodPost, "/todos/", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":1,"title":"Buy milk","description":null,"completed":false}`, w.Body.String())

	got := createTodo(t, h, `{"title":"Call mom","description":"Sunday","completed":true,"extra":[1,2]}`)
	assert.Equal(t, int64(2), got.ID)
	require.NotNil(t, got.Description)
	assert.Equal(t, "Sunday", *got.Description)
	assert.True(t, got.Completed)
}

func TestCreateTodo_WithoutTrailingSlash(t *testing.T) {
	h := newTestRouter(memory.NewTodoRepository())

	w := do(t, h, http.MethodPost, "/todos", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCreateTodo_Validation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantLoc  []string
		wantType string
	}{
		{
			name:     "missing body",
			body:     "",
			wantLoc:  []string{"body"},
			wantType: "value_error.missing",
		},
		{
			name:     "missing title",
			body:     `{"description":"no title"}`,
			wantLoc:  []string{"body", "title"},
			wantType: "value_error.missing",
		},
		{
			name:     "empty title",
			body:     `{"title":""}`,
			wantLoc:  []string{"body", "title"},
			wantType: "value_error.any_str.min_length",
		},
		{
			name:     "title not a string",
			body:     `{"title":42}`,
			wantLoc:  []string{"body", "title"},
			wantType: "type_error.str",
		},
		{
			name:     "description not a string",
			body:     `{"title":"x","description":{}}`,
			wantLoc:  []string{"body", "description"},
			wantType: "type_error.str",
		},
		{
			name:     "completed not a bool",
			body:     `{"title":"x","completed":"yes"}`,
			wantLoc:  []string{"body", "completed"},
			wantType: "type_error.bool",
		},
		{
			name:     "array body",
			body:     `[]`,
			wantLoc:  []string{"body"},
			wantType: "type_error.dict",
		},
		{
			name:     "malformed json",
			body:     `{"title":`,
			wantLoc:  []string{"body"},
			wantType: "value_error.jsondecode",
		},
		{
			name:     "trailing garbage",
			body:     `{"title":"a"} garbage`,
			wantLoc:  []string{"body"},
			wantType: "value_error.jsondecode",
		},
		{
			name:     "two objects",
			body:     `{"title":"a"}{"title":"b"}`,
			wantLoc:  []string{"body"},
			wantType: "value_error.jsondecode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.NewTodoRepository()
			h := newTestRouter(repo)

			w := do(t, h, http.MethodPost, "/todos/", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

			resp := decode[validationResponse](t, w)
			require.NotEmpty(t, resp.Detail)
			assert.Equal(t, tt.wantLoc, resp.Detail[0].Loc)
			assert.Equal(t, tt.wantType, resp.Detail[0].Type)
			assert.NotEmpty(t, resp.Detail[0].Msg)

			list, err := repo.List(context.Background(), todo.Page{Limit: 10})
			require.NoError(t, err)
			assert.Empty(t, list, "nothing should be stored")
		})
	}
}

func TestListTodos(t *testing.T) {
	h := newTestRouter(memory.NewTodoRepository())

	w := do(t, h, http.MethodGet, "/todos/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	var created []todoResponse
	for i := range 3 {
		created = append(created, createTodo(t, h, fmt.Sprintf(`{"title":"todo %d"}`, i)))
	}

	w = do(t, h, http.MethodGet, "/todos/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decode[[]todoResponse](t, w))
}

func TestListTodos_Pagination(t *testing.T) {
	h := newTestRouter(memory.NewTodoRepository())

	for i := range 12 {
		createTodo(t, h, fmt.Sprintf(`{"title":"todo %d"}`, i))
	}

	w := do(t, h, http.MethodGet, "/todos/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]todoResponse](t, w), todo.DefaultLimit)

	w = do(t, h, http.MethodGet, "/todos/?skip=0&limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	first := decode[[]todoResponse](t, w)

	w = do(t, h, http.MethodGet, "/todos/?skip=2&limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	second := decode[[]todoResponse](t, w)

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	var ids []int64
	for _, item := range append(first, second...) {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []int64{1, 2, 3, 4}, ids)

	w = do(t, h, http.MethodGet, "/todos/?skip=10&limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]todoResponse](t, w), 2)
}

func TestListTodos_InvalidQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantLoc  []string
		wantType string
	}{
		{name: "skip not int", query: "skip=abc", wantLoc: []string{"query", "skip"}, wantType: "type_error.integer"},
		{name: "limit not int", query: "limit=1.5", wantLoc: []string{"query", "limit"}, wantType: "type_error.integer"},
		{name: "negative skip", query: "skip=-1", wantLoc: []string{"query", "skip"}, wantType: "value_error.number.not_ge"},
		{name: "negative limit", query: "limit=-3", wantLoc: []string{"query", "limit"}, wantType: "value_error.number.not_ge"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(memory.NewTodoRepository())

			w := do(t, h, http.MethodGet, "/todos/?"+tt.query, "")
			require.Equal(t, http.StatusUnprocessableEntity, w.Code)

			resp := decode[validationResponse](t, w)
			require.Len(t, resp.Detail, 1)
			assert.Equal(t, tt.wantLoc, resp.Detail[0].Loc)
			assert.Equal(t, tt.wantType, resp.Detail[0].Type)
		})
	}
}

func TestListTodos_InvalidQueryReportsEveryField(t *testing.T) {
	h := newTestRouter(memory.NewTodoRepository())

	for _, query := range []string{"skip=-1&limit=-1", "skip=x&limit=y"} {
		w := do(t, h, http.MethodGet, "/todos/?"+query, "")
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)

		resp := decode[validationResponse](t, w)
		require.Len(t, resp.Detail, 2, query)
		assert.Equal(t, []string{"query", "skip"}, resp.Detail[0].Loc)
		assert.Equal(t, []string{"query", "limit"}, resp.Detail[1].Loc)
	}
}

func TestGetTodo(t *testing.T) {
	h := newTestRouter(memory.NewTodoRepository())
	created := createTodo(t, h, `{"title":"Buy milk","description":"2 litres"}`)

	w := do(t, h, http.MethodGet, fmt.Sprintf("/todos/%d", created.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decode[todoResponse](t, w))

	w = do(t, h, http.MethodGet, "/todos/99999", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Todo not found", decode[detailResponse](t, w).Detail)
}

func TestUpdateTodo(t *testing.T) {
	h := newTestRouter(memory.NewTodoRepository())
	created := createTodo(t, h, `{"title":"Buy milk"}`)

	w := do(t, h, http.MethodPut, fmt.Sprintf("/todos/%d", created.ID), `{"title":"X","description":"Y"}`)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[todoResponse](t, w)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "X", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "Y", *got.Description)

	w = do(t, h, http.MethodPut, fmt.Sprintf("/todos/%d", created.ID), `{"title":"Z"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[todoResponse](t, w).Description, "update replaces the whole record")
}

func TestUpdateTodo_NotFound(t *testing.T) {
	h := newTestRouter(memory.NewTodoRepository())

	for _, body := range []string{`{"title":"X","description":"Y"}`, `{"title":"X"}`} {
		w := do(t, h, http.MethodPut, "/todos/99999", body)
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Todo not found", decode[detailResponse](t, w).Detail)
	}
}

func TestDeleteTodo(t *testing.T) {
	h := newTestRouter(memory.NewTodoRepository())
	created := createTodo(t, h, `{"title":"Buy milk"}`)
	path := fmt.Sprintf("/todos/%d", created.ID)

	w := do(t, h, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"detail":"Todo deleted"}`, w.Body.String())

	w = do(t, h, http.MethodPut, path, `{"title":"X"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Todo not found", decode[detailResponse](t, w).Detail)
}

func TestInvalidID(t *testing.T) {
	h := newTestRouter(memory.NewTodoRepository())

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			w := do(t, h, method, "/todos/abc", `{"title":"X"}`)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code)

			resp := decode[validationResponse](t, w)
			require.Len(t, resp.Detail, 1)
			assert.Equal(t, []string{"path", "todo_id"}, resp.Detail[0].Loc)
		})
	}
}

func TestStorageErrorIsInternal(t *testing.T) {
	h := newTestRouter(failingRepo{err: errors.New("connection refused")})

	requests := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/todos/", `{"title":"X"}`},
		{http.MethodGet, "/todos/", ""},
		{http.MethodGet, "/todos/1", ""},
		{http.MethodPut, "/todos/1", `{"title":"X"}`},
		{http.MethodDelete, "/todos/1", ""},
	}
	for _, req := range requests {
		w := do(t, h, req.method, req.path, req.body)
		require.Equal(t, http.StatusInternalServerError, w.Code, "%s %s", req.method, req.path)
		assert.Equal(t, "Internal Server Error", decode[detailResponse](t, w).Detail)
		assert.NotContains(t, w.Body.String(), "connection refused")
	}
}

func TestUnknownRoute(t *testing.T) {
	h := newTestRouter(memory.NewTodoRepository())

	w := do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not Found", decode[detailResponse](t, w).Detail)

	w = do(t, h, http.MethodPatch, "/todos/1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
