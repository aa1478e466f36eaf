package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/todo-api/internal/domain/todo"
)

// maxBodySize bounds request bodies; todo payloads are a few hundred bytes.
const maxBodySize = 1 << 20

// CreateTodo handles POST /todos/.
func (h *Handler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	in, err := readInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := h.todos.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeTodo(w, t)
}

// ListTodos handles GET /todos/?skip=&limit=.
func (h *Handler) ListTodos(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	todos, err := h.todos.List(r.Context(), page)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ArrStart()
	for i := range todos {
		encodeTodo(e, &todos[i])
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, e)
}

// GetTodo handles GET /todos/{todoID}.
func (h *Handler) GetTodo(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := h.todos.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeTodo(w, t)
}

// UpdateTodo handles PUT /todos/{todoID}. The body replaces every field.
func (h *Handler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := readInput(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := h.todos.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeTodo(w, t)
}

// DeleteTodo handles DELETE /todos/{todoID}.
func (h *Handler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.todos.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeDetail(w, http.StatusOK, "Todo deleted")
}

func readInput(w http.ResponseWriter, r *http.Request) (todo.Input, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return todo.Input{}, &ValidationError{Issues: []Issue{{
				Loc:  []string{"body"},
				Msg:  "request body too large",
				Type: "value_error.body_too_large",
			}}}
		}
		return todo.Input{}, errors.Wrap(err, "read body")
	}
	return decodeInput(data)
}

func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "todoID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &ValidationError{Issues: []Issue{{
			Loc:  []string{"path", "todo_id"},
			Msg:  "value is not a valid integer",
			Type: "type_error.integer",
		}}}
	}
	return id, nil
}

func parsePage(r *http.Request) (todo.Page, error) {
	page := todo.Page{Skip: 0, Limit: todo.DefaultLimit}
	query := r.URL.Query()

	var issues []Issue
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{name: "skip", dst: &page.Skip},
		{name: "limit", dst: &page.Limit},
	} {
		raw := query.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			issues = append(issues, Issue{
				Loc:  []string{"query", p.name},
				Msg:  "value is not a valid integer",
				Type: "type_error.integer",
			})
			continue
		}
		*p.dst = v
	}
	if len(issues) > 0 {
		return page, &ValidationError{Issues: issues}
	}
	return page, nil
}
