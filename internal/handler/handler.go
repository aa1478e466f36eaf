// Package handler exposes the todo service over HTTP.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/todo-api/internal/domain/todo"
)

// Handler serves the /todos resource, delegating to the todo service.
type Handler struct {
	todos *todo.Service
}

// NewHandler constructs a Handler backed by the given service.
func NewHandler(todos *todo.Service) *Handler {
	return &Handler{todos: todos}
}

// NewRouter returns a chi router with the todo routes registered behind
// middlewares. Callers may add further routes to it.
func NewRouter(h *Handler, middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares...)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Route("/todos", func(r chi.Router) {
		r.Post("/", h.CreateTodo)
		r.Get("/", h.ListTodos)
		r.Get("/{todoID}", h.GetTodo)
		r.Put("/{todoID}", h.UpdateTodo)
		r.Delete("/{todoID}", h.DeleteTodo)
	})
	return r
}
