//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestCreateTodo(t *testing.T) {
	got := createTodo(t, map[string]any{"title": "Buy milk"})

	if got.ID <= 0 {
		t.Errorf("expected positive id, got %d", got.ID)
	}
	if got.Title != "Buy milk" {
		t.Errorf("title: got %q", got.Title)
	}
	if got.Description != nil {
		t.Errorf("description: expected null, got %q", *got.Description)
	}
	if got.Completed {
		t.Error("completed: expected false")
	}

	resp := doGet(t, fmt.Sprintf("/todos/%d", got.ID))
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
	if fetched := decodeJSON[todoResponse](t, resp); fetched != got {
		t.Errorf("fetched %+v, created %+v", fetched, got)
	}
}

func TestCreateTodo_MissingTitle(t *testing.T) {
	resp := do(t, http.MethodPost, "/todos/", map[string]any{"description": "no title"})
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusUnprocessableEntity)

	body := decodeJSON[validationResponse](t, resp)
	if len(body.Detail) == 0 || fmt.Sprint(body.Detail[0].Loc) != "[body title]" {
		t.Fatalf("unexpected validation detail: %+v", body.Detail)
	}
}

func TestListTodos_Pagination(t *testing.T) {
	// Other tests share the database, so page past everything created so far.
	before := len(listTodos(t, "?limit=100000"))

	var ids []int64
	for i := range 4 {
		ids = append(ids, createTodo(t, map[string]any{"title": fmt.Sprintf("page %d", i)}).ID)
	}

	first := listTodos(t, fmt.Sprintf("?skip=%d&limit=2", before))
	second := listTodos(t, fmt.Sprintf("?skip=%d&limit=2", before+2))
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected two pages of 2, got %d and %d", len(first), len(second))
	}
	got := []int64{first[0].ID, first[1].ID, second[0].ID, second[1].ID}
	if fmt.Sprint(got) != fmt.Sprint(ids) {
		t.Errorf("pages %v, want %v", got, ids)
	}

	if all := listTodos(t, "?limit=100000"); len(all) != before+4 {
		t.Errorf("expected %d todos, got %d", before+4, len(all))
	}
	if def := listTodos(t, ""); len(def) > 10 {
		t.Errorf("default limit exceeded: %d", len(def))
	}
}

func TestUpdateTodo(t *testing.T) {
	created := createTodo(t, map[string]any{"title": "Buy milk"})
	path := fmt.Sprintf("/todos/%d", created.ID)

	resp := do(t, http.MethodPut, path, map[string]any{"title": "X", "description": "Y", "completed": true})
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	got := decodeJSON[todoResponse](t, resp)
	if got.ID != created.ID || got.Title != "X" || got.Description == nil || *got.Description != "Y" || !got.Completed {
		t.Errorf("unexpected update result: %+v", got)
	}
}

func TestUpdateTodo_NotFound(t *testing.T) {
	resp := do(t, http.MethodPut, "/todos/99999999", map[string]any{"title": "X", "description": "Y"})
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusNotFound)

	if body := decodeJSON[detailResponse](t, resp); body.Detail != "Todo not found" {
		t.Errorf("detail: got %q", body.Detail)
	}
}

func TestDeleteTodo(t *testing.T) {
	created := createTodo(t, map[string]any{"title": "Temporary"})
	path := fmt.Sprintf("/todos/%d", created.ID)

	resp := do(t, http.MethodDelete, path, nil)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
	if body := decodeJSON[detailResponse](t, resp); body.Detail != "Todo deleted" {
		t.Errorf("detail: got %q", body.Detail)
	}

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		var body any
		if method == http.MethodPut {
			body = map[string]any{"title": "X"}
		}
		r := do(t, method, path, body)
		expectStatus(t, r, http.StatusNotFound)
		r.Body.Close()
	}
}
