package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/todo-api/internal/domain/todo"
)

// Issue is one entry of a 422 response: where the problem is, what it is
// and a machine-readable type.
type Issue struct {
	Loc  []string
	Msg  string
	Type string
}

// ValidationError carries request problems that map to 422.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = strings.Join(issue.Loc, ".") + ": " + issue.Msg
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// writeError maps service and request errors to HTTP responses. Anything
// unrecognised is logged and reported as 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *ValidationError
		pageErr       *todo.InvalidPageError
	)
	switch {
	case errors.Is(err, todo.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Todo not found")
	case errors.Is(err, todo.ErrTitleRequired):
		writeValidation(w, []Issue{{
			Loc:  []string{"body", "title"},
			Msg:  "ensure this value has at least 1 characters",
			Type: "value_error.any_str.min_length",
		}})
	case errors.As(err, &pageErr):
		issues := make([]Issue, len(pageErr.Fields))
		for i, field := range pageErr.Fields {
			issues[i] = Issue{
				Loc:  []string{"query", field},
				Msg:  "ensure this value is greater than or equal to 0",
				Type: "value_error.number.not_ge",
			}
		}
		writeValidation(w, issues)
	case errors.As(err, &validationErr):
		writeValidation(w, validationErr.Issues)
	default:
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func writeValidation(w http.ResponseWriter, issues []Issue) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	e.FieldStart("detail")
	e.ArrStart()
	for _, issue := range issues {
		e.ObjStart()
		e.FieldStart("loc")
		e.ArrStart()
		for _, l := range issue.Loc {
			e.Str(l)
		}
		e.ArrEnd()
		e.FieldStart("msg")
		e.Str(issue.Msg)
		e.FieldStart("type")
		e.Str(issue.Type)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
	writeJSON(w, http.StatusUnprocessableEntity, e)
}
