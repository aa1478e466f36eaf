package handler

import (
	"bytes"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/todo-api/internal/domain/todo"
)

func encodeTodo(e *jx.Encoder, t *todo.Todo) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(t.ID)
	e.FieldStart("title")
	e.Str(t.Title)
	e.FieldStart("description")
	if t.Description != nil {
		e.Str(*t.Description)
	} else {
		e.Null()
	}
	e.FieldStart("completed")
	e.Bool(t.Completed)
	e.ObjEnd()
}

// decodeInput parses a {title, description?, completed?} object. Unknown
// fields are ignored; every type problem is reported, not only the first.
func decodeInput(data []byte) (todo.Input, error) {
	var (
		in       todo.Input
		hasTitle bool
		issues   []Issue
	)

	if len(bytes.TrimSpace(data)) == 0 {
		return in, &ValidationError{Issues: []Issue{{
			Loc:  []string{"body"},
			Msg:  "field required",
			Type: "value_error.missing",
		}}}
	}
	// Validate rejects trailing data after the first value.
	if err := jx.DecodeBytes(data).Validate(); err != nil {
		return in, &ValidationError{Issues: []Issue{{
			Loc:  []string{"body"},
			Msg:  "invalid JSON: " + err.Error(),
			Type: "value_error.jsondecode",
		}}}
	}

	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return in, &ValidationError{Issues: []Issue{{
			Loc:  []string{"body"},
			Msg:  "value is not a valid dict",
			Type: "type_error.dict",
		}}}
	}

	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "title":
			if d.Next() != jx.String {
				issues = append(issues, typeIssue("title", "str type expected", "type_error.str"))
				return d.Skip()
			}
			s, err := d.Str()
			if err != nil {
				return err
			}
			in.Title = s
			hasTitle = true
		case "description":
			switch d.Next() {
			case jx.Null:
				in.Description = nil
				return d.Null()
			case jx.String:
				s, err := d.Str()
				if err != nil {
					return err
				}
				in.Description = &s
			default:
				issues = append(issues, typeIssue("description", "str type expected", "type_error.str"))
				return d.Skip()
			}
		case "completed":
			if d.Next() != jx.Bool {
				issues = append(issues, typeIssue("completed", "value could not be parsed to a boolean", "type_error.bool"))
				return d.Skip()
			}
			v, err := d.Bool()
			if err != nil {
				return err
			}
			in.Completed = v
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return in, &ValidationError{Issues: []Issue{{
			Loc:  []string{"body"},
			Msg:  "invalid JSON: " + err.Error(),
			Type: "value_error.jsondecode",
		}}}
	}

	if !hasTitle && !hasIssue(issues, "title") {
		issues = append([]Issue{{
			Loc:  []string{"body", "title"},
			Msg:  "field required",
			Type: "value_error.missing",
		}}, issues...)
	}
	if len(issues) > 0 {
		return in, &ValidationError{Issues: issues}
	}
	return in, nil
}

func typeIssue(field, msg, typ string) Issue {
	return Issue{Loc: []string{"body", field}, Msg: msg, Type: typ}
}

func hasIssue(issues []Issue, field string) bool {
	for _, i := range issues {
		if len(i.Loc) == 2 && i.Loc[1] == field {
			return true
		}
	}
	return false
}

func writeTodo(w http.ResponseWriter, t *todo.Todo) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encodeTodo(e, t)
	writeJSON(w, http.StatusOK, e)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ObjStart()
	e.FieldStart("detail")
	e.Str(detail)
	e.ObjEnd()
	writeJSON(w, status, e)
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already sent; a failed write means the client left.
	_, _ = w.Write(e.Bytes())
}
