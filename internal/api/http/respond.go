package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/mind-engage/examdesk/internal/exam"
	"github.com/mind-engage/examdesk/internal/examimport"
	"github.com/mind-engage/examdesk/internal/portal"
)

const maxJSONBody = 4 << 20

type errorBody struct {
	Error    string   `json:"error"`
	Detail   string   `json:"detail,omitempty"`
	Field    string   `json:"field,omitempty"`
	Missing  []int    `json:"missing,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// respondError maps domain errors to a status and a JSON body. The message
// in "error" is safe to show to users; "detail" carries the cause.
func respondError(w http.ResponseWriter, err error) {
	var (
		ve   *exam.ValidationError
		fe   *portal.FormError
		inc  *portal.IncompleteError
		se   *examimport.SchemaError
		bad  *badRequestError
		item *examimport.ItemError
		body = errorBody{Detail: err.Error()}
		code = http.StatusInternalServerError
	)
	switch {
	case errors.As(err, &bad):
		code, body.Error = http.StatusBadRequest, bad.msg
	case errors.As(err, &se):
		code, body.Error, body.Problems = http.StatusBadRequest, "invalid import document", se.Problems
	case errors.As(err, &ve):
		code, body.Error = http.StatusUnprocessableEntity, ve.Error()
	case errors.As(err, &fe):
		code, body.Error, body.Field = http.StatusUnprocessableEntity, fe.Error(), fe.Field
	case errors.As(err, &inc):
		code, body.Error, body.Missing = http.StatusUnprocessableEntity, portal.ErrIncomplete.Error(), inc.Missing
	case errors.Is(err, portal.ErrIdentityRequired):
		code, body.Error = http.StatusUnprocessableEntity, portal.ErrIdentityRequired.Error()
	case errors.Is(err, portal.ErrNoQuestions):
		code, body.Error = http.StatusConflict, portal.ErrNoQuestions.Error()
	case errors.Is(err, exam.ErrNotFound):
		code, body.Error = http.StatusNotFound, "exam not found"
	case errors.Is(err, portal.ErrCatalogUnavailable):
		code, body.Error = http.StatusServiceUnavailable, portal.ErrCatalogUnavailable.Error()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		code, body.Error = http.StatusServiceUnavailable, "request timed out"
	default:
		body.Error = "could not complete request"
	}
	if errors.As(err, &item) && code != http.StatusInternalServerError {
		body.Error = fmt.Sprintf("exam %d: %s", item.Item+1, body.Error)
	}
	respondJSON(w, code, body)
}

type badRequestError struct{ msg string }

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is empty")
		}
		return badRequest("bad json: %v", err)
	}
	return nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
