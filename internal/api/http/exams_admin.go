package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/examdesk/internal/examimport"
	"github.com/mind-engage/examdesk/internal/portal"
	syncx "github.com/mind-engage/examdesk/internal/sync"
)

// GET /admin/exams
// Full records, questions and answer keys included.
func AdminListExamsHandler(svc *portal.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Exams(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// GET /admin/exams/{examID}
func AdminGetExamHandler(svc *portal.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.Exam(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, e)
	}
}

// POST /admin/exams
func CreateExamHandler(svc *portal.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form portal.ExamForm
		if err := decodeJSON(w, r, &form); err != nil {
			respondError(w, err)
			return
		}
		e, err := svc.SaveExam(r.Context(), "", form)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, e)
	}
}

// PUT /admin/exams/{examID}
func UpdateExamHandler(svc *portal.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form portal.ExamForm
		if err := decodeJSON(w, r, &form); err != nil {
			respondError(w, err)
			return
		}
		e, err := svc.SaveExam(r.Context(), chi.URLParam(r, "examID"), form)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, e)
	}
}

// DELETE /admin/exams/{examID}
func DeleteExamHandler(svc *portal.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteExam(r.Context(), chi.URLParam(r, "examID")); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /admin/exams/import
func ImportExamsHandler(im *examimport.Importer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
		if err != nil {
			respondError(w, badRequest("read body: %v", err))
			return
		}
		saved, err := im.Import(r.Context(), doc)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, map[string]any{"imported": len(saved), "exams": saved})
	}
}

// GET /admin/exams/{examID}/attempts?limit=50&offset=0
func ListAttemptsHandler(svc *portal.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := svc.Attempts(r.Context(), chi.URLParam(r, "examID"),
			parseIntDefault(q.Get("limit"), 50), parseIntDefault(q.Get("offset"), 0))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// GET /admin/exams/{examID}/registrations?limit=50&offset=0
func ListRegistrationsHandler(svc *portal.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := svc.Registrations(r.Context(), chi.URLParam(r, "examID"),
			parseIntDefault(q.Get("limit"), 50), parseIntDefault(q.Get("offset"), 0))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// GET /admin/events?since=0&limit=100
func ListEventsHandler(repo *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
		list, err := repo.Since(r.Context(), since, parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}
