package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/examdesk/internal/exam"
	"github.com/mind-engage/examdesk/internal/portal"
)

// GET /exams?q=...&subject=...
func ListExamsHandler(cat *portal.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := cat.Search(r.Context(), q.Get("q"), q.Get("subject"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, portal.SummarizeAll(list))
	}
}

// GET /subjects
func ListSubjectsHandler(cat *portal.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjects, err := cat.Subjects(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, subjects)
	}
}

// GET /exams/{examID}
func GetExamHandler(svc *portal.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.ExamForCandidate(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, v)
	}
}

// GET /exams/{examID}/link?name=...&email=...
func ExamLinkHandler(svc *portal.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := svc.Exam(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			respondError(w, err)
			return
		}
		q := r.URL.Query()
		respondJSON(w, http.StatusOK, map[string]string{
			"url": svc.TakeURL(e.ID, q.Get("name"), q.Get("email")),
		})
	}
}

// GET /take?examId=...&name=...&email=...
// Resolves a standalone exam link to the candidate view plus the prefill.
func TakeHandler(svc *portal.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := portal.ParseTakeParams(r.URL.Query())
		if p.ExamID == "" {
			respondError(w, badRequest("examId is required"))
			return
		}
		v, err := svc.ExamForCandidate(r.Context(), p.ExamID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"exam":  v,
			"name":  p.Name,
			"email": p.Email,
		})
	}
}

// POST /exams/{examID}/registrations
func RegisterHandler(svc *portal.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form portal.RegistrationForm
		if err := decodeJSON(w, r, &form); err != nil {
			respondError(w, err)
			return
		}
		res, err := svc.Register(r.Context(), chi.URLParam(r, "examID"), form)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, res)
	}
}

type attemptResponse struct {
	Attempt exam.Attempt `json:"attempt"`
	Percent float64      `json:"percent"`
	Message string       `json:"message"`
}

// POST /exams/{examID}/attempts
// Body: {"name": "...", "email": "...", "answers": {"0": 2, "1": 0}}
func SubmitAttemptHandler(svc *portal.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub portal.Submission
		if err := decodeJSON(w, r, &sub); err != nil {
			respondError(w, err)
			return
		}
		att, err := svc.Submit(r.Context(), chi.URLParam(r, "examID"), sub)
		if err != nil {
			respondError(w, err)
			return
		}
		var pct float64
		if att.Total > 0 {
			pct = att.Score / att.Total * 100
		}
		respondJSON(w, http.StatusCreated, attemptResponse{
			Attempt: att,
			Percent: pct,
			Message: "Submitted. You scored " + trimFloat(att.Score) + " out of " + trimFloat(att.Total) + ".",
		})
	}
}

func trimFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
