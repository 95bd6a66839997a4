package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authmw "github.com/mind-engage/examdesk/internal/auth/middleware"
	"github.com/mind-engage/examdesk/internal/examimport"
	"github.com/mind-engage/examdesk/internal/feed"
	"github.com/mind-engage/examdesk/internal/logging"
	"github.com/mind-engage/examdesk/internal/portal"
	"github.com/mind-engage/examdesk/internal/rbac"
	"github.com/mind-engage/examdesk/internal/storage"
	syncx "github.com/mind-engage/examdesk/internal/sync"
)

type Deps struct {
	Log       *slog.Logger
	Service   *portal.Service
	Catalog   *portal.Catalog
	Feed      feed.Source
	Importer  *examimport.Importer
	Events    *syncx.EventRepo
	Blobs     storage.BlobStore
	Auth      *authmw.AuthService
	Admins    *authmw.AdminStore
	PublicURL string
	Origins   []string

	// Ping reports whether the backing database is reachable.
	Ping func(ctx context.Context) error
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.RequestLogger(d.Log), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", readyHandler(d))

	// long-lived; kept out of the request timeout
	r.Get("/ws/exams", ExamsSocketHandler(d.Feed, d.Origins, d.Log))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		// Candidates
		r.Get("/exams", ListExamsHandler(d.Catalog))
		r.Get("/subjects", ListSubjectsHandler(d.Catalog))
		r.Get("/exams/{examID}", GetExamHandler(d.Service))
		r.Get("/exams/{examID}/link", ExamLinkHandler(d.Service))
		r.Post("/exams/{examID}/registrations", RegisterHandler(d.Service))
		r.Post("/exams/{examID}/attempts", SubmitAttemptHandler(d.Service))
		r.Get("/take", TakeHandler(d.Service))
		r.Get("/materials/*", MaterialHandler(d.Blobs))

		// Administrator session
		r.Post("/auth/login", LoginHandler(d.Auth, d.Admins))
		r.Group(func(r chi.Router) {
			r.Use(authmw.JWTMiddleware(d.Auth))
			r.Post("/auth/logout", LogoutHandler(d.Auth))
			r.Get("/auth/me", MeHandler())
		})

		// Protected API (JWT → role in context → account still exists → RBAC)
		r.Route("/admin", func(r chi.Router) {
			r.Use(authmw.JWTMiddleware(d.Auth), authmw.RequireAdminAccount(d.Admins))

			r.With(rbac.RequireAny(rbac.PermExamCreate, rbac.PermExamUpdate)).
				Get("/exams", AdminListExamsHandler(d.Service))
			r.With(rbac.RequireAny(rbac.PermExamCreate, rbac.PermExamUpdate)).
				Get("/exams/{examID}", AdminGetExamHandler(d.Service))
			r.With(rbac.Require(rbac.PermExamCreate)).
				Post("/exams", CreateExamHandler(d.Service))
			r.With(rbac.Require(rbac.PermExamImport)).
				Post("/exams/import", ImportExamsHandler(d.Importer))
			r.With(rbac.Require(rbac.PermExamUpdate)).
				Put("/exams/{examID}", UpdateExamHandler(d.Service))
			r.With(rbac.Require(rbac.PermExamDelete)).
				Delete("/exams/{examID}", DeleteExamHandler(d.Service))
			r.With(rbac.Require(rbac.PermMaterialUpload)).
				Post("/exams/{examID}/material", UploadMaterialHandler(d.Service, d.Blobs, d.PublicURL))
			r.With(rbac.Require(rbac.PermAttemptViewAll)).
				Get("/exams/{examID}/attempts", ListAttemptsHandler(d.Service))
			r.With(rbac.Require(rbac.PermRegistrationViewAll)).
				Get("/exams/{examID}/registrations", ListRegistrationsHandler(d.Service))
			r.With(rbac.Require(rbac.PermEventView)).
				Get("/events", ListEventsHandler(d.Events))
		})
	})
	return r
}

func readyHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-d.Catalog.Ready():
		default:
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading exams"})
			return
		}
		if d.Ping != nil {
			if err := d.Ping(r.Context()); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "database unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
