package http

import (
	"errors"
	"net/http"
	"time"

	authmw "github.com/mind-engage/examdesk/internal/auth/middleware"
	"github.com/mind-engage/examdesk/internal/rbac"
)

// POST /auth/login  {"email": "...", "password": "..."}
func LoginHandler(a *authmw.AuthService, admins *authmw.AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, err)
			return
		}
		if err := admins.Verify(r.Context(), req.Email, req.Password); err != nil {
			if errors.Is(err, authmw.ErrInvalidCredentials) {
				respondJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid email or password"})
				return
			}
			respondError(w, err)
			return
		}
		tok, claims, err := a.IssueJWT(authmw.NormalizeEmail(req.Email), rbac.RoleAdmin)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"access_token": tok,
			"token_type":   "Bearer",
			"expires_at":   claims.ExpiresAt.Time.UTC().Format(time.RFC3339),
		})
	}
}

// POST /auth/logout
func LogoutHandler(a *authmw.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.Revoke(r.Context(), authmw.ClaimsFromContext(r.Context())); err != nil {
			respondError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /auth/me
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := authmw.ClaimsFromContext(r.Context())
		if c == nil {
			respondJSON(w, http.StatusUnauthorized, errorBody{Error: "not signed in"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"email":      c.Sub,
			"role":       c.Role,
			"expires_at": c.ExpiresAt.Time.UTC().Format(time.RFC3339),
		})
	}
}
