package auth

import (
	"net/http"

	"github.com/mind-engage/examdesk/internal/rbac"
)

// RequireAdminAccount rejects tokens whose subject is no longer an
// administrator account, even if the token itself is still valid.
// Must run after JWTMiddleware.
func RequireAdminAccount(admins *AdminStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if rbac.RoleFromContext(ctx) != rbac.RoleAdmin {
				deny(w, http.StatusForbidden, "forbidden")
				return
			}
			ok, err := admins.Exists(ctx, SubjectFromContext(ctx))
			if err != nil {
				deny(w, http.StatusServiceUnavailable, "account lookup failed")
				return
			}
			if !ok {
				deny(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
