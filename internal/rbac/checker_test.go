package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerHas(t *testing.T) {
	c := NewChecker(map[string][]string{
		"admin":   {"*"},
		"auditor": {"attempt:view-all", "registration:*"},
	})
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"admin", PermExamDelete, true},
		{"auditor", PermAttemptViewAll, true},
		{"auditor", PermRegistrationViewAll, true},
		{"auditor", PermExamCreate, false},
		{"candidate", PermAttemptViewAll, false},
		{"", PermExamCreate, false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
	if !c.Any("auditor", PermExamCreate, PermAttemptViewAll) {
		t.Error("Any should match the second permission")
	}
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require(PermExamCreate)(ok)

	for role, want := range map[string]int{
		RoleAdmin: http.StatusNoContent,
		"auditor": http.StatusForbidden,
		"":        http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodPost, "/admin/exams", nil)
		if role != "" {
			req = req.WithContext(WithRole(context.Background(), role))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("role %q: status %d, want %d", role, rec.Code, want)
		}
	}
}
