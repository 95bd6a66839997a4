package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/examdesk/internal/rbac"
)

var ErrRevoked = errors.New("token revoked")

type AuthService struct {
	hmac    []byte
	ttl     time.Duration
	revoked Revoker
	now     func() time.Time
}

func NewAuthService(secret string, ttl time.Duration, revoked Revoker) *AuthService {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	if revoked == nil {
		revoked = NewMemoryRevoker()
	}
	return &AuthService{hmac: []byte(secret), ttl: ttl, revoked: revoked, now: time.Now}
}

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueJWT signs a token for sub. Every token carries a fresh jti so it
// can be revoked on its own.
func (a *AuthService) IssueJWT(sub, role string) (string, *Claims, error) {
	now := a.now()
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    "examdesk",
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(a.hmac)
	if err != nil {
		return "", nil, err
	}
	return s, claims, nil
}

func (a *AuthService) Parse(ctx context.Context, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	revoked, err := a.revoked.IsRevoked(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrRevoked
	}
	return c, nil
}

// Revoke blocks the token until it would have expired anyway.
func (a *AuthService) Revoke(ctx context.Context, c *Claims) error {
	if c == nil || c.ID == "" {
		return nil
	}
	until := a.now().Add(a.ttl)
	if c.ExpiresAt != nil {
		until = c.ExpiresAt.Time
	}
	return a.revoked.Revoke(ctx, c.ID, until)
}

// JWTMiddleware authenticates the bearer token and puts the subject, role
// and claims in the request context for rbac and the handlers.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				deny(w, http.StatusUnauthorized, "missing bearer")
				return
			}
			claims, err := a.Parse(r.Context(), strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				deny(w, http.StatusUnauthorized, "bad token")
				return
			}
			ctx := WithClaims(r.Context(), claims)
			ctx = WithSubject(ctx, claims.Sub)
			ctx = rbac.WithRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, "{\"error\":%q}\n", msg)
}
