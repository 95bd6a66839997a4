package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/examdesk/internal/db"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminStore holds the administrator accounts allowed to manage exams.
type AdminStore struct {
	db     *sql.DB
	driver db.Driver
}

func NewAdminStore(conn *sql.DB, driver db.Driver) *AdminStore {
	return &AdminStore{db: conn, driver: driver}
}

// Seed creates the account if it does not exist yet. An existing account
// keeps its password.
func (s *AdminStore) Seed(ctx context.Context, email, passHash string) error {
	email = NormalizeEmail(email)
	if email == "" || passHash == "" {
		return errors.New("seed admin: email and password hash are required")
	}
	if _, err := bcrypt.Cost([]byte(passHash)); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	_, err := s.db.ExecContext(ctx, db.Rebind(s.driver,
		`INSERT INTO admins (email, password_hash, created_at) VALUES (?,?,?)
		 ON CONFLICT (email) DO NOTHING`),
		email, passHash, time.Now().Unix())
	return err
}

// Verify returns ErrInvalidCredentials for an unknown email or a wrong
// password, so callers cannot tell the two apart.
func (s *AdminStore) Verify(ctx context.Context, email, password string) error {
	var hash string
	err := s.db.QueryRowContext(ctx, db.Rebind(s.driver,
		`SELECT password_hash FROM admins WHERE email=?`), NormalizeEmail(email)).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *AdminStore) Exists(ctx context.Context, email string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, db.Rebind(s.driver,
		`SELECT COUNT(*) FROM admins WHERE email=?`), NormalizeEmail(email)).Scan(&n)
	return n > 0, err
}

// NormalizeEmail is the canonical form admin emails are stored and compared in.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
