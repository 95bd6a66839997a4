package exam

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type ListOpts struct {
	ExamID string // filter by exam
	Limit  int
	Offset int
}

// Store is the single source of truth for exams, registrations and
// attempts. Create methods assign the id and the server timestamps.
type Store interface {
	// ListExams returns every exam, newest date first, undated exams last.
	ListExams(ctx context.Context) ([]Exam, error)
	GetExam(ctx context.Context, id string) (Exam, error)
	CreateExam(ctx context.Context, e Exam) (Exam, error)
	UpdateExam(ctx context.Context, e Exam) (Exam, error)
	DeleteExam(ctx context.Context, id string) error

	CreateRegistration(ctx context.Context, r Registration) (Registration, error)
	ListRegistrations(ctx context.Context, opts ListOpts) ([]Registration, error)

	CreateAttempt(ctx context.Context, a Attempt) (Attempt, error)
	ListAttempts(ctx context.Context, opts ListOpts) ([]Attempt, error)
}
