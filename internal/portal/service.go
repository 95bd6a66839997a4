// Package portal is the controller between the HTTP surface and the exam
// store. Writes go straight to the store and never touch the cached
// listing; the Catalog catches up when the next snapshot arrives.
package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mind-engage/examdesk/internal/exam"
	"github.com/mind-engage/examdesk/internal/feed"
	"github.com/mind-engage/examdesk/internal/grading"
	syncx "github.com/mind-engage/examdesk/internal/sync"
)

var (
	ErrIncomplete  = errors.New("please answer all questions before submitting")
	ErrNoQuestions = errors.New("no online questions yet")
)

// IncompleteError lists the unanswered positions of a submission.
type IncompleteError struct {
	Missing []int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s (%d unanswered)", ErrIncomplete.Error(), len(e.Missing))
}

func (e *IncompleteError) Unwrap() error { return ErrIncomplete }

// EventRecorder receives domain events after successful writes.
type EventRecorder interface {
	Record(ctx context.Context, typ, key string, data any)
}

type Options struct {
	PublicURL string
	Location  *time.Location // for dates entered without an offset
	Events    EventRecorder
	Log       *slog.Logger
}

type Service struct {
	store     exam.Store
	notify    feed.Notifier
	events    EventRecorder
	publicURL string
	loc       *time.Location
	log       *slog.Logger
}

func NewService(store exam.Store, notify feed.Notifier, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Service{
		store:     store,
		notify:    notify,
		events:    opts.Events,
		publicURL: opts.PublicURL,
		loc:       opts.Location,
		log:       opts.Log.With("component", "portal"),
	}
}

func (s *Service) changed(ctx context.Context) {
	if s.notify != nil {
		s.notify.Changed(ctx, feed.CollectionExams)
	}
}

func (s *Service) record(ctx context.Context, typ, key string, data any) {
	if s.events != nil {
		s.events.Record(ctx, typ, key, data)
	}
}

// CheckExam applies the authoring rules without saving anything.
func (s *Service) CheckExam(f ExamForm) error {
	_, err := buildExam(f, s.loc)
	return err
}

// SaveExam creates the exam when id is empty and replaces it otherwise.
func (s *Service) SaveExam(ctx context.Context, id string, f ExamForm) (exam.Exam, error) {
	e, err := buildExam(f, s.loc)
	if err != nil {
		return exam.Exam{}, err
	}
	var saved exam.Exam
	if id == "" {
		saved, err = s.store.CreateExam(ctx, e)
	} else {
		e.ID = id
		saved, err = s.store.UpdateExam(ctx, e)
	}
	if err != nil {
		if errors.Is(err, exam.ErrNotFound) {
			return exam.Exam{}, err
		}
		s.log.Error("save exam", "id", id, "err", err)
		return exam.Exam{}, fmt.Errorf("could not save exam: %w", err)
	}
	s.changed(ctx)
	s.record(ctx, syncx.TypeExamSaved, saved.ID, map[string]any{
		"title": saved.Title, "subject": saved.Subject, "questions": len(saved.Questions), "created": id == "",
	})
	return saved, nil
}

func (s *Service) DeleteExam(ctx context.Context, id string) error {
	if err := s.store.DeleteExam(ctx, id); err != nil {
		if errors.Is(err, exam.ErrNotFound) {
			return err
		}
		s.log.Error("delete exam", "id", id, "err", err)
		return fmt.Errorf("could not delete exam: %w", err)
	}
	s.changed(ctx)
	s.record(ctx, syncx.TypeExamDeleted, id, map[string]any{})
	return nil
}

// AttachMaterial points the exam's download link at an uploaded file.
func (s *Service) AttachMaterial(ctx context.Context, id, link string) (exam.Exam, error) {
	e, err := s.loadExam(ctx, id)
	if err != nil {
		return exam.Exam{}, err
	}
	e.DownloadLink = link
	saved, err := s.store.UpdateExam(ctx, e)
	if err != nil {
		if errors.Is(err, exam.ErrNotFound) {
			return exam.Exam{}, err
		}
		s.log.Error("attach material", "id", id, "err", err)
		return exam.Exam{}, fmt.Errorf("could not save exam: %w", err)
	}
	s.changed(ctx)
	s.record(ctx, syncx.TypeExamSaved, saved.ID, map[string]any{"downloadLink": link})
	return saved, nil
}

// RegistrationResult carries the take-exam link when the exam has
// questions online.
type RegistrationResult struct {
	Registration  exam.Registration `json:"registration"`
	HasOnlineExam bool              `json:"hasOnlineExam"`
	TakeURL       string            `json:"takeUrl,omitempty"`
	Message       string            `json:"message"`
}

func (s *Service) Register(ctx context.Context, examID string, f RegistrationForm) (RegistrationResult, error) {
	name := strings.TrimSpace(f.FullName)
	email := strings.TrimSpace(f.Email)
	switch {
	case name == "":
		return RegistrationResult{}, &FormError{Field: "fullName", Msg: "is required"}
	case email == "":
		return RegistrationResult{}, &FormError{Field: "email", Msg: "is required"}
	case !validEmail(email):
		return RegistrationResult{}, &FormError{Field: "email", Msg: "is not a valid email address"}
	}
	e, err := s.loadExam(ctx, examID)
	if err != nil {
		return RegistrationResult{}, err
	}
	reg, err := s.store.CreateRegistration(ctx, exam.Registration{
		ExamID:    e.ID,
		ExamTitle: e.Title,
		FullName:  name,
		Email:     email,
		Phone:     strings.TrimSpace(f.Phone),
	})
	if err != nil {
		s.log.Error("create registration", "exam", examID, "err", err)
		return RegistrationResult{}, fmt.Errorf("could not register: %w", err)
	}
	s.record(ctx, syncx.TypeRegistrationCreated, reg.ID, reg)

	res := RegistrationResult{Registration: reg, Message: "Registered successfully."}
	if len(exam.Displayable(e)) > 0 {
		res.HasOnlineExam = true
		res.TakeURL = TakeURL(s.publicURL, e.ID, name, email)
		res.Message = "Registered successfully. You can take the exam online now."
	} else {
		res.Message = "Registered successfully. " + capitalize(ErrNoQuestions.Error()) + "."
	}
	return res, nil
}

// loadExam passes exam.ErrNotFound through and wraps any other store failure.
func (s *Service) loadExam(ctx context.Context, id string) (exam.Exam, error) {
	e, err := s.store.GetExam(ctx, id)
	if err != nil {
		if errors.Is(err, exam.ErrNotFound) {
			return exam.Exam{}, err
		}
		s.log.Error("load exam", "id", id, "err", err)
		return exam.Exam{}, fmt.Errorf("could not load exam: %w", err)
	}
	return e, nil
}

// ExamForCandidate returns the exam as a candidate sees it: only valid
// questions, renumbered, without answer keys.
func (s *Service) ExamForCandidate(ctx context.Context, id string) (CandidateExam, error) {
	e, err := s.loadExam(ctx, id)
	if err != nil {
		return CandidateExam{}, err
	}
	return candidateView(e), nil
}

// Submit scores a submission against the questions the candidate was
// shown and stores the attempt. Identity is checked before the store is
// touched.
func (s *Service) Submit(ctx context.Context, examID string, sub Submission) (exam.Attempt, error) {
	name := strings.TrimSpace(sub.Name)
	email := strings.TrimSpace(sub.Email)
	if name == "" || email == "" {
		return exam.Attempt{}, ErrIdentityRequired
	}
	if !validEmail(email) {
		return exam.Attempt{}, &FormError{Field: "email", Msg: "is not a valid email address"}
	}

	e, err := s.loadExam(ctx, examID)
	if err != nil {
		return exam.Attempt{}, err
	}
	qs := exam.Displayable(e)
	if len(qs) == 0 {
		return exam.Attempt{}, ErrNoQuestions
	}
	if missing := grading.Missing(qs, sub.Answers); len(missing) > 0 {
		return exam.Attempt{}, &IncompleteError{Missing: missing}
	}

	res := grading.Score(qs, sub.Answers)
	att, err := s.store.CreateAttempt(ctx, exam.Attempt{
		ExamID:         e.ID,
		ExamTitle:      e.Title,
		CandidateName:  name,
		CandidateEmail: email,
		Score:          res.Score,
		Total:          res.Total,
		Answers:        res.Answers,
	})
	if err != nil {
		s.log.Error("create attempt", "exam", examID, "err", err)
		return exam.Attempt{}, fmt.Errorf("could not submit exam: %w", err)
	}
	s.record(ctx, syncx.TypeAttemptSubmitted, att.ID, map[string]any{
		"examId": att.ExamID, "candidateEmail": att.CandidateEmail, "score": att.Score, "total": att.Total,
	})
	return att, nil
}

func (s *Service) Attempts(ctx context.Context, examID string, limit, offset int) ([]exam.Attempt, error) {
	return s.store.ListAttempts(ctx, exam.ListOpts{ExamID: examID, Limit: limit, Offset: offset})
}

func (s *Service) Registrations(ctx context.Context, examID string, limit, offset int) ([]exam.Registration, error) {
	return s.store.ListRegistrations(ctx, exam.ListOpts{ExamID: examID, Limit: limit, Offset: offset})
}

// Exams is the unfiltered admin list straight from the store.
func (s *Service) Exams(ctx context.Context) ([]exam.Exam, error) {
	return s.store.ListExams(ctx)
}

func (s *Service) Exam(ctx context.Context, id string) (exam.Exam, error) {
	return s.loadExam(ctx, id)
}

// TakeURL is the standalone page address for an exam.
func (s *Service) TakeURL(examID, name, email string) string {
	return TakeURL(s.publicURL, examID, name, email)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
