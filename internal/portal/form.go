package portal

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mind-engage/examdesk/internal/exam"
)

var (
	ErrInvalidForm      = errors.New("invalid form")
	ErrIdentityRequired = errors.New("please provide your name and email")
)

// FormError names the first authoring or registration field that failed.
type FormError struct {
	Field string
	Msg   string
}

func (e *FormError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Msg) }
func (e *FormError) Unwrap() error { return ErrInvalidForm }

// ExamForm is the authoring form for one exam.
type ExamForm struct {
	Title        string               `json:"title"`
	Subject      string               `json:"subject"`
	Date         string               `json:"date"`
	Duration     string               `json:"duration"`
	Description  string               `json:"description"`
	DownloadLink string               `json:"downloadLink"`
	Questions    []exam.QuestionInput `json:"questions"`
}

type RegistrationForm struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Submission is one candidate's answer sheet. Answers are keyed by the
// position of the question in the candidate view.
type Submission struct {
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Answers map[int]int `json:"answers"`
}

var emailRegex = regexp.MustCompile(`^(?P<name>[a-zA-Z0-9.!#$%&'*+/=?^_ \x60{|}~-]+)@(?P<domain>[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*)$`)

func validEmail(s string) bool {
	return len(s) <= 254 && emailRegex.MatchString(s)
}

// dateLayouts are tried in order after RFC 3339. Layouts without an offset are read in
// the service location.
var dateLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseExamDate reads an exam date as typed into the authoring form.
func ParseExamDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// buildExam applies the authoring rules and returns the record to store.
// Question problems come back as *exam.ValidationError, everything else
// as *FormError.
func buildExam(f ExamForm, loc *time.Location) (exam.Exam, error) {
	e := exam.Exam{
		Title:        strings.TrimSpace(f.Title),
		Subject:      strings.TrimSpace(f.Subject),
		Duration:     strings.TrimSpace(f.Duration),
		Description:  strings.TrimSpace(f.Description),
		DownloadLink: strings.TrimSpace(f.DownloadLink),
	}
	for _, req := range []struct{ field, val string }{
		{"title", e.Title},
		{"subject", e.Subject},
		{"date", strings.TrimSpace(f.Date)},
		{"duration", e.Duration},
		{"description", e.Description},
	} {
		if req.val == "" {
			return exam.Exam{}, &FormError{Field: req.field, Msg: "is required"}
		}
	}
	d, err := ParseExamDate(strings.TrimSpace(f.Date), loc)
	if err != nil {
		return exam.Exam{}, &FormError{Field: "date", Msg: "must be a date and time such as 2026-05-01T09:00"}
	}
	e.Date = &d
	if e.DownloadLink != "" {
		u, err := url.Parse(e.DownloadLink)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return exam.Exam{}, &FormError{Field: "downloadLink", Msg: "must be an http or https URL"}
		}
	}
	qs, err := exam.BuildQuestions(f.Questions)
	if err != nil {
		return exam.Exam{}, err
	}
	e.Questions = qs
	return e, nil
}
