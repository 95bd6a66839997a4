package exam

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrMissingText         = errors.New("question text is required")
	ErrTooFewOptions       = errors.New("at least two options are required")
	ErrInvalidCorrectIndex = errors.New("correct answer must be one of the options")
	ErrInvalidPoints       = errors.New("points must be a number greater than zero")
)

// ValidationError identifies the first defective question in an authored
// question bank. Index is zero-based; the message uses the 1-based position.
type ValidationError struct {
	Index int
	Kind  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Question %d: %s.", e.Index+1, e.Kind)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// IsBlank reports whether the authored list carries no content at all: every
// question has empty text and no options. Such a list is saved as an exam
// without an online test.
func IsBlank(qs []QuestionInput) bool {
	for _, q := range qs {
		if strings.TrimSpace(q.Text) != "" || len(cleanOptions(q.Options)) > 0 {
			return false
		}
	}
	return true
}

// ValidateQuestions checks an authored question bank before it is persisted
// and returns the first violation found. Blank lists pass.
func ValidateQuestions(qs []QuestionInput) error {
	if IsBlank(qs) {
		return nil
	}
	for i, q := range qs {
		if err := validateQuestion(q); err != nil {
			return &ValidationError{Index: i, Kind: err}
		}
	}
	return nil
}

func validateQuestion(q QuestionInput) error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrMissingText
	}
	opts := cleanOptions(q.Options)
	if len(opts) < 2 {
		return ErrTooFewOptions
	}
	if q.CorrectIndex == nil || !isInteger(*q.CorrectIndex) ||
		*q.CorrectIndex < 0 || *q.CorrectIndex >= float64(len(opts)) {
		return ErrInvalidCorrectIndex
	}
	if q.Points != nil {
		p := *q.Points
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
			return ErrInvalidPoints
		}
	}
	return nil
}

// BuildQuestions validates qs and converts them to the stored form. A blank
// list yields no questions.
func BuildQuestions(qs []QuestionInput) ([]RawQuestion, error) {
	if IsBlank(qs) {
		return []RawQuestion{}, nil
	}
	if err := ValidateQuestions(qs); err != nil {
		return nil, err
	}
	out := make([]RawQuestion, 0, len(qs))
	for _, q := range qs {
		points := DefaultPoints
		if q.Points != nil {
			points = *q.Points
		}
		out = append(out, RawQuestion{
			Text:         mustJSON(strings.TrimSpace(q.Text)),
			Options:      mustJSON(cleanOptions(q.Options)),
			CorrectIndex: mustJSON(int(*q.CorrectIndex)),
			Points:       mustJSON(points),
		})
	}
	return out, nil
}

// cleanOptions trims every option and drops the blank ones, matching what
// Normalize will later read back from the stored record.
func cleanOptions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		if s := strings.TrimSpace(o); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
