package exam

import (
	"encoding/json"
	"time"
)

// RawQuestion is a question record exactly as it was stored. Admins and
// older clients wrote these with inconsistent shapes, so every field is
// kept undecoded until Normalize runs.
type RawQuestion struct {
	Text    json.RawMessage `json:"text,omitempty"`
	Options json.RawMessage `json:"options,omitempty"`
	Points  json.RawMessage `json:"points,omitempty"`

	// Legacy spellings of the answer key, in lookup priority order.
	CorrectIndex       json.RawMessage `json:"correctIndex,omitempty"`
	CorrectIndexLower  json.RawMessage `json:"correctindex,omitempty"`
	CorrectAnswerIndex json.RawMessage `json:"correct_answer_index,omitempty"`
}

// Question is the canonical shape produced by Normalize.
type Question struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"` // -1 when the stored key was not an integer
	Points       float64  `json:"points"`
}

// QuestionInput is what the authoring form submits for one question.
type QuestionInput struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex *float64 `json:"correctIndex"`
	Points       *float64 `json:"points,omitempty"`
}

type Exam struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Subject      string        `json:"subject"`
	Date         *time.Time    `json:"date,omitempty"`
	Duration     string        `json:"duration"`
	Description  string        `json:"description"`
	DownloadLink string        `json:"downloadLink,omitempty"`
	Questions    []RawQuestion `json:"questions"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasOnlineExam reports whether any questions were stored, valid or not.
func (e Exam) HasOnlineExam() bool { return len(e.Questions) > 0 }

// AnswerRecord is the per-question audit entry persisted with an attempt.
type AnswerRecord struct {
	QuestionIndex int     `json:"questionIndex"`
	SelectedIndex int     `json:"selectedIndex"`
	CorrectIndex  int     `json:"correctIndex"`
	IsCorrect     bool    `json:"isCorrect"`
	Points        float64 `json:"points"`
}

type Attempt struct {
	ID             string         `json:"id"`
	ExamID         string         `json:"examId"`
	ExamTitle      string         `json:"examTitle"`
	CandidateName  string         `json:"candidateName"`
	CandidateEmail string         `json:"candidateEmail"`
	Score          float64        `json:"score"`
	Total          float64        `json:"total"`
	Answers        []AnswerRecord `json:"answers"`
	SubmittedAt    time.Time      `json:"submittedAt"`
}

type Registration struct {
	ID           string    `json:"id"`
	ExamID       string    `json:"examId"`
	ExamTitle    string    `json:"examTitle"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	RegisteredAt time.Time `json:"registeredAt"`
}
