package portal

import (
	"time"

	"github.com/mind-engage/examdesk/internal/exam"
)

// ExamSummary is the public listing entry. It never carries questions.
type ExamSummary struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Subject         string     `json:"subject"`
	Date            *time.Time `json:"date,omitempty"`
	Duration        string     `json:"duration"`
	DurationSeconds int64      `json:"durationSeconds,omitempty"`
	Description     string     `json:"description"`
	DownloadLink    string     `json:"downloadLink,omitempty"`
	HasOnlineExam   bool       `json:"hasOnlineExam"`
	QuestionCount   int        `json:"questionCount"` // questions a candidate would actually see
}

// CandidateQuestion is a displayable question without its answer key.
type CandidateQuestion struct {
	Index   int      `json:"index"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Points  float64  `json:"points"`
}

type CandidateExam struct {
	ExamSummary
	TotalPoints float64             `json:"totalPoints"`
	Questions   []CandidateQuestion `json:"questions"`
}

func Summarize(e exam.Exam) ExamSummary {
	s := ExamSummary{
		ID:            e.ID,
		Title:         e.Title,
		Subject:       e.Subject,
		Date:          e.Date,
		Duration:      e.Duration,
		Description:   e.Description,
		DownloadLink:  e.DownloadLink,
		HasOnlineExam: e.HasOnlineExam(),
		QuestionCount: len(exam.Displayable(e)),
	}
	if d, ok := exam.ParseDuration(e.Duration); ok {
		s.DurationSeconds = int64(d / time.Second)
	}
	return s
}

func SummarizeAll(list []exam.Exam) []ExamSummary {
	out := make([]ExamSummary, 0, len(list))
	for _, e := range list {
		out = append(out, Summarize(e))
	}
	return out
}

func candidateView(e exam.Exam) CandidateExam {
	qs := exam.Displayable(e)
	v := CandidateExam{ExamSummary: Summarize(e), Questions: make([]CandidateQuestion, 0, len(qs))}
	for i, q := range qs {
		v.TotalPoints += q.Points
		v.Questions = append(v.Questions, CandidateQuestion{Index: i, Text: q.Text, Options: q.Options, Points: q.Points})
	}
	return v
}
