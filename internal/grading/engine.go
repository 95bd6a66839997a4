package grading

import (
	"github.com/mind-engage/examdesk/internal/exam"
)

// Unanswered is the selected index recorded for a question with no answer.
const Unanswered = -1

// Result is the outcome of grading one submission.
type Result struct {
	Score   float64             `json:"score"`
	Total   float64             `json:"total"`
	Answers []exam.AnswerRecord `json:"answers"`
}

// Percent returns Score as a share of Total, or 0 for an empty exam.
func (r Result) Percent() float64 {
	if r.Total <= 0 {
		return 0
	}
	return r.Score / r.Total * 100
}

// Score grades answers against questions. Answers are keyed by the zero-based
// position of the question in questions; there is no other question identity.
//
// Every question contributes its points to Total whether or not it was
// answered, and every question gets an AnswerRecord, in order. A missing
// answer is recorded as Unanswered and is never correct. Score is pure: the
// same inputs always produce the same Result.
func Score(questions []exam.Question, answers map[int]int) Result {
	res := Result{Answers: make([]exam.AnswerRecord, 0, len(questions))}
	for idx, q := range questions {
		res.Total += q.Points

		selected, ok := answers[idx]
		if !ok {
			selected = Unanswered
		}
		correct := selected == q.CorrectIndex && selected != Unanswered
		if correct {
			res.Score += q.Points
		}

		res.Answers = append(res.Answers, exam.AnswerRecord{
			QuestionIndex: idx,
			SelectedIndex: selected,
			CorrectIndex:  q.CorrectIndex,
			IsCorrect:     correct,
			Points:        q.Points,
		})
	}
	return res
}

// Missing lists the positions in questions that have no usable answer: no
// entry in answers, or a selection that is not one of the question's options.
func Missing(questions []exam.Question, answers map[int]int) []int {
	var out []int
	for idx, q := range questions {
		sel, ok := answers[idx]
		if !ok || sel < 0 || sel >= len(q.Options) {
			out = append(out, idx)
		}
	}
	return out
}
