package grading

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/mind-engage/examdesk/internal/exam"
)

func sampleExam() []exam.Question {
	return []exam.Question{
		{Text: "Q1", Options: []string{"A", "B", "C"}, CorrectIndex: 1, Points: 2},
		{Text: "Q2", Options: []string{"X", "Y"}, CorrectIndex: 0, Points: 1},
	}
}

func TestScoreMixedAnswers(t *testing.T) {
	got := Score(sampleExam(), map[int]int{0: 1, 1: 1})
	want := Result{
		Score: 2,
		Total: 3,
		Answers: []exam.AnswerRecord{
			{QuestionIndex: 0, SelectedIndex: 1, CorrectIndex: 1, IsCorrect: true, Points: 2},
			{QuestionIndex: 1, SelectedIndex: 1, CorrectIndex: 0, IsCorrect: false, Points: 1},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
}

func TestScoreUnansweredQuestion(t *testing.T) {
	got := Score(sampleExam(), map[int]int{0: 0})
	if got.Score != 0 || got.Total != 3 {
		t.Fatalf("score/total = %v/%v, want 0/3", got.Score, got.Total)
	}
	if len(got.Answers) != 2 {
		t.Fatalf("expected 2 answer records, got %d", len(got.Answers))
	}
	q2 := got.Answers[1]
	if q2.SelectedIndex != Unanswered || q2.IsCorrect {
		t.Errorf("unanswered record = %+v", q2)
	}
}

func TestScoreNoAnswers(t *testing.T) {
	got := Score(sampleExam(), nil)
	if got.Score != 0 || got.Total != 3 {
		t.Fatalf("score/total = %v/%v, want 0/3", got.Score, got.Total)
	}
	for i, a := range got.Answers {
		if a.QuestionIndex != i || a.SelectedIndex != Unanswered || a.IsCorrect {
			t.Errorf("record %d = %+v", i, a)
		}
	}
}

func TestScoreOutOfRangeSelection(t *testing.T) {
	got := Score(sampleExam(), map[int]int{0: 7, 1: -4, 5: 0})
	if got.Score != 0 {
		t.Errorf("score = %v, want 0", got.Score)
	}
	if len(got.Answers) != 2 {
		t.Errorf("answers for unknown positions must be ignored, got %d records", len(got.Answers))
	}
}

func TestScoreEmpty(t *testing.T) {
	got := Score(nil, map[int]int{0: 1})
	if got.Score != 0 || got.Total != 0 || len(got.Answers) != 0 {
		t.Fatalf("got %+v", got)
	}
	if got.Percent() != 0 {
		t.Errorf("Percent() = %v", got.Percent())
	}
}

func TestScoreInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 200; n++ {
		var qs []exam.Question
		count := rng.Intn(8)
		for i := 0; i < count; i++ {
			opts := 2 + rng.Intn(4)
			qs = append(qs, exam.Question{
				Text:         "Q",
				Options:      make([]string, opts),
				CorrectIndex: rng.Intn(opts),
				Points:       float64(1 + rng.Intn(5)),
			})
		}
		answers := map[int]int{}
		for i := range qs {
			if rng.Intn(3) > 0 {
				answers[i] = rng.Intn(6) - 1
			}
		}

		a := Score(qs, answers)
		b := Score(qs, answers)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("non-deterministic result:\n%+v\n%+v", a, b)
		}
		if a.Score > a.Total {
			t.Fatalf("score %v exceeds total %v", a.Score, a.Total)
		}
		var total float64
		for _, q := range qs {
			total += q.Points
		}
		if a.Total != total {
			t.Fatalf("total %v, want %v", a.Total, total)
		}
		if len(a.Answers) != len(qs) {
			t.Fatalf("got %d records for %d questions", len(a.Answers), len(qs))
		}
		for i, rec := range a.Answers {
			if rec.QuestionIndex != i {
				t.Fatalf("record %d has position %d", i, rec.QuestionIndex)
			}
			if _, ok := answers[i]; !ok && (rec.SelectedIndex != Unanswered || rec.IsCorrect) {
				t.Fatalf("unanswered record %d = %+v", i, rec)
			}
		}
	}
}

func TestMissing(t *testing.T) {
	got := Missing(sampleExam(), map[int]int{1: 0})
	if !reflect.DeepEqual(got, []int{0}) {
		t.Fatalf("Missing = %v, want [0]", got)
	}
	if got := Missing(sampleExam(), map[int]int{0: 1, 1: 0}); len(got) != 0 {
		t.Fatalf("Missing = %v, want none", got)
	}
}

func TestMissingRejectsOutOfRangeSelections(t *testing.T) {
	got := Missing(sampleExam(), map[int]int{0: Unanswered, 1: 2})
	if !reflect.DeepEqual(got, []int{0, 1}) {
		t.Fatalf("Missing = %v, want [0 1]", got)
	}
	if got := Missing(sampleExam(), map[int]int{0: 2, 1: 1}); len(got) != 0 {
		t.Fatalf("Missing = %v, want none", got)
	}
}
