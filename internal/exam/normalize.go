package exam

import (
	"encoding/json"
	"math"
	"strings"
)

// DefaultPoints is used whenever a stored point value is missing or unusable.
const DefaultPoints = 1.0

// Normalize converts a stored question into its canonical shape. It never
// fails; use Question.Valid to decide whether the result can be shown.
func Normalize(raw RawQuestion) Question {
	return Question{
		Text:         normalizeText(raw.Text),
		Options:      normalizeOptions(raw.Options),
		CorrectIndex: normalizeCorrectIndex(raw),
		Points:       normalizePoints(raw.Points),
	}
}

// Valid reports whether q can be shown to a candidate and scored.
func (q Question) Valid() bool {
	return q.Text != "" &&
		len(q.Options) >= 2 &&
		q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options)
}

// Displayable returns the normalized questions of e that pass Valid, in
// stored order. Malformed questions are dropped without error, so the
// result can be shorter than e.Questions.
func Displayable(e Exam) []Question {
	out := make([]Question, 0, len(e.Questions))
	for _, raw := range e.Questions {
		if q := Normalize(raw); q.Valid() {
			out = append(out, q)
		}
	}
	return out
}

// answerKey returns the first non-null legacy answer-key field.
func answerKey(raw RawQuestion) json.RawMessage {
	for _, k := range []json.RawMessage{raw.CorrectIndex, raw.CorrectIndexLower, raw.CorrectAnswerIndex} {
		if !isAbsent(k) {
			return k
		}
	}
	return nil
}

func normalizeCorrectIndex(raw RawQuestion) int {
	f := toNumber(answerKey(raw))
	if !isInteger(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return -1
	}
	return int(f)
}

func normalizeText(raw json.RawMessage) string {
	if isAbsent(raw) {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil || isFalsy(v) {
		return ""
	}
	return strings.TrimSpace(toText(v))
}

func normalizeOptions(raw json.RawMessage) []string {
	out := []string{}
	if isAbsent(raw) {
		return out
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, it := range items {
		if s := strings.TrimSpace(toText(it)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// TODO: a stored zero is read as "missing" and becomes DefaultPoints, so a
// zero-weight question cannot be expressed. Revisit once authors ask for it.
func normalizePoints(raw json.RawMessage) float64 {
	f := toNumber(raw)
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return DefaultPoints
	}
	return f
}
