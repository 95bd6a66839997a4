package exam

import (
	"encoding/json"
	"reflect"
	"testing"
)

func raw(t *testing.T, doc string) RawQuestion {
	t.Helper()
	var q RawQuestion
	if err := json.Unmarshal([]byte(doc), &q); err != nil {
		t.Fatalf("unmarshal %s: %v", doc, err)
	}
	return q
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want Question
	}{
		{
			name: "well formed",
			doc:  `{"text":" What? ","options":["A"," B ","C"],"correctIndex":1,"points":2}`,
			want: Question{Text: "What?", Options: []string{"A", "B", "C"}, CorrectIndex: 1, Points: 2},
		},
		{
			name: "lower-case key",
			doc:  `{"text":"Q","options":["A","B"],"correctindex":0}`,
			want: Question{Text: "Q", Options: []string{"A", "B"}, CorrectIndex: 0, Points: 1},
		},
		{
			name: "snake case key",
			doc:  `{"text":"Q","options":["A","B"],"correct_answer_index":"1"}`,
			want: Question{Text: "Q", Options: []string{"A", "B"}, CorrectIndex: 1, Points: 1},
		},
		{
			name: "first non-null key wins",
			doc:  `{"text":"Q","options":["A","B"],"correctIndex":null,"correctindex":1,"correct_answer_index":0}`,
			want: Question{Text: "Q", Options: []string{"A", "B"}, CorrectIndex: 1, Points: 1},
		},
		{
			name: "camel case beats the others",
			doc:  `{"text":"Q","options":["A","B"],"correctIndex":0,"correct_answer_index":1}`,
			want: Question{Text: "Q", Options: []string{"A", "B"}, CorrectIndex: 0, Points: 1},
		},
		{
			name: "blank options dropped",
			doc:  `{"text":"Q","options":["", "  ", "A", null, 3],"correctIndex":0}`,
			want: Question{Text: "Q", Options: []string{"A", "null", "3"}, CorrectIndex: 0, Points: 1},
		},
		{
			name: "options not an array",
			doc:  `{"text":"Q","options":"A,B","correctIndex":0}`,
			want: Question{Text: "Q", Options: []string{}, CorrectIndex: 0, Points: 1},
		},
		{
			name: "missing everything",
			doc:  `{}`,
			want: Question{Text: "", Options: []string{}, CorrectIndex: -1, Points: 1},
		},
		{
			name: "fractional key",
			doc:  `{"text":"Q","options":["A","B"],"correctIndex":0.5}`,
			want: Question{Text: "Q", Options: []string{"A", "B"}, CorrectIndex: -1, Points: 1},
		},
		{
			name: "non-numeric key",
			doc:  `{"text":"Q","options":["A","B"],"correctIndex":"b"}`,
			want: Question{Text: "Q", Options: []string{"A", "B"}, CorrectIndex: -1, Points: 1},
		},
		{
			name: "zero points default",
			doc:  `{"text":"Q","options":["A","B"],"correctIndex":0,"points":0}`,
			want: Question{Text: "Q", Options: []string{"A", "B"}, CorrectIndex: 0, Points: 1},
		},
		{
			name: "non-numeric points default",
			doc:  `{"text":"Q","options":["A","B"],"correctIndex":0,"points":"lots"}`,
			want: Question{Text: "Q", Options: []string{"A", "B"}, CorrectIndex: 0, Points: 1},
		},
		{
			name: "numeric string points",
			doc:  `{"text":"Q","options":["A","B"],"correctIndex":0,"points":"2.5"}`,
			want: Question{Text: "Q", Options: []string{"A", "B"}, CorrectIndex: 0, Points: 2.5},
		},
		{
			name: "negative points default",
			doc:  `{"text":"Q","options":["A","B"],"correctIndex":0,"points":-3}`,
			want: Question{Text: "Q", Options: []string{"A", "B"}, CorrectIndex: 0, Points: 1},
		},
		{
			name: "numeric text",
			doc:  `{"text":42,"options":["A","B"],"correctIndex":0}`,
			want: Question{Text: "42", Options: []string{"A", "B"}, CorrectIndex: 0, Points: 1},
		},
		{
			name: "falsy text",
			doc:  `{"text":0,"options":["A","B"],"correctIndex":0}`,
			want: Question{Text: "", Options: []string{"A", "B"}, CorrectIndex: 0, Points: 1},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(raw(t, tc.doc))
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Normalize(%s)\n got %+v\nwant %+v", tc.doc, got, tc.want)
			}
		})
	}
}

func TestNormalizeNeverReturnsBlankOptions(t *testing.T) {
	docs := []string{
		`{}`, `{"options":null}`, `{"options":[]}`, `{"options":[""," ","\t"]}`,
		`{"options":[{"a":1},[1,2],true,false]}`, `{"options":{"0":"A"}}`,
		`{"text":["x"],"options":[" a ","",0]}`,
	}
	for _, d := range docs {
		q := Normalize(raw(t, d))
		if q.Options == nil {
			t.Errorf("%s: options is nil", d)
		}
		for _, o := range q.Options {
			if o == "" {
				t.Errorf("%s: blank option in %q", d, q.Options)
			}
		}
	}
}

func TestValidPredicate(t *testing.T) {
	tests := []struct {
		name string
		q    Question
		want bool
	}{
		{"ok", Question{Text: "Q", Options: []string{"A", "B"}, CorrectIndex: 1, Points: 1}, true},
		{"no text", Question{Options: []string{"A", "B"}, CorrectIndex: 0, Points: 1}, false},
		{"one option", Question{Text: "Q", Options: []string{"A"}, CorrectIndex: 0, Points: 1}, false},
		{"non-integer key", Question{Text: "Q", Options: []string{"A", "B"}, CorrectIndex: -1, Points: 1}, false},
		{"key out of range", Question{Text: "Q", Options: []string{"A", "B"}, CorrectIndex: 2, Points: 1}, false},
	}
	for _, tc := range tests {
		if got := tc.q.Valid(); got != tc.want {
			t.Errorf("%s: Valid() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDisplayableDropsMalformed(t *testing.T) {
	e := Exam{Questions: []RawQuestion{
		raw(t, `{"text":"Q1","options":["A","B","C"],"correctIndex":1,"points":2}`),
		raw(t, `{"text":"","options":["A","B"],"correctIndex":0}`),
		raw(t, `{"text":"Q3","options":["only"],"correctIndex":0}`),
		raw(t, `{"text":"Q4","options":["A","B"],"correctIndex":1.5}`),
		raw(t, `{"text":"Q5","options":["X","Y"],"correct_answer_index":0}`),
	}}
	got := Displayable(e)
	if len(got) != 2 {
		t.Fatalf("expected 2 displayable questions, got %d: %+v", len(got), got)
	}
	if got[0].Text != "Q1" || got[1].Text != "Q5" {
		t.Errorf("unexpected order: %q, %q", got[0].Text, got[1].Text)
	}
	for _, q := range got {
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			t.Errorf("%q: correct index %d outside %d options", q.Text, q.CorrectIndex, len(q.Options))
		}
	}
	if !e.HasOnlineExam() {
		t.Error("HasOnlineExam should count stored questions")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"90", "1h30m0s", true},
		{"1h30m", "1h30m0s", true},
		{"PT45M", "45m0s", true},
		{"pt2h", "2h0m0s", true},
		{"2 hours", "", false},
		{"", "", false},
		{"0", "", false},
	}
	for _, tc := range tests {
		d, ok := ParseDuration(tc.in)
		if ok != tc.ok {
			t.Errorf("ParseDuration(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && d.String() != tc.want {
			t.Errorf("ParseDuration(%q) = %s, want %s", tc.in, d, tc.want)
		}
	}
}
