package examimport

import (
	"context"
	"errors"
	"testing"

	"github.com/mind-engage/examdesk/internal/exam"
	"github.com/mind-engage/examdesk/internal/portal"
)

const goodDoc = `{"exams": [
  {"title": "Algebra", "subject": "Math", "date": "2026-05-01T09:00", "duration": "60",
   "description": "Linear equations",
   "questions": [{"text": "2+2?", "options": ["3", "4"], "correctIndex": 1, "points": 2}]},
  {"title": "Mechanics", "subject": "Physics", "date": "2026-06-01T09:00:00Z", "duration": "PT1H30M",
   "description": "Newton", "downloadLink": "https://files.example.org/mech.pdf"}
]}`

func newImporter() (*Importer, exam.Store) {
	store := exam.NewInMemoryStore()
	return New(portal.NewService(store, nil, portal.Options{})), store
}

func TestImportSavesEveryExam(t *testing.T) {
	im, store := newImporter()
	saved, err := im.Import(context.Background(), []byte(goodDoc))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(saved) != 2 {
		t.Fatalf("saved %d exams", len(saved))
	}
	list, _ := store.ListExams(context.Background())
	if len(list) != 2 || list[0].Title != "Mechanics" {
		t.Errorf("unexpected stored list: %+v", list)
	}
}

func TestParseReportsSchemaProblems(t *testing.T) {
	cases := map[string]string{
		"not json":       `{"exams": [`,
		"no exams":       `{"exams": []}`,
		"extra property": `{"exams": [], "other": 1}`,
		"missing title":  `{"exams": [{"subject": "Math", "date": "2026-05-01", "duration": "1h", "description": ""}]}`,
		"bad date":       `{"exams": [{"title": "A", "subject": "Math", "date": "soon", "duration": "1h", "description": ""}]}`,
		"bad link":       `{"exams": [{"title": "A", "subject": "Math", "date": "2026-05-01", "duration": "1h", "description": "", "downloadLink": "not a uri"}]}`,
		"options type":   `{"exams": [{"title": "A", "subject": "Math", "date": "2026-05-01", "duration": "1h", "description": "", "questions": [{"text": "Q", "options": "A,B"}]}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			var se *SchemaError
			if !errors.As(err, &se) || !errors.Is(err, ErrInvalidDocument) || len(se.Problems) == 0 {
				t.Fatalf("got %v, want schema error", err)
			}
		})
	}
}

func TestImportIsAllOrNothing(t *testing.T) {
	im, store := newImporter()
	doc := `{"exams": [
	  {"title": "Ok", "subject": "Math", "date": "2026-05-01T09:00", "duration": "60", "description": "d"},
	  {"title": "Bad", "subject": "Math", "date": "2026-05-01T09:00", "duration": "60", "description": "d",
	   "questions": [{"text": "Q", "options": ["A", "B"], "correctIndex": 5}]}
	]}`
	_, err := im.Import(context.Background(), []byte(doc))
	var ie *ItemError
	if !errors.As(err, &ie) || ie.Item != 1 || !errors.Is(err, exam.ErrInvalidCorrectIndex) {
		t.Fatalf("got %v, want item 2 invalid correct index", err)
	}
	list, _ := store.ListExams(context.Background())
	if len(list) != 0 {
		t.Fatalf("partial import stored %d exams", len(list))
	}
}

func TestImportAppliesFormRules(t *testing.T) {
	im, _ := newImporter()
	doc := `{"exams": [{"title": "A", "subject": "Math", "date": "2026-05-01", "duration": "1h", "description": ""}]}`
	_, err := im.Import(context.Background(), []byte(doc))
	var fe *portal.FormError
	if !errors.As(err, &fe) || fe.Field != "description" {
		t.Fatalf("got %v, want description required", err)
	}
}
