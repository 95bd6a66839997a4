// Package examimport loads many exams from one JSON document. The document
// is checked against a JSON schema first, then every exam goes through the
// same authoring rules as the form, and nothing is saved unless all of
// them pass.
package examimport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mind-engage/examdesk/internal/exam"
	"github.com/mind-engage/examdesk/internal/portal"
)

var ErrInvalidDocument = errors.New("invalid import document")

// SchemaError lists every schema violation found in the document.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidDocument.Error(), strings.Join(e.Problems, "; "))
}

func (e *SchemaError) Unwrap() error { return ErrInvalidDocument }

// ItemError is an authoring rule failure on one exam of the document.
type ItemError struct {
	Item int // zero-based
	Err  error
}

func (e *ItemError) Error() string { return fmt.Sprintf("exam %d: %v", e.Item+1, e.Err) }
func (e *ItemError) Unwrap() error { return e.Err }

type examDateChecker struct{}

func (examDateChecker) IsFormat(value any) bool {
	v, ok := value.(string)
	if !ok {
		return true
	}
	_, err := portal.ParseExamDate(v, time.UTC)
	return err == nil
}

func init() {
	gojsonschema.FormatCheckers.Add("exam-date", examDateChecker{})
}

const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["exams"],
  "additionalProperties": false,
  "properties": {
    "exams": {
      "type": "array",
      "minItems": 1,
      "maxItems": 500,
      "items": {
        "type": "object",
        "required": ["title", "subject", "date", "duration", "description"],
        "properties": {
          "title":        {"type": "string", "minLength": 1},
          "subject":      {"type": "string", "minLength": 1},
          "date":         {"type": "string", "format": "exam-date"},
          "duration":     {"type": "string", "minLength": 1},
          "description":  {"type": "string"},
          "downloadLink": {"type": "string", "anyOf": [{"maxLength": 0}, {"format": "uri"}]},
          "questions": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["text", "options"],
              "properties": {
                "text":         {"type": "string"},
                "options":      {"type": "array", "items": {"type": "string"}},
                "correctIndex": {"type": "number"},
                "points":       {"type": "number"}
              }
            }
          }
        }
      }
    }
  }
}`

var schema = mustSchema()

func mustSchema() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("examimport: bad schema: %v", err))
	}
	return s
}

type document struct {
	Exams []portal.ExamForm `json:"exams"`
}

// Parse checks doc against the import schema and decodes it.
func Parse(doc []byte) ([]portal.ExamForm, error) {
	res, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, &SchemaError{Problems: []string{err.Error()}}
	}
	if !res.Valid() {
		problems := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			problems = append(problems, e.String())
		}
		return nil, &SchemaError{Problems: problems}
	}
	var d document
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, &SchemaError{Problems: []string{err.Error()}}
	}
	return d.Exams, nil
}

type Saver interface {
	CheckExam(f portal.ExamForm) error
	SaveExam(ctx context.Context, id string, f portal.ExamForm) (exam.Exam, error)
}

type Importer struct {
	svc Saver
}

func New(svc Saver) *Importer { return &Importer{svc: svc} }

// Import validates the whole document before saving the first exam. A
// store failure part way through returns the exams saved so far.
func (im *Importer) Import(ctx context.Context, doc []byte) ([]exam.Exam, error) {
	forms, err := Parse(doc)
	if err != nil {
		return nil, err
	}
	for i, f := range forms {
		if err := im.svc.CheckExam(f); err != nil {
			return nil, &ItemError{Item: i, Err: err}
		}
	}
	saved := make([]exam.Exam, 0, len(forms))
	for i, f := range forms {
		e, err := im.svc.SaveExam(ctx, "", f)
		if err != nil {
			return saved, &ItemError{Item: i, Err: err}
		}
		saved = append(saved, e)
	}
	return saved, nil
}
