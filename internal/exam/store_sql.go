package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/examdesk/internal/db"
)

type SQLStore struct {
	db     *sql.DB
	driver db.Driver // "sqlite" or "postgres"
	now    func() time.Time
}

func NewSQLStore(conn *sql.DB, driver db.Driver) *SQLStore {
	return &SQLStore{db: conn, driver: driver, now: time.Now}
}

func (s *SQLStore) q(query string) string { return db.Rebind(s.driver, query) }

const examColumns = `id,title,subject,exam_date,duration,description,download_link,questions_json,created_at,updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExam(row rowScanner) (Exam, error) {
	var (
		e      Exam
		date   sql.NullInt64
		qjson  string
		ca, ua int64
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Subject, &date, &e.Duration, &e.Description,
		&e.DownloadLink, &qjson, &ca, &ua); err != nil {
		return Exam{}, err
	}
	if date.Valid {
		t := time.Unix(date.Int64, 0).UTC()
		e.Date = &t
	}
	e.CreatedAt = time.Unix(ca, 0).UTC()
	e.UpdatedAt = time.Unix(ua, 0).UTC()
	e.Questions = decodeQuestions(qjson)
	return e, nil
}

// decodeQuestions reads the stored question column element by element. An
// element that is not an object reads as an empty question, which the
// validity predicate later drops; a column that is not an array at all reads
// as no questions rather than failing the listing.
func decodeQuestions(qjson string) []RawQuestion {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(qjson), &items); err != nil {
		return []RawQuestion{}
	}
	out := make([]RawQuestion, len(items))
	for i, it := range items {
		if err := json.Unmarshal(it, &out[i]); err != nil {
			out[i] = RawQuestion{}
		}
	}
	return out
}

func (s *SQLStore) ListExams(ctx context.Context) ([]Exam, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+examColumns+` FROM exams
		ORDER BY CASE WHEN exam_date IS NULL THEN 1 ELSE 0 END, exam_date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()
	out := []Exam{}
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+examColumns+` FROM exams WHERE id=?`), id)
	e, err := scanExam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Exam{}, ErrNotFound
	}
	return e, err
}

func (s *SQLStore) CreateExam(ctx context.Context, e Exam) (Exam, error) {
	now := s.now().UTC().Truncate(time.Second)
	e.ID = uuid.NewString()
	e.CreatedAt, e.UpdatedAt = now, now
	if e.Questions == nil {
		e.Questions = []RawQuestion{}
	}
	qj, err := json.Marshal(e.Questions)
	if err != nil {
		return Exam{}, err
	}
	_, err = s.db.ExecContext(ctx, s.q(`INSERT INTO exams (`+examColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?)`),
		e.ID, e.Title, e.Subject, unixOrNull(e.Date), e.Duration, e.Description,
		e.DownloadLink, string(qj), now.Unix(), now.Unix())
	if err != nil {
		return Exam{}, fmt.Errorf("create exam: %w", err)
	}
	return e, nil
}

func (s *SQLStore) UpdateExam(ctx context.Context, e Exam) (Exam, error) {
	if e.Questions == nil {
		e.Questions = []RawQuestion{}
	}
	qj, err := json.Marshal(e.Questions)
	if err != nil {
		return Exam{}, err
	}
	now := s.now().UTC().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE exams SET title=?, subject=?, exam_date=?, duration=?,
		description=?, download_link=?, questions_json=?, updated_at=? WHERE id=?`),
		e.Title, e.Subject, unixOrNull(e.Date), e.Duration, e.Description,
		e.DownloadLink, string(qj), now.Unix(), e.ID)
	if err != nil {
		return Exam{}, fmt.Errorf("update exam: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Exam{}, ErrNotFound
	}
	return s.GetExam(ctx, e.ID)
}

func (s *SQLStore) DeleteExam(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM exams WHERE id=?`), id)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) CreateRegistration(ctx context.Context, r Registration) (Registration, error) {
	r.ID = uuid.NewString()
	r.RegisteredAt = s.now().UTC().Truncate(time.Second)
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO registrations
		(id,exam_id,exam_title,full_name,email,phone,registered_at) VALUES (?,?,?,?,?,?,?)`),
		r.ID, r.ExamID, r.ExamTitle, r.FullName, r.Email, r.Phone, r.RegisteredAt.Unix())
	if err != nil {
		return Registration{}, fmt.Errorf("create registration: %w", err)
	}
	return r, nil
}

func (s *SQLStore) ListRegistrations(ctx context.Context, opts ListOpts) ([]Registration, error) {
	query, args := listQuery(`SELECT id,exam_id,exam_title,full_name,email,phone,registered_at
		FROM registrations`, "registered_at", opts)
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()
	out := []Registration{}
	for rows.Next() {
		var r Registration
		var at int64
		if err := rows.Scan(&r.ID, &r.ExamID, &r.ExamTitle, &r.FullName, &r.Email, &r.Phone, &at); err != nil {
			return nil, err
		}
		r.RegisteredAt = time.Unix(at, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) CreateAttempt(ctx context.Context, a Attempt) (Attempt, error) {
	a.ID = uuid.NewString()
	a.SubmittedAt = s.now().UTC().Truncate(time.Second)
	if a.Answers == nil {
		a.Answers = []AnswerRecord{}
	}
	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return Attempt{}, err
	}
	_, err = s.db.ExecContext(ctx, s.q(`INSERT INTO attempts
		(id,exam_id,exam_title,candidate_name,candidate_email,score,total,answers_json,submitted_at)
		VALUES (?,?,?,?,?,?,?,?,?)`),
		a.ID, a.ExamID, a.ExamTitle, a.CandidateName, a.CandidateEmail, a.Score, a.Total,
		string(aj), a.SubmittedAt.Unix())
	if err != nil {
		return Attempt{}, fmt.Errorf("create attempt: %w", err)
	}
	return a, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts ListOpts) ([]Attempt, error) {
	query, args := listQuery(`SELECT id,exam_id,exam_title,candidate_name,candidate_email,score,total,answers_json,submitted_at
		FROM attempts`, "submitted_at", opts)
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		var a Attempt
		var aj string
		var at int64
		if err := rows.Scan(&a.ID, &a.ExamID, &a.ExamTitle, &a.CandidateName, &a.CandidateEmail,
			&a.Score, &a.Total, &aj, &at); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(aj), &a.Answers); err != nil {
			a.Answers = []AnswerRecord{}
		}
		a.SubmittedAt = time.Unix(at, 0).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func listQuery(base, orderCol string, opts ListOpts) (string, []any) {
	var args []any
	q := base
	if opts.ExamID != "" {
		q += ` WHERE exam_id=?`
		args = append(args, opts.ExamID)
	}
	q += ` ORDER BY ` + orderCol + ` DESC, id`
	limit := opts.Limit
	if limit <= 0 {
		limit = 500
	}
	q += ` LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)
	return q, args
}

func unixOrNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
