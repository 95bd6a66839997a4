package exam

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu            sync.RWMutex
	exams         map[string]Exam
	registrations []Registration
	attempts      []Attempt
	now           func() time.Time
}

// NewInMemoryStore returns a Store kept entirely in process memory. It is
// used by tests and for throwaway local runs.
func NewInMemoryStore() Store {
	return &memoryStore{
		exams: map[string]Exam{},
		now:   time.Now,
	}
}

func (m *memoryStore) ListExams(ctx context.Context) ([]Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Exam, 0, len(m.exams))
	for _, e := range m.exams {
		out = append(out, e)
	}
	SortByDate(out)
	return out, nil
}

func (m *memoryStore) GetExam(ctx context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, ErrNotFound
	}
	return e, nil
}

func (m *memoryStore) CreateExam(ctx context.Context, e Exam) (Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UTC().Truncate(time.Second)
	e.ID = uuid.NewString()
	e.CreatedAt, e.UpdatedAt = now, now
	if e.Questions == nil {
		e.Questions = []RawQuestion{}
	}
	m.exams[e.ID] = e
	return e, nil
}

func (m *memoryStore) UpdateExam(ctx context.Context, e Exam) (Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.exams[e.ID]
	if !ok {
		return Exam{}, ErrNotFound
	}
	e.CreatedAt = prev.CreatedAt
	e.UpdatedAt = m.now().UTC().Truncate(time.Second)
	if e.Questions == nil {
		e.Questions = []RawQuestion{}
	}
	m.exams[e.ID] = e
	return e, nil
}

func (m *memoryStore) DeleteExam(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[id]; !ok {
		return ErrNotFound
	}
	delete(m.exams, id)
	return nil
}

func (m *memoryStore) CreateRegistration(ctx context.Context, r Registration) (Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.NewString()
	r.RegisteredAt = m.now().UTC().Truncate(time.Second)
	m.registrations = append(m.registrations, r)
	return r, nil
}

func (m *memoryStore) ListRegistrations(ctx context.Context, opts ListOpts) ([]Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Registration
	for i := len(m.registrations) - 1; i >= 0; i-- {
		if r := m.registrations[i]; opts.ExamID == "" || r.ExamID == opts.ExamID {
			out = append(out, r)
		}
	}
	return page(out, opts), nil
}

func (m *memoryStore) CreateAttempt(ctx context.Context, a Attempt) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.NewString()
	a.SubmittedAt = m.now().UTC().Truncate(time.Second)
	m.attempts = append(m.attempts, a)
	return a, nil
}

func (m *memoryStore) ListAttempts(ctx context.Context, opts ListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Attempt
	for i := len(m.attempts) - 1; i >= 0; i-- {
		if a := m.attempts[i]; opts.ExamID == "" || a.ExamID == opts.ExamID {
			out = append(out, a)
		}
	}
	return page(out, opts), nil
}

// SortByDate orders exams newest date first with undated exams last; ties
// fall back to creation time, newest first.
func SortByDate(list []Exam) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch {
		case a.Date == nil && b.Date == nil:
			return a.CreatedAt.After(b.CreatedAt)
		case a.Date == nil:
			return false
		case b.Date == nil:
			return true
		case !a.Date.Equal(*b.Date):
			return a.Date.After(*b.Date)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func page[T any](in []T, opts ListOpts) []T {
	if opts.Offset >= len(in) {
		return []T{}
	}
	in = in[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(in) {
		in = in[:opts.Limit]
	}
	return in
}
