package syncx

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/mind-engage/examdesk/internal/db"
)

func newRepo(t *testing.T) *EventRepo {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, "file:eventlog_"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewEventRepo(conn, db.DriverSQLite)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, e Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.err
}

func TestAppendAndSince(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	a, err := r.Append(ctx, Event{Type: TypeExamSaved, Key: "e1", Data: json.RawMessage(`{"title":"A"}`)})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	b, err := r.Append(ctx, Event{Type: TypeExamDeleted, Key: "e1", Data: json.RawMessage(`{}`)})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if a.Offset <= 0 || b.Offset <= a.Offset {
		t.Fatalf("offsets not increasing: %d, %d", a.Offset, b.Offset)
	}
	if a.SiteID != "local" || a.CreatedAt == 0 {
		t.Errorf("defaults not applied: %+v", a)
	}

	all, err := r.Since(ctx, 0, 0)
	if err != nil {
		t.Fatalf("since: %v", err)
	}
	if len(all) != 2 || all[0].Type != TypeExamSaved || string(all[0].Data) != `{"title":"A"}` {
		t.Fatalf("unexpected events: %+v", all)
	}
	tail, _ := r.Since(ctx, a.Offset, 10)
	if len(tail) != 1 || tail[0].Offset != b.Offset {
		t.Fatalf("unexpected tail: %+v", tail)
	}
}

func TestRecorderPublishesAfterAppend(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	pub := &fakePublisher{}
	rec := NewRecorder(r, pub, nil)

	rec.Record(ctx, TypeAttemptSubmitted, "att-1", map[string]any{"score": 2})
	if len(pub.events) != 1 || pub.events[0].Offset == 0 || pub.events[0].Key != "att-1" {
		t.Fatalf("unexpected published events: %+v", pub.events)
	}

	pub.err = errors.New("broker down")
	rec.Record(ctx, TypeAttemptSubmitted, "att-2", nil)
	stored, _ := r.Since(ctx, 0, 0)
	if len(stored) != 2 {
		t.Fatalf("publish failure must not lose the logged event, got %d", len(stored))
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	rec.Record(context.Background(), TypeExamSaved, "x", nil)
}
