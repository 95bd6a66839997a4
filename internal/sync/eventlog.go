// Package syncx records domain events in the event_log table and, when a
// broker is configured, forwards them to other services.
package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mind-engage/examdesk/internal/db"
)

const (
	TypeExamSaved           = "exam.saved"
	TypeExamDeleted         = "exam.deleted"
	TypeExamImported        = "exam.imported"
	TypeRegistrationCreated = "registration.created"
	TypeAttemptSubmitted    = "attempt.submitted"
)

type Event struct {
	Offset    int64           `json:"offset"`
	SiteID    string          `json:"siteId"`
	Type      string          `json:"type"`
	Key       string          `json:"key"`
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"createdAt"`
}

type EventRepo struct {
	db     *sql.DB
	driver db.Driver
}

func NewEventRepo(conn *sql.DB, driver db.Driver) *EventRepo {
	return &EventRepo{db: conn, driver: driver}
}

// Append stores e and returns it with its log offset filled in.
func (r *EventRepo) Append(ctx context.Context, e Event) (Event, error) {
	if e.SiteID == "" {
		e.SiteID = "local"
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	err := r.db.QueryRowContext(ctx, db.Rebind(r.driver,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES (?,?,?,?,?) RETURNING seq`),
		e.SiteID, e.Type, e.Key, string(e.Data), e.CreatedAt).Scan(&e.Offset)
	if err != nil {
		return Event{}, err
	}
	return e, nil
}

// Since lists events after offset in log order.
func (r *EventRepo) Since(ctx context.Context, offset int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, db.Rebind(r.driver,
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log
		 WHERE seq > ? ORDER BY seq LIMIT ?`), offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		var data string
		if err := rows.Scan(&e.Offset, &e.SiteID, &e.Type, &e.Key, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Publisher forwards a stored event. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Recorder appends events to the log and then hands them to the publisher.
// Recording never fails the write that triggered it; problems are logged.
type Recorder struct {
	repo *EventRepo
	pub  Publisher
	log  *slog.Logger
}

func NewRecorder(repo *EventRepo, pub Publisher, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{repo: repo, pub: pub, log: log.With("component", "events")}
}

func (r *Recorder) Record(ctx context.Context, typ, key string, data any) {
	if r == nil {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		r.log.Error("encode event", "type", typ, "key", key, "err", err)
		return
	}
	e, err := r.repo.Append(ctx, Event{Type: typ, Key: key, Data: raw})
	if err != nil {
		r.log.Error("append event", "type", typ, "key", key, "err", err)
		return
	}
	if r.pub == nil {
		return
	}
	if err := r.pub.Publish(ctx, e); err != nil {
		r.log.Warn("publish event", "type", typ, "offset", e.Offset, "err", fmt.Errorf("amqp: %w", err))
	}
}
