package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/mind-engage/examdesk/internal/exam"
	"github.com/mind-engage/examdesk/internal/feed"
)

// AllSubjects disables the subject filter.
const AllSubjects = "all"

var ErrCatalogUnavailable = errors.New("could not load exams")

// Catalog is the cached exam listing. Every snapshot from the feed
// replaces the whole cache; nothing is merged or patched in place.
type Catalog struct {
	log *slog.Logger

	mu    sync.RWMutex
	exams []exam.Exam
	seq   uint64
	err   error

	readyOnce sync.Once
	ready     chan struct{}

	unsubscribe func()
}

func NewCatalog(src feed.Source, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	c := &Catalog{log: log.With("component", "catalog"), ready: make(chan struct{})}
	c.unsubscribe = src.Subscribe(feed.CollectionExams, c.onSnapshot, c.onError)
	return c
}

func (c *Catalog) Close() { c.unsubscribe() }

func (c *Catalog) onSnapshot(s feed.Snapshot) {
	c.mu.Lock()
	c.exams = s.Exams
	c.seq = s.Seq
	c.err = nil
	c.mu.Unlock()
	c.readyOnce.Do(func() { close(c.ready) })
}

func (c *Catalog) onError(err error) {
	c.log.Error("exam feed failed", "err", err)
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
	c.readyOnce.Do(func() { close(c.ready) })
}

// Ready is closed once the first snapshot or error has arrived.
func (c *Catalog) Ready() <-chan struct{} { return c.ready }

func (c *Catalog) current(ctx context.Context) ([]exam.Exam, error) {
	select {
	case <-c.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, c.err)
	}
	return c.exams, nil
}

// Search returns cached exams whose title, description or subject contain
// q (case-insensitive) and whose subject equals subject. An empty q or
// subject "all" (or "") matches everything.
func (c *Catalog) Search(ctx context.Context, q, subject string) ([]exam.Exam, error) {
	list, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	q = strings.ToLower(strings.TrimSpace(q))
	subject = strings.TrimSpace(subject)
	out := make([]exam.Exam, 0, len(list))
	for _, e := range list {
		if subject != "" && subject != AllSubjects && e.Subject != subject {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(e.Title), q) &&
			!strings.Contains(strings.ToLower(e.Description), q) &&
			!strings.Contains(strings.ToLower(e.Subject), q) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Subjects lists the distinct non-empty subjects in sorted order.
func (c *Catalog) Subjects(ctx context.Context) ([]string, error) {
	list, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, e := range list {
		if e.Subject == "" {
			continue
		}
		if _, ok := seen[e.Subject]; ok {
			continue
		}
		seen[e.Subject] = struct{}{}
		out = append(out, e.Subject)
	}
	sort.Strings(out)
	return out, nil
}

// Seq is the sequence number of the snapshot currently held.
func (c *Catalog) Seq() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seq
}
