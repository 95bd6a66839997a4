// Package feed pushes full snapshots of the exam collection to subscribers
// whenever it changes. Subscribers never receive diffs: every callback
// carries the complete, ordered list and replaces whatever they held.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mind-engage/examdesk/internal/exam"
)

const CollectionExams = "exams"

// Snapshot is shared between subscribers and must be treated as read-only.
type Snapshot struct {
	Collection string
	Seq        uint64
	Exams      []exam.Exam
	At         time.Time
}

// Source delivers snapshots of a collection until unsubscribe is called.
type Source interface {
	Subscribe(collection string, onChange func(Snapshot), onError func(error)) (unsubscribe func())
}

// Notifier is told that a collection was written.
type Notifier interface {
	Changed(ctx context.Context, collection string)
}

// Broker loads the exam list from the store after each change and fans the
// snapshot out to every subscriber. Changes that arrive while a load is in
// flight collapse into one follow-up load, and a slow subscriber only ever
// sees the newest snapshot.
type Broker struct {
	store exam.Store
	log   *slog.Logger

	kick chan struct{}

	mu   sync.Mutex
	subs map[*subscription]struct{}
	last *Snapshot
	seq  uint64
}

func NewBroker(store exam.Store, log *slog.Logger) *Broker {
	if log == nil {
		log = slog.Default()
	}
	return &Broker{
		store: store,
		log:   log.With("component", "feed"),
		kick:  make(chan struct{}, 1),
		subs:  map[*subscription]struct{}{},
	}
}

// Run loads and publishes snapshots until ctx is done.
func (b *Broker) Run(ctx context.Context) error {
	b.Changed(ctx, CollectionExams)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.kick:
			b.refresh(ctx)
		}
	}
}

// Changed schedules a fresh snapshot. It never blocks.
func (b *Broker) Changed(_ context.Context, collection string) {
	if collection != CollectionExams {
		return
	}
	select {
	case b.kick <- struct{}{}:
	default:
	}
}

func (b *Broker) refresh(ctx context.Context) {
	exams, err := b.store.ListExams(ctx)
	if err != nil {
		b.log.Error("load exams snapshot", "err", err)
		b.mu.Lock()
		subs := b.subscribers()
		b.mu.Unlock()
		for _, s := range subs {
			s.offer(nil, err)
		}
		return
	}

	b.mu.Lock()
	b.seq++
	snap := &Snapshot{Collection: CollectionExams, Seq: b.seq, Exams: exams, At: time.Now().UTC()}
	b.last = snap
	subs := b.subscribers()
	b.mu.Unlock()

	b.log.Debug("snapshot published", "seq", snap.Seq, "exams", len(exams), "subscribers", len(subs))
	for _, s := range subs {
		s.offer(snap, nil)
	}
}

func (b *Broker) subscribers() []*subscription {
	out := make([]*subscription, 0, len(b.subs))
	for s := range b.subs {
		out = append(out, s)
	}
	return out
}

// Subscribe registers callbacks for a collection. The current snapshot, when
// one exists, is delivered right away; later snapshots follow each change.
// Callbacks for one subscription run sequentially on their own goroutine.
func (b *Broker) Subscribe(collection string, onChange func(Snapshot), onError func(error)) func() {
	s := &subscription{
		onChange: onChange,
		onError:  onError,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	if collection != CollectionExams {
		go s.fail(fmt.Errorf("feed: unknown collection %q", collection))
		return func() {}
	}

	b.mu.Lock()
	b.subs[s] = struct{}{}
	last := b.last
	b.mu.Unlock()

	go s.loop()
	if last != nil {
		s.offer(last, nil)
	} else {
		b.Changed(context.Background(), collection)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, s)
			b.mu.Unlock()
			close(s.done)
		})
	}
}

// Subscribers reports how many subscriptions are open.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

type subscription struct {
	onChange func(Snapshot)
	onError  func(error)

	mu      sync.Mutex
	pending *Snapshot
	err     error
	latest  uint64 // newest Seq offered so far

	wake chan struct{}
	done chan struct{}
}

func (s *subscription) offer(snap *Snapshot, err error) {
	s.mu.Lock()
	if snap != nil {
		if snap.Seq <= s.latest {
			s.mu.Unlock()
			return
		}
		s.latest = snap.Seq
	}
	s.pending, s.err = snap, err
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) loop() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		s.mu.Lock()
		snap, err := s.pending, s.err
		s.pending, s.err = nil, nil
		s.mu.Unlock()

		select {
		case <-s.done:
			return
		default:
		}

		switch {
		case err != nil:
			if s.onError != nil {
				s.onError(err)
			}
		case snap != nil:
			if s.onChange != nil {
				s.onChange(*snap)
			}
		}
	}
}

func (s *subscription) fail(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}
