package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mind-engage/examdesk/internal/exam"
)

type failingStore struct {
	exam.Store
	mu  sync.Mutex
	err error
}

func (f *failingStore) ListExams(ctx context.Context) ([]exam.Exam, error) {
	f.mu.Lock()
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Store.ListExams(ctx)
}

func (f *failingStore) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func startBroker(t *testing.T, store exam.Store) *Broker {
	t.Helper()
	b := NewBroker(store, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return b
}

func waitSnapshot(t *testing.T, ch <-chan Snapshot, match func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-ch:
			if match(s) {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestBrokerDeliversInitialAndFollowUpSnapshots(t *testing.T) {
	store := exam.NewInMemoryStore()
	ctx := context.Background()
	if _, err := store.CreateExam(ctx, exam.Exam{Title: "first"}); err != nil {
		t.Fatal(err)
	}
	b := startBroker(t, store)

	ch := make(chan Snapshot, 16)
	unsubscribe := b.Subscribe(CollectionExams, func(s Snapshot) { ch <- s }, func(err error) { t.Errorf("unexpected error: %v", err) })
	defer unsubscribe()

	waitSnapshot(t, ch, func(s Snapshot) bool { return len(s.Exams) == 1 })

	if _, err := store.CreateExam(ctx, exam.Exam{Title: "second"}); err != nil {
		t.Fatal(err)
	}
	b.Changed(ctx, CollectionExams)
	snap := waitSnapshot(t, ch, func(s Snapshot) bool { return len(s.Exams) == 2 })
	if snap.Collection != CollectionExams || snap.Seq == 0 {
		t.Errorf("unexpected snapshot header: %+v", snap)
	}
}

func TestBrokerIgnoresOtherCollections(t *testing.T) {
	b := startBroker(t, exam.NewInMemoryStore())
	errs := make(chan error, 1)
	unsubscribe := b.Subscribe("attempts", func(Snapshot) { t.Error("no snapshot expected") }, func(err error) { errs <- err })
	defer unsubscribe()
	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("nil error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected an error for an unknown collection")
	}
	if b.Subscribers() != 0 {
		t.Errorf("unknown collection should not register, got %d", b.Subscribers())
	}
}

func TestBrokerReportsLoadErrors(t *testing.T) {
	store := &failingStore{Store: exam.NewInMemoryStore()}
	b := startBroker(t, store)

	snaps := make(chan Snapshot, 16)
	errs := make(chan error, 16)
	unsubscribe := b.Subscribe(CollectionExams, func(s Snapshot) { snaps <- s }, func(err error) { errs <- err })
	defer unsubscribe()
	waitSnapshot(t, snaps, func(Snapshot) bool { return true })

	boom := errors.New("backend down")
	store.setErr(boom)
	b.Changed(context.Background(), CollectionExams)
	select {
	case err := <-errs:
		if !errors.Is(err, boom) {
			t.Fatalf("got %v, want %v", err, boom)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}

	store.setErr(nil)
	b.Changed(context.Background(), CollectionExams)
	waitSnapshot(t, snaps, func(Snapshot) bool { return true })
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := startBroker(t, exam.NewInMemoryStore())
	ch := make(chan Snapshot, 16)
	unsubscribe := b.Subscribe(CollectionExams, func(s Snapshot) { ch <- s }, nil)
	waitSnapshot(t, ch, func(Snapshot) bool { return true })

	unsubscribe()
	unsubscribe() // idempotent
	if b.Subscribers() != 0 {
		t.Fatalf("subscribers = %d after unsubscribe", b.Subscribers())
	}
	// let any load that was already in flight settle
	time.Sleep(50 * time.Millisecond)
	for len(ch) > 0 {
		<-ch
	}
	b.Changed(context.Background(), CollectionExams)
	select {
	case s := <-ch:
		t.Fatalf("snapshot %d delivered after unsubscribe", s.Seq)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscriptionSkipsStaleSnapshots(t *testing.T) {
	got := make(chan Snapshot, 4)
	s := &subscription{
		onChange: func(snap Snapshot) { got <- snap },
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	s.offer(&Snapshot{Seq: 5}, nil)
	s.offer(&Snapshot{Seq: 3}, nil)
	go s.loop()
	defer close(s.done)

	select {
	case snap := <-got:
		if snap.Seq != 5 {
			t.Fatalf("delivered seq %d, want 5", snap.Seq)
		}
	case <-time.After(time.Second):
		t.Fatal("no delivery")
	}
}
