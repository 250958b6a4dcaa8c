package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robalobadob/viewduel/internal/catalog"
	"github.com/robalobadob/viewduel/internal/game"
	"github.com/robalobadob/viewduel/internal/stats/statstest"
)

func newSession(t *testing.T, now func() time.Time) *game.Session {
	t.Helper()
	c, err := catalog.New([]catalog.Entry{{ID: "a"}, {ID: "b"}})
	if err != nil {
		t.Fatal(err)
	}
	return game.New(c, statstest.Static{"a": 1, "b": 2}, game.WithClock(now))
}

func TestSaveGet(t *testing.T) {
	st := NewMemoryStore()
	s := newSession(t, time.Now)
	if err := st.Save(context.Background(), s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := st.Get(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != s {
		t.Error("Expected the same session pointer back")
	}
	if _, err := st.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if st.Len() != 1 {
		t.Errorf("Expected 1 session, got %d", st.Len())
	}
}

func TestReapDropsIdleSessions(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	st := newMemory(clock)

	old := newSession(t, clock)
	_ = st.Save(context.Background(), old)

	now = now.Add(30 * time.Minute)
	fresh := newSession(t, clock)
	_ = st.Save(context.Background(), fresh)

	now = now.Add(45 * time.Minute)
	if n := st.Reap(context.Background(), time.Hour); n != 1 {
		t.Fatalf("Expected 1 reaped session, got %d", n)
	}
	if _, err := st.Get(context.Background(), old.ID); !errors.Is(err, ErrNotFound) {
		t.Error("Expected the idle session to be gone")
	}
	if _, err := st.Get(context.Background(), fresh.ID); err != nil {
		t.Errorf("Expected the recent session to stay, got %v", err)
	}
}

func TestRunReaperStopsOnCancel(t *testing.T) {
	st := newMemory(time.Now)
	_ = st.Save(context.Background(), newSession(t, func() time.Time { return time.Unix(0, 0) }))

	ctx, cancel := context.WithCancel(context.Background())
	reaped := make(chan int, 1)
	done := make(chan struct{})
	go func() {
		RunReaper(ctx, st, time.Minute, 5*time.Millisecond, func(n int) { reaped <- n })
		close(done)
	}()

	select {
	case n := <-reaped:
		if n != 1 {
			t.Errorf("Expected 1 reaped, got %d", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reaper never ran")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not stop")
	}
}

// blockingFetcher holds every lookup until release is closed.
type blockingFetcher struct {
	entered chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) Fetch(ctx context.Context, e catalog.Entry) (game.ScoredItem, error) {
	select {
	case f.entered <- struct{}{}:
	default:
	}
	select {
	case <-f.release:
	case <-ctx.Done():
		return game.ScoredItem{}, ctx.Err()
	}
	return game.ScoredItem{ID: e.ID, Title: e.Title, Views: 1}, nil
}

func TestReapDoesNotWaitForBusySession(t *testing.T) {
	c, err := catalog.New([]catalog.Entry{{ID: "a"}, {ID: "b"}})
	if err != nil {
		t.Fatal(err)
	}
	f := &blockingFetcher{entered: make(chan struct{}, 1), release: make(chan struct{})}
	defer close(f.release)

	st := newMemory(time.Now)
	busy := game.New(c, f)
	other := newSession(t, time.Now)
	_ = st.Save(context.Background(), busy)
	_ = st.Save(context.Background(), other)

	go func() { _ = busy.Start(context.Background()) }()
	select {
	case <-f.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("lookup never started")
	}

	done := make(chan error, 1)
	go func() {
		if n := st.Reap(context.Background(), time.Hour); n != 0 {
			t.Errorf("Expected nothing reaped, got %d", n)
		}
		_, err := st.Get(context.Background(), other.ID)
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Get: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Reap and Get blocked on a session with a lookup in flight")
	}
}
