// internal/store/memory.go
//
// In-memory implementation of the session Store.
// Each browser gets its own *game.Session; nothing is shared between them
// and nothing survives a restart.
//
// Characteristics:
//   - Sessions keyed by Session.ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Idle sessions are dropped by Reap, which the server calls on a ticker.
//     Reap scans a copy, so a session busy with a lookup never holds up Get.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/viewduel/internal/game"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("store: session not found")

// Store defines the interface for holding live sessions.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *game.Session) error

	// Get retrieves a session by ID.
	// Returns ErrNotFound if the session is unknown or was reaped.
	Get(ctx context.Context, id string) (*game.Session, error)

	// Reap drops sessions idle for longer than idle and reports how many went.
	Reap(ctx context.Context, idle time.Duration) int

	// Len reports the number of live sessions.
	Len() int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex             // guards sessions
	sessions map[string]*game.Session // keyed by Session.ID
	now      func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return newMemory(time.Now)
}

func newMemory(now func() time.Time) *memory {
	return &memory{sessions: make(map[string]*game.Session), now: now}
}

func (m *memory) Save(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Reap(ctx context.Context, idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.RLock()
	live := make(map[string]*game.Session, len(m.sessions))
	for id, s := range m.sessions {
		live[id] = s
	}
	m.mu.RUnlock()

	var stale []string
	for id, s := range live {
		if s.LastSeen().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range stale {
		// skip ids replaced since the scan
		if s, ok := m.sessions[id]; ok && s == live[id] {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RunReaper calls Reap every interval until ctx is done.
func RunReaper(ctx context.Context, st Store, idle, interval time.Duration, onReap func(n int)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := st.Reap(ctx, idle); n > 0 && onReap != nil {
				onReap(n)
			}
		}
	}
}
