// internal/game/engine.go
//
// Game engine for a single duel session.
// Responsibilities:
//   - Start: draw two distinct songs, fetch both concurrently, reset the run.
//   - Choose: judge the guess (>= wins, ties accept either side), then either
//     draw a challenger against the winner or end the run.
//   - Snapshot: hand out a read-only copy of the state.
//
// Notes:
//   - All mutation happens under the session mutex, so two requests against
//     the same session run one after the other.
//   - A failed lookup never leaves an item with an unknown view count in the
//     pair; the session moves to PhaseFailed and keeps the error text.

package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	randv2 "math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/robalobadob/viewduel/internal/catalog"
)

// Session is one player's run from start to game over.
type Session struct {
	ID string

	mu      sync.Mutex
	cat     *catalog.Catalog
	fetch   Fetcher
	rng     catalog.Rand
	runRand func() catalog.Rand
	printer *message.Printer
	now     func() time.Time

	pair     []ScoredItem
	score    int
	phase    Phase
	message  string
	err      string
	round    int
	lastSeen atomic.Int64 // unix nanos; read without mu
}

// Option configures a Session.
type Option func(*Session)

// WithRand replaces the random source used for draws.
func WithRand(r catalog.Rand) Option { return func(s *Session) { s.rng = r } }

// WithRunRand makes every Start draw from a fresh source returned by fn,
// so each run replays the same sequence when fn is deterministic.
func WithRunRand(fn func() catalog.Rand) Option { return func(s *Session) { s.runRand = fn } }

// WithLocale sets the locale used to format view counts in messages.
func WithLocale(tag language.Tag) Option {
	return func(s *Session) { s.printer = message.NewPrinter(tag) }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// New creates an idle session.
func New(cat *catalog.Catalog, f Fetcher, opts ...Option) *Session {
	s := &Session{
		ID:      randomID(),
		cat:     cat,
		fetch:   f,
		rng:     sharedRand{},
		printer: message.NewPrinter(language.English),
		now:     time.Now,
		phase:   PhaseIdle,
	}
	for _, o := range opts {
		o(s)
	}
	s.touch()
	return s
}

// Start begins a fresh run. It is accepted in every phase.
//
// Both lookups run concurrently and must both succeed; on failure the
// session moves to PhaseFailed with an empty pair and the error is returned.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.runRand != nil {
		s.rng = s.runRand()
	}

	entries := s.cat.Pair(s.rng)
	var items [2]ScoredItem
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range entries {
		g.Go(func() error {
			it, err := s.fetch.Fetch(gctx, e)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrFetch, e.ID, err)
			}
			items[i] = it
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.pair, s.score, s.round, s.message = nil, 0, 0, ""
		s.phase, s.err = PhaseFailed, err.Error()
		return err
	}

	s.pair = []ScoredItem{items[0], items[1]}
	s.score, s.round = 0, 1
	s.phase, s.message, s.err = PhasePlaying, "", ""
	return nil
}

// Choose judges a guess for the item with the given id.
//
// It reports whether the guess was correct. A correct guess draws and fetches
// a challenger; if that lookup fails the point is kept, the pair is frozen,
// the session moves to PhaseFailed and the error is returned with correct=true.
func (s *Session) Choose(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.phase != PhasePlaying {
		return false, ErrNotPlaying
	}
	a, b := s.pair[0], s.pair[1]
	var correct bool
	switch id {
	case a.ID:
		correct = a.Views >= b.Views
	case b.ID:
		correct = b.Views >= a.Views
	default:
		return false, ErrNotInPair
	}

	winner, loser := Rank(a, b)
	if !correct {
		s.phase = PhaseOver
		s.message = s.printer.Sprintf("Wrong. %q had %d views and %q %d.",
			winner.Title, winner.Views, loser.Title, loser.Views)
		return false, nil
	}

	s.score++
	s.message = s.printer.Sprintf("Correct! %q has %d views vs %d.",
		winner.Title, winner.Views, loser.Views)

	next := s.cat.Challenger(s.rng, winner.ID)
	challenger, err := s.fetch.Fetch(ctx, next)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrFetch, next.ID, err)
		s.phase, s.err = PhaseFailed, err.Error()
		return true, err
	}
	s.pair = []ScoredItem{winner, challenger}
	s.round++
	return true, nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:       s.ID,
		Pair:     append([]ScoredItem{}, s.pair...),
		Score:    s.score,
		GameOver: s.phase == PhaseOver || s.phase == PhaseFailed,
		Message:  s.message,
		Phase:    s.phase,
		Error:    s.err,
		Round:    s.round,
	}
}

// LastSeen reports when an action last touched the session.
// It does not wait for an action in flight.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch() { s.lastSeen.Store(s.now().UnixNano()) }

// Rank orders two items by views. On a tie a wins.
func Rank(a, b ScoredItem) (winner, loser ScoredItem) {
	if a.Views >= b.Views {
		return a, b
	}
	return b, a
}

// sharedRand draws from the goroutine-safe top-level math/rand/v2 source.
type sharedRand struct{}

func (sharedRand) IntN(n int) int { return randv2.IntN(n) }

// randomID returns a compact 16-hex-char identifier.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
