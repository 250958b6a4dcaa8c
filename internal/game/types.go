// internal/game/types.go
//
// Core type definitions for the view-count duel.
// Defines:
//   - ScoredItem: a catalog entry plus its fetched statistics.
//   - Phase: coarse session state (idle/playing/over/failed).
//   - Snapshot: read-only copy of a session handed to presentation layers.
//   - Fetcher: resolves a catalog entry to a ScoredItem.

package game

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/viewduel/internal/catalog"
)

// Phase is the coarse state of a session.
type Phase string

const (
	PhaseIdle    Phase = "idle"    // no pair yet
	PhasePlaying Phase = "playing" // pair populated, waiting for a choice
	PhaseOver    Phase = "over"    // wrong guess, pair frozen
	PhaseFailed  Phase = "failed"  // a statistics lookup failed, pair frozen
)

var (
	ErrNotPlaying = errors.New("game: session is not playing")
	ErrNotInPair  = errors.New("game: item is not in the current pair")
	ErrFetch      = errors.New("game: statistics lookup failed")
)

// ScoredItem is a catalog entry with its view count.
// Thumbnail and PublishedAt are only set when the fetcher requests snippets.
type ScoredItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Views       uint64    `json:"views"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	PublishedAt time.Time `json:"publishedAt,omitzero"`
}

// Snapshot is a copy of session state; mutating it has no effect on the session.
type Snapshot struct {
	ID       string       `json:"id"`
	Pair     []ScoredItem `json:"pair"`
	Score    int          `json:"score"`
	GameOver bool         `json:"gameOver"`
	Message  string       `json:"message"`
	Phase    Phase        `json:"phase"`
	Error    string       `json:"error,omitempty"`
	Round    int          `json:"round"`
}

// Fetcher resolves one catalog entry to its statistics with a single lookup.
type Fetcher interface {
	Fetch(ctx context.Context, e catalog.Entry) (ScoredItem, error)
}
