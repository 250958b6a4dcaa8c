// Package statstest provides fetchers with pinned statistics for tests.
package statstest

import (
	"context"
	"fmt"

	"github.com/robalobadob/viewduel/internal/catalog"
	"github.com/robalobadob/viewduel/internal/game"
	"github.com/robalobadob/viewduel/internal/stats"
)

// Static serves fixed view counts without any network access.
// Ids missing from the map are reported as stats.ErrNotFound.
type Static map[string]uint64

// Fetch implements game.Fetcher.
func (s Static) Fetch(_ context.Context, e catalog.Entry) (game.ScoredItem, error) {
	v, ok := s[e.ID]
	if !ok {
		return game.ScoredItem{}, fmt.Errorf("%w: %s", stats.ErrNotFound, e.ID)
	}
	return game.ScoredItem{ID: e.ID, Title: e.Title, Views: v}, nil
}
