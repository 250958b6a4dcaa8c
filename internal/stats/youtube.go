// internal/stats/youtube.go
//
// Statistics lookups against the YouTube Data API v3.
//
// One Fetch issues exactly one videos.list request for one id. The payload
// mode decides which parts are requested:
//   - PayloadRich:  snippet,statistics (title, thumbnail, publish date, views)
//   - PayloadViews: statistics only; the catalog title is kept.
//
// No caching, retries or rate limiting happen here.

package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/robalobadob/viewduel/internal/catalog"
	"github.com/robalobadob/viewduel/internal/game"
)

// Payload selects how much of each video is requested.
type Payload string

const (
	PayloadRich  Payload = "rich"
	PayloadViews Payload = "views"
)

var (
	// ErrNotFound means the upstream list came back empty for an id.
	ErrNotFound   = errors.New("stats: video not found")
	ErrNoAPIKey   = errors.New("stats: youtube api key is required")
	ErrNoStats    = errors.New("stats: video has no statistics")
	ErrBadPayload = errors.New("stats: unknown payload mode")
)

// ParsePayload validates a payload mode name.
func ParsePayload(s string) (Payload, error) {
	switch p := Payload(s); p {
	case PayloadRich, PayloadViews:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadPayload, s)
	}
}

// parts maps a payload mode to the videos.list part list.
func (p Payload) parts() []string {
	if p == PayloadViews {
		return []string{"statistics"}
	}
	return []string{"snippet", "statistics"}
}

// YouTube is a game.Fetcher backed by the YouTube Data API.
type YouTube struct {
	svc     *youtube.Service
	payload Payload
}

// NewYouTube builds a client authenticated with apiKey.
// Extra client options are appended (tests point the endpoint at httptest).
func NewYouTube(ctx context.Context, apiKey string, payload Payload, opts ...option.ClientOption) (*YouTube, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if _, err := ParsePayload(string(payload)); err != nil {
		return nil, err
	}
	all := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("stats: create youtube service: %w", err)
	}
	return &YouTube{svc: svc, payload: payload}, nil
}

// Fetch looks up one video and returns its scored form.
func (y *YouTube) Fetch(ctx context.Context, e catalog.Entry) (game.ScoredItem, error) {
	resp, err := y.svc.Videos.List(y.payload.parts()).Id(e.ID).Context(ctx).Do()
	if err != nil {
		log.Warn().Err(err).Str("videoId", e.ID).Msg("youtube videos.list")
		return game.ScoredItem{}, fmt.Errorf("stats: videos.list %s: %w", e.ID, err)
	}
	if len(resp.Items) == 0 {
		return game.ScoredItem{}, fmt.Errorf("%w: %s", ErrNotFound, e.ID)
	}
	return toItem(e, resp.Items[0], y.payload)
}

// toItem converts an API video into a ScoredItem.
func toItem(e catalog.Entry, v *youtube.Video, payload Payload) (game.ScoredItem, error) {
	if v.Statistics == nil {
		return game.ScoredItem{}, fmt.Errorf("%w: %s", ErrNoStats, e.ID)
	}
	it := game.ScoredItem{ID: e.ID, Title: e.Title, Views: v.Statistics.ViewCount}
	if payload != PayloadRich || v.Snippet == nil {
		return it, nil
	}

	if v.Snippet.Title != "" {
		it.Title = v.Snippet.Title
	}
	it.Thumbnail = thumbnailURL(v.Snippet.Thumbnails)
	if v.Snippet.PublishedAt != "" {
		t, err := time.Parse(time.RFC3339, v.Snippet.PublishedAt)
		if err != nil {
			return game.ScoredItem{}, fmt.Errorf("stats: publishedAt for %s: %w", e.ID, err)
		}
		it.PublishedAt = t
	}
	return it, nil
}

// thumbnailURL prefers the high-resolution thumbnail.
func thumbnailURL(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*youtube.Thumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}
