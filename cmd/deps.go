package cmd

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/robalobadob/viewduel/internal/catalog"
	"github.com/robalobadob/viewduel/internal/config"
	"github.com/robalobadob/viewduel/internal/daily"
	"github.com/robalobadob/viewduel/internal/game"
	"github.com/robalobadob/viewduel/internal/stats"
)

// newFetcher returns the statistics source selected by cfg.
func newFetcher(ctx context.Context, cfg *config.Config) (game.Fetcher, error) {
	payload, err := stats.ParsePayload(cfg.Payload)
	if err != nil {
		return nil, err
	}
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		log.Info().Str("endpoint", cfg.Endpoint).Msg("using custom youtube endpoint")
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	return stats.NewYouTube(ctx, cfg.APIKey, payload, opts...)
}

// sessionFactory builds free-play sessions.
func sessionFactory(cat *catalog.Catalog, f game.Fetcher, cfg *config.Config) func() *game.Session {
	tag := cfg.LocaleTag()
	return func() *game.Session {
		return game.New(cat, f, game.WithLocale(tag))
	}
}

// dailyFactory builds sessions that replay the current UTC day's draws.
func dailyFactory(cat *catalog.Catalog, f game.Fetcher, cfg *config.Config) func() *game.Session {
	tag, salt := cfg.LocaleTag(), cfg.DailySalt
	return func() *game.Session {
		return game.New(cat, f,
			game.WithLocale(tag),
			game.WithRunRand(func() catalog.Rand { return daily.NewRand(time.Now(), salt) }),
		)
	}
}
