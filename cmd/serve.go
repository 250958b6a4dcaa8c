package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/viewduel/internal/catalog"
	"github.com/robalobadob/viewduel/internal/config"
	"github.com/robalobadob/viewduel/internal/httpserver"
	"github.com/robalobadob/viewduel/internal/store"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the game over HTTP",
		Long: `Starts the HTTP server: a browser page at "/", the JSON game API under
/game and the daily duel under /daily.

Each browser keeps its own session through a cookie. Sessions idle for
longer than --session-timeout are dropped.`,
		Example: `  # Serve on the default port with live YouTube statistics
  YOUTUBE_API_KEY=... viewduel serve

  # Serve on another port without the daily duel
  viewduel serve --port 8080 --no-daily`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateServe(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	config.RegisterServe(cmd.Flags(), cfg)

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return err
	}
	fetch, err := newFetcher(ctx, cfg)
	if err != nil {
		return err
	}

	st := store.NewMemoryStore()
	sessions := httpserver.Sessions{Free: sessionFactory(cat, fetch, cfg)}
	if !cfg.NoDaily {
		sessions.Daily = dailyFactory(cat, fetch, cfg)
	}
	srv := httpserver.New(st, cat, sessions, httpserver.Options{
		ClientOrigin:   cfg.ClientOrigin,
		RequestTimeout: cfg.RequestTimeout,
		ShareURL:       cfg.ShareURL(),
		SecureCookies:  cfg.SecureCookies,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go store.RunReaper(ctx, st, cfg.SessionTimeout, reapInterval(cfg.SessionTimeout), func(n int) {
		log.Info().Int("reaped", n).Int("live", st.Len()).Msg("dropped idle sessions")
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       10 * time.Minute,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Int("songs", cat.Len()).
			Bool("daily", sessions.Daily != nil).
			Msg("viewduel listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for context cancellation (Ctrl+C) or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
			return err
		}
		log.Info().Msg("server stopped")
		return nil
	case err := <-serverErr:
		return err
	}
}

// reapInterval checks a few times per timeout, but at most once a second.
func reapInterval(idle time.Duration) time.Duration {
	return max(idle/4, time.Second)
}
