package cmd

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/viewduel/internal/catalog"
	"github.com/robalobadob/viewduel/internal/config"
	"github.com/robalobadob/viewduel/internal/tui"
)

func newPlayCmd(cfg *config.Config) *cobra.Command {
	var dailyRun bool

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		Example: `  viewduel play
  viewduel play --daily --locale de`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(cfg.Catalog)
			if err != nil {
				return err
			}
			fetch, err := newFetcher(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			newSession := sessionFactory(cat, fetch, cfg)
			if dailyRun {
				newSession = dailyFactory(cat, fetch, cfg)
			}

			// the terminal belongs to the UI until it exits
			restore := log.Logger
			log.Logger = log.Logger.Output(io.Discard)
			snap, err := tui.Run(cmd.Context(), newSession(), cfg.LocaleTag())
			log.Logger = restore
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Final score: %d\n", snap.Score)
			return err
		},
	}

	cmd.Flags().BoolVar(&dailyRun, "daily", false, "play today's daily duel")

	return cmd
}
