package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/robalobadob/viewduel/internal/config"
)

func NewRootCmd() *cobra.Command {
	cfg := &config.Config{}

	cmd := &cobra.Command{
		Use:   "viewduel",
		Short: "Guess which of two songs has more YouTube views",
		Long: `viewduel is a higher-or-lower game over YouTube view counts.

Two songs are drawn from a catalog; pick the one with more views. Every
correct pick keeps the winner on screen against a fresh challenger. One
wrong pick ends the run.

Play it in the terminal (viewduel play) or serve it to browsers (viewduel serve).`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			config.Bind(cmd.Flags(), viper.New())
			if err := cfg.Validate(); err != nil {
				return err
			}
			return cfg.SetupLogging(cmd.ErrOrStderr())
		},
	}

	config.RegisterCommon(cmd.PersistentFlags(), cfg)

	cmd.AddCommand(
		newServeCmd(cfg),
		newPlayCmd(cfg),
		newLookupCmd(cfg),
		newCatalogCmd(cfg),
	)

	cmd.SilenceUsage = true

	return cmd
}
