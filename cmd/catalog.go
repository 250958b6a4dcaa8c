package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/robalobadob/viewduel/internal/catalog"
	"github.com/robalobadob/viewduel/internal/config"
)

func newCatalogCmd(cfg *config.Config) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the songs in play",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(cfg.Catalog)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cat.Entries())
			}
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				Headers("ID", "TITLE")
			for _, e := range cat.Entries() {
				t.Row(e.ID, e.Title)
			}
			_, err = fmt.Fprintln(out, t)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}
