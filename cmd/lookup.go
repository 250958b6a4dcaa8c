package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/message"

	"github.com/robalobadob/viewduel/internal/catalog"
	"github.com/robalobadob/viewduel/internal/config"
	"github.com/robalobadob/viewduel/internal/game"
)

const lookupConcurrency = 4

func newLookupCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup [video-id...]",
		Short: "Print current view counts",
		Long: `Fetches statistics for the given video ids, or for the whole catalog
when no ids are given. Lookups that fail are reported per row.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Load(cfg.Catalog)
			if err != nil {
				return err
			}
			fetch, err := newFetcher(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			entries := cat.Entries()
			if len(args) > 0 {
				entries = entries[:0]
				for _, id := range args {
					e, ok := cat.Lookup(id)
					if !ok {
						e = catalog.Entry{ID: id, Title: id}
					}
					entries = append(entries, e)
				}
			}

			items := make([]game.ScoredItem, len(entries))
			errs := make([]error, len(entries))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(lookupConcurrency)
			for i, e := range entries {
				g.Go(func() error {
					items[i], errs[i] = fetch.Fetch(ctx, e)
					return nil
				})
			}
			_ = g.Wait()

			p := message.NewPrinter(cfg.LocaleTag())
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				Headers("ID", "VIEWS", "TITLE")
			failed := 0
			for i, e := range entries {
				if errs[i] != nil {
					failed++
					t.Row(e.ID, "-", errs[i].Error())
					continue
				}
				t.Row(e.ID, p.Sprintf("%d", items[i].Views), items[i].Title)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t)
			if failed > 0 {
				return fmt.Errorf("%d of %d lookups failed", failed, len(entries))
			}
			return nil
		},
	}
}
