package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindmapper/pkg/config"
	"github.com/matzehuels/mindmapper/pkg/history"
)

func (c *CLI) historyCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent generations",
		Long: `Show recent generations from the history store.

History is recorded only when a history backend is configured:

  [history]
  backend = "mongo"
  uri = "mongodb://localhost:27017"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cfg.History.Backend == config.HistoryNone {
				printInfo("History is disabled (history.backend = %q)", cfg.History.Backend)
				return nil
			}

			store, err := history.Open(ctx, cfg.History)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			records, err := store.Recent(ctx, limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			if len(records) == 0 {
				printInfo("No generations recorded yet")
				return nil
			}
			printHistory(records)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of records to show")
	return cmd
}

func printHistory(records []history.Record) {
	t := newTable("When", "Title", "Status", "Size", "Time", "Result")
	for _, r := range records {
		status := StyleSuccess.Render(iconSuccess)
		result := r.ImageURL
		if !r.Success {
			status = StyleError.Render(iconError + " " + r.Code)
			result = r.Error
		} else if r.CacheHit {
			status += " cached"
		}
		t.Row(
			r.CreatedAt.Local().Format("Jan 2 15:04"),
			truncate(r.Title, 30),
			status,
			humanSize(r.SizeBytes),
			r.Duration.Round(time.Millisecond).String(),
			truncate(result, 60),
		)
	}
	fmt.Fprintln(uiOut, t.Render())
	printDetail("%d records", len(records))
}
