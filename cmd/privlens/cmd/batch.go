package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/privlens/internal/pages"
	"github.com/cognicore/privlens/pkg/privlens/analytics"
	"github.com/cognicore/privlens/pkg/privlens/command"
	"github.com/cognicore/privlens/pkg/privlens/report"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		categories []string
		jsonOut    bool
		save       bool
		stats      bool
	)

	cmd := &cobra.Command{
		Use:   "batch FILE.jsonl",
		Short: "Scan every page of a JSONL feed",
		Long: `Scan a JSONL feed of pages, one {"url","title","text"|"html"} object
per line. Prints one summary block per page, or one JSON scan response per
line with --json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			items, err := pages.LoadFromJSONL(args[0])
			if err != nil {
				return err
			}

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			engine, err := a.newEngine(ctx, st, nil, 0)
			if err != nil {
				return err
			}
			defer engine.Close()

			builder := report.NewBuilder()
			var sel *report.Selection
			if len(categories) > 0 {
				sel = report.NewSelection(categories...)
			}

			w := cmd.OutOrStdout()
			enc := json.NewEncoder(w)
			an := analytics.NewAnalyzer()
			for _, item := range items {
				if err := ctx.Err(); err != nil {
					return err
				}
				page := item.Page()
				resp := command.ScanResponse{
					Title:   page.Title(),
					URL:     page.URL(),
					Results: engine.Scan(page.Text(), categories),
				}
				an.Process(resp.Results)

				if save {
					r := builder.Build(resp.Title, resp.URL, resp.Results)
					if err := st.SaveReport(ctx, r); err != nil {
						return fmt.Errorf("save report for %s: %w", resp.URL, err)
					}
				}

				if jsonOut {
					if err := enc.Encode(resp); err != nil {
						return err
					}
					continue
				}
				lines := report.Summary(resp.Results, sel)
				if len(lines) == 0 {
					lines = []string{report.NoMatches}
				}
				fmt.Fprintf(w, "%s\n  %s\n", resp.URL, strings.Join(lines, "\n  "))
			}

			summary := an.Snapshot()
			a.logger.Info("batch scanned",
				slog.Int("pages", len(items)),
				slog.Int64("matches", summary.TotalMatches))
			if stats && !jsonOut {
				writeStats(w, summary, 10, 2)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&categories, "categories", "c", nil, "Only report these categories")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print one JSON scan response per page")
	cmd.Flags().BoolVar(&save, "save", false, "Save a report per page")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print term statistics across the feed")

	return cmd
}
