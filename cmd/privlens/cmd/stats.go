package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/privlens/pkg/privlens/analytics"
	"github.com/cognicore/privlens/pkg/privlens/maintenance"
)

func newStatsCmd(a *app) *cobra.Command {
	var (
		top        int
		minSupport int64
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize saved reports",
		Long: `Aggregate every saved report: the terms found on the most pages and
the categories that tend to be reported together.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			reports, err := st.ListReports(ctx, 0)
			if err != nil {
				return err
			}
			an := analytics.NewAnalyzer()
			for _, r := range reports {
				an.Process(r.Results)
			}
			writeStats(cmd.OutOrStdout(), an.Snapshot(), top, minSupport)
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "Number of terms to list")
	cmd.Flags().Int64Var(&minSupport, "min-support", 2, "Minimum pages for a category pair")

	return cmd
}

func writeStats(w io.Writer, stats analytics.Stats, top int, minSupport int64) {
	fmt.Fprintf(w, "%d page(s), %d match(es)\n", stats.TotalPages, stats.TotalMatches)
	for _, ts := range stats.TopTerms(top) {
		fmt.Fprintf(w, "  %-24s %4d  %5.1f%%  %s\n", ts.Term, ts.Pages, ts.Share*100, strings.Join(ts.Categories, ", "))
	}
	pairs := stats.CategoryPairs(minSupport)
	if len(pairs) == 0 {
		return
	}
	fmt.Fprintln(w, "Categories seen together:")
	for _, p := range pairs {
		fmt.Fprintf(w, "  %s + %s  %d page(s)  pmi %.2f\n", p.A, p.B, p.Support, p.PMI)
	}
}

func newCleanCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Drop saved-report terms the vocabulary no longer contains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
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

			c := &maintenance.Cleaner{Store: st, Snapshot: engine.Snapshot(), DryRun: dryRun}
			res, err := c.Clean(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed %d, updated %d, dropped %d term(s)\n",
				res.Processed, res.Updated, res.Dropped)
			if res.Errors > 0 {
				return fmt.Errorf("%d report(s) could not be saved", res.Errors)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without saving")

	return cmd
}
