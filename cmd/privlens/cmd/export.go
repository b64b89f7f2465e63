package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/privlens/pkg/privlens/report"
	"github.com/cognicore/privlens/pkg/privlens/store"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		categories []string
		list       int
	)

	cmd := &cobra.Command{
		Use:   "export [ID]",
		Short: "Print a saved report in copy format",
		Long: `Print a saved report as plain text: a URL line followed by one
"Category: term" line per term and its snippets. Without ID the most
recent report is exported. --list N prints the newest N report IDs instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			w := cmd.OutOrStdout()
			if list > 0 {
				reports, err := st.ListReports(ctx, list)
				if err != nil {
					return err
				}
				for _, r := range reports {
					fmt.Fprintf(w, "%s  %s  %s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.URL)
				}
				return nil
			}

			var r store.SavedReport
			if len(args) == 1 {
				r, err = st.GetReport(ctx, args[0])
			} else {
				r, err = st.LastReport(ctx)
			}
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			var sel *report.Selection
			if len(categories) > 0 {
				sel = report.NewSelection(categories...)
			}
			if err := report.Export(w, r, sel); err != nil {
				return err
			}
			_, err = fmt.Fprintln(w)
			return err
		},
	}

	cmd.Flags().StringSliceVarP(&categories, "categories", "c", nil, "Only export these categories")
	cmd.Flags().IntVar(&list, "list", 0, "List the newest N saved reports")

	return cmd
}
