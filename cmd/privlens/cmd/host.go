package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cognicore/privlens/pkg/privlens/command"
	"github.com/cognicore/privlens/pkg/privlens/report"
)

func newHostCmd(a *app) *cobra.Command {
	var (
		pageURL      string
		noSave       bool
		highlightOut string
	)

	cmd := &cobra.Command{
		Use:   "host PAGE.html",
		Short: "Serve scan commands for a page over stdin/stdout",
		Long: `Load a page and answer JSON-line requests on stdin, one response line
per request on stdout:

  {"cmd":"scan","highlight":true,"categories":["Location"]}
  {"cmd":"scrollToTerm","term":"gps"}
  {"cmd":"lastReport"}

Scan results are saved to the store. When a vocabulary file is configured
it is watched and the term index is rebuilt whenever it changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "-" {
				return fmt.Errorf("host reads requests from stdin; pass the page as a file")
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			doc, page, err := loadPage(cmd.InOrStdin(), args[0], pageURL)
			if err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("host needs an HTML page, got %s", args[0])
			}

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			engine, err := a.newEngine(ctx, st, doc, 0)
			if err != nil {
				return err
			}
			defer engine.Close()

			opts := []command.Option{command.WithLogger(a.logger)}
			if !noSave {
				opts = append(opts, command.WithScanHook(saveHook(ctx, a, st, report.NewBuilder(), cmd.ErrOrStderr())))
			}
			d := command.NewDispatcher(engine, page, opts...)

			if path := a.cfg.Vocabulary.File; path != "" {
				w, err := newVocabWatcher(path, a.logger, func() {
					v, err := a.buildVocabulary(ctx, st)
					if err != nil {
						a.logger.Warn("vocabulary reload failed", slog.Any("error", err))
						return
					}
					engine.ReplaceVocabulary(v)
					a.logger.Info("vocabulary reloaded",
						slog.String("file", path),
						slog.Int("terms", engine.Snapshot().Index.Len()))
				})
				if err != nil {
					return err
				}
				defer w.Close()
				go w.Run(ctx)
			}

			a.logger.Info("serving page", slog.String("url", page.URL()))
			if err := d.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return err
			}

			if highlightOut != "" {
				return writeDocument(doc, highlightOut)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pageURL, "url", "", "URL recorded for the page (default: the file path)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not save scan results")
	cmd.Flags().StringVar(&highlightOut, "highlight-out", "", "Write the page to this file when the session ends")

	return cmd
}
