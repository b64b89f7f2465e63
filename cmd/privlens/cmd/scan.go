package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/privlens/internal/pagetext"
	"github.com/cognicore/privlens/pkg/privlens/command"
	"github.com/cognicore/privlens/pkg/privlens/highlight"
	"github.com/cognicore/privlens/pkg/privlens/report"
	"github.com/cognicore/privlens/pkg/privlens/store"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		categories   []string
		maxChars     int
		jsonOut      bool
		highlightOut string
		save         bool
		pageURL      string
	)

	cmd := &cobra.Command{
		Use:   "scan FILE",
		Short: "Scan a text or HTML file",
		Long: `Scan a page for privacy-related terms.

FILE may be plain text or HTML ("-" reads stdin). HTML is rendered to
text before scanning; with --highlight-out the page is written back with
every occurrence wrapped in a marker element.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			doc, page, err := loadPage(cmd.InOrStdin(), args[0], pageURL)
			if err != nil {
				return err
			}
			if highlightOut != "" && doc == nil {
				return fmt.Errorf("--highlight-out needs an HTML page")
			}

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			engine, err := a.newEngine(ctx, st, doc, maxChars)
			if err != nil {
				return err
			}
			defer engine.Close()

			var hook func(command.ScanResponse)
			if save {
				hook = saveHook(ctx, a, st, report.NewBuilder(), cmd.ErrOrStderr())
			}
			d := command.NewDispatcher(engine, page, command.WithLogger(a.logger), command.WithScanHook(hook))

			out, err := d.Handle(command.Request{
				Cmd:        command.CmdScan,
				Highlight:  highlightOut != "",
				Categories: categories,
			})
			if err != nil {
				return err
			}
			resp := out.(command.ScanResponse)

			if highlightOut != "" {
				if err := writeDocument(doc, highlightOut); err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			var sel *report.Selection
			if len(categories) > 0 {
				sel = report.NewSelection(categories...)
			}
			return report.Render(w, resp.Title, resp.URL, resp.Results, sel)
		},
	}

	cmd.Flags().StringSliceVarP(&categories, "categories", "c", nil, "Only report these categories")
	cmd.Flags().IntVar(&maxChars, "max", 0, "Scan at most this many characters (default from config)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the scan response as JSON")
	cmd.Flags().StringVar(&highlightOut, "highlight-out", "", "Write the highlighted HTML page to this file")
	cmd.Flags().BoolVar(&save, "save", false, "Save the report to the store")
	cmd.Flags().StringVar(&pageURL, "url", "", "URL recorded for the page (default: the file path)")

	return cmd
}

// loadPage reads path (or stdin for "-") as a page. HTML input also yields
// a live document so it can be highlighted.
func loadPage(stdin io.Reader, path, url string) (*highlight.Document, command.Page, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read page: %w", err)
	}
	if url == "" {
		url = path
	}

	if !looksLikeHTML(path, data) {
		return nil, pagetext.Static{
			PageTitle: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			PageURL:   url,
			Body:      string(data),
		}, nil
	}

	doc, err := highlight.ParseDocument(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, pagetext.NewDocumentPage(doc, url), nil
}

func looksLikeHTML(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return true
	case ".txt", ".md":
		return false
	}
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("<"))
}

func writeDocument(doc *highlight.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := doc.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render page: %w", err)
	}
	return f.Close()
}

// saveHook persists every scan response as a new report.
func saveHook(ctx context.Context, a *app, st store.Store, b *report.Builder, status io.Writer) func(command.ScanResponse) {
	return func(resp command.ScanResponse) {
		r := b.Build(resp.Title, resp.URL, resp.Results)
		if err := st.SaveReport(ctx, r); err != nil {
			a.logger.Error("save report failed", slog.String("url", r.URL), slog.Any("error", err))
			return
		}
		a.logger.Debug("report saved", slog.String("id", r.ID))
		fmt.Fprintf(status, "saved report %s\n", r.ID)
	}
}
