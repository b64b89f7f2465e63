// Package cmd provides the CLI commands for privlens.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cognicore/privlens/pkg/privlens"
	"github.com/cognicore/privlens/pkg/privlens/config"
	"github.com/cognicore/privlens/pkg/privlens/highlight"
	"github.com/cognicore/privlens/pkg/privlens/store"
	"github.com/cognicore/privlens/pkg/privlens/store/memstore"
	"github.com/cognicore/privlens/pkg/privlens/store/sqlite"
	"github.com/cognicore/privlens/pkg/privlens/vocab"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	vocabPath  string
	debug      bool

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCmd creates the root command for the privlens CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "privlens",
		Short: "Find privacy-sensitive terms in pages",
		Long: `privlens scans page text for privacy-related vocabulary (health,
location, identifiers, ...), reports where each term occurs and can
highlight the occurrences in the page markup.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to privlens.yaml")
	cmd.PersistentFlags().StringVar(&a.vocabPath, "vocabulary", "", "Extra vocabulary file (categories: {Cat: [terms]})")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newScanCmd(a))
	cmd.AddCommand(newBatchCmd(a))
	cmd.AddCommand(newExportCmd(a))
	cmd.AddCommand(newTermsCmd(a))
	cmd.AddCommand(newHostCmd(a))
	cmd.AddCommand(newStatsCmd(a))
	cmd.AddCommand(newCleanCmd(a))

	return cmd
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.vocabPath != "" {
		cfg.Vocabulary.File = a.vocabPath
	}
	a.cfg = cfg

	level := cfg.SlogLevel()
	if a.debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
	return nil
}

// openStore opens the configured store. An empty path keeps data in memory.
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	if a.cfg.Store.Path == "" {
		return memstore.New(), nil
	}
	st, err := sqlite.OpenSQLite(ctx, a.cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// buildVocabulary loads the configured vocabulary and layers the user
// terms saved in st on top.
func (a *app) buildVocabulary(ctx context.Context, st store.Store) (*vocab.Vocabulary, error) {
	comp, err := (&config.Loader{Config: a.cfg}).Load()
	if err != nil {
		return nil, err
	}
	if err := addSaved(ctx, st, comp.Vocabulary); err != nil {
		return nil, err
	}
	return comp.Vocabulary, nil
}

// savedVocabulary holds only the built-in table and the terms saved in st,
// leaving out terms that come from configuration files.
func (a *app) savedVocabulary(ctx context.Context, st store.Store) (*vocab.Vocabulary, error) {
	v := vocab.New(vocab.Table{})
	if a.cfg.Vocabulary.Builtin {
		v = vocab.NewDefault()
	}
	if err := addSaved(ctx, st, v); err != nil {
		return nil, err
	}
	return v, nil
}

func addSaved(ctx context.Context, st store.Store, v *vocab.Vocabulary) error {
	saved, err := st.UserTerms(ctx)
	if err != nil {
		return fmt.Errorf("load user terms: %w", err)
	}
	for _, cat := range saved.Categories() {
		v.AddUserTerms(cat, saved.Terms(cat)...)
	}
	return nil
}

// newEngine builds an engine over doc, which may be nil.
func (a *app) newEngine(ctx context.Context, st store.Store, doc *highlight.Document, maxChars int) (*privlens.Engine, error) {
	v, err := a.buildVocabulary(ctx, st)
	if err != nil {
		return nil, err
	}

	opts := privlens.Options{
		Vocabulary:    v,
		Document:      doc,
		Debounce:      a.cfg.Highlight.Debounce,
		EmphasisColor: a.cfg.Highlight.EmphasisColor,
		EmphasisDelay: a.cfg.Highlight.EmphasisDelay,
		Logger:        a.logger,
	}
	opts.Scan.MaxTextLength = a.cfg.Scan.MaxTextLength
	opts.Scan.SnippetRadius = a.cfg.Scan.SnippetRadius
	if maxChars > 0 {
		opts.Scan.MaxTextLength = maxChars
	}
	return privlens.New(opts), nil
}
