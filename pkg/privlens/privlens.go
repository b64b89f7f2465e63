package privlens

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/html"

	"github.com/cognicore/privlens/internal/pagetext"
	"github.com/cognicore/privlens/pkg/privlens/highlight"
	"github.com/cognicore/privlens/pkg/privlens/index"
	"github.com/cognicore/privlens/pkg/privlens/navigate"
	"github.com/cognicore/privlens/pkg/privlens/scan"
	"github.com/cognicore/privlens/pkg/privlens/vocab"
)

// Engine is the privacy-term detection facade. It owns the vocabulary and
// the current index snapshot, and drives highlighting and navigation on an
// optional document.
type Engine struct {
	mu    sync.Mutex // serializes rebuilds and vocabulary swaps
	vocab *vocab.Vocabulary
	snap  atomic.Pointer[index.Snapshot]

	scanOpts scan.Options
	logger   *slog.Logger

	doc    *highlight.Document
	ctrl   *highlight.Controller
	bridge *navigate.Bridge
}

// Options configures an Engine
type Options struct {
	// Vocabulary defaults to the built-in table.
	Vocabulary *vocab.Vocabulary
	// Document enables highlighting and navigation.
	Document *highlight.Document
	Viewport navigate.Viewport

	Scan          scan.Options
	Debounce      time.Duration
	EmphasisColor string
	EmphasisDelay time.Duration
	Logger        *slog.Logger
}

// New creates an Engine and builds its first snapshot.
func New(opts Options) *Engine {
	e := &Engine{
		vocab:    opts.Vocabulary,
		scanOpts: opts.Scan,
		logger:   opts.Logger,
		doc:      opts.Document,
	}
	if e.vocab == nil {
		e.vocab = vocab.NewDefault()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.scanOpts.Categories = nil

	if e.doc != nil {
		e.ctrl = highlight.NewController(e.doc, e.Snapshot,
			highlight.WithDebounce(opts.Debounce),
			highlight.WithLogger(e.logger),
		)
		e.bridge = navigate.New(e.doc,
			navigate.WithViewport(opts.Viewport),
			navigate.WithEmphasis(opts.EmphasisColor, opts.EmphasisDelay),
			navigate.WithLogger(e.logger),
		)
	}

	e.Rebuild()
	return e
}

// Close detaches the engine from its document.
func (e *Engine) Close() error {
	if e.ctrl != nil {
		e.ctrl.Stop()
	}
	if e.bridge != nil {
		e.bridge.Stop()
	}
	return nil
}

// Rebuild compiles the current vocabulary and publishes the new snapshot.
// Readers see either the previous snapshot or the new one, never a mix.
func (e *Engine) Rebuild() *index.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rebuildLocked()
}

func (e *Engine) rebuildLocked() *index.Snapshot {
	snap := index.Build(e.vocab.Merged())
	e.snap.Store(snap)
	e.logger.Debug("index rebuilt", slog.Int("terms", snap.Index.Len()))
	return snap
}

// Snapshot returns the current snapshot.
func (e *Engine) Snapshot() *index.Snapshot {
	return e.snap.Load()
}

// Vocabulary returns the live vocabulary. Changes made to it directly take
// effect on the next Rebuild.
func (e *Engine) Vocabulary() *vocab.Vocabulary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vocab
}

// ReplaceVocabulary swaps the vocabulary and rebuilds.
func (e *Engine) ReplaceVocabulary(v *vocab.Vocabulary) {
	if v == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vocab = v
	e.rebuildLocked()
}

// SetUserTerms replaces a category's user terms and rebuilds.
func (e *Engine) SetUserTerms(category string, terms []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vocab.SetUserTerms(category, terms)
	e.rebuildLocked()
}

// AddUserTerms extends a category's user terms and rebuilds.
func (e *Engine) AddUserTerms(category string, terms ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vocab.AddUserTerms(category, terms...)
	e.rebuildLocked()
}

// RemoveUserTerm drops a user term and rebuilds when something changed.
func (e *Engine) RemoveUserTerm(category, term string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.vocab.RemoveUserTerm(category, term) {
		return false
	}
	e.rebuildLocked()
	return true
}

// Scan scans text with the engine's scan options and an optional category
// allow-list.
func (e *Engine) Scan(text string, categories []string) scan.Report {
	opts := e.scanOpts
	opts.Categories = categories
	return scan.Scan(e.Snapshot(), text, opts)
}

// ScanWith scans text with explicit options.
func (e *Engine) ScanWith(text string, opts scan.Options) scan.Report {
	return scan.Scan(e.Snapshot(), text, opts)
}

// Highlight marks every match in the document and returns the number of
// markers placed. Without a document it does nothing.
func (e *Engine) Highlight(categories []string) int {
	if e.ctrl == nil {
		return 0
	}
	return e.ctrl.Apply(highlight.Options{Categories: categories})
}

// ClearHighlights removes all markers.
func (e *Engine) ClearHighlights() {
	if e.ctrl != nil {
		e.ctrl.Clear()
	}
}

// Locate scrolls to the first marker for term.
func (e *Engine) Locate(term string) bool {
	if e.bridge == nil {
		return false
	}
	return e.bridge.Locate(term)
}

// Document returns the engine's document, or nil.
func (e *Engine) Document() *highlight.Document {
	return e.doc
}

// DocumentText returns the rendered text of the document.
func (e *Engine) DocumentText() string {
	if e.doc == nil {
		return ""
	}
	var text string
	e.doc.Read(func(root *html.Node) {
		text = pagetext.Render(root)
	})
	return text
}

// Debug returns the developer surface.
func (e *Engine) Debug() DebugView {
	return DebugView{e: e}
}

// DebugView exposes engine internals for inspection. The index map it
// returns is a copy.
type DebugView struct {
	e *Engine
}

// Rebuild recompiles the index.
func (d DebugView) Rebuild() { d.e.Rebuild() }

// TermIndex returns a copy of the current term → categories index.
func (d DebugView) TermIndex() map[string][]string {
	return d.e.Snapshot().Index.Map()
}

// ScanForDebug scans at most maxChars characters of the document text.
// A non-positive maxChars uses the engine's limit.
func (d DebugView) ScanForDebug(maxChars int) scan.Report {
	opts := d.e.scanOpts
	if maxChars > 0 {
		opts.MaxTextLength = maxChars
	}
	return scan.Scan(d.e.Snapshot(), d.e.DocumentText(), opts)
}

// Highlight highlights the document with every category.
func (d DebugView) Highlight() int { return d.e.Highlight(nil) }

// Clear removes all markers.
func (d DebugView) Clear() { d.e.ClearHighlights() }
