// Package navigate brings a highlighted occurrence of a term into view and
// briefly emphasizes it.
package navigate

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/cognicore/privlens/pkg/privlens/highlight"
)

const (
	// DefaultEmphasisColor is the transient background of a located marker.
	DefaultEmphasisColor = "#ffd966"
	// DefaultEmphasisDelay is how long the emphasis stays before reverting.
	DefaultEmphasisDelay = 800 * time.Millisecond
)

// ScrollOptions mirrors the host's scroll request.
type ScrollOptions struct {
	Behavior string // "smooth"
	Block    string // "center"
}

// Viewport is the host surface that can scroll a node into view.
type Viewport interface {
	ScrollIntoView(n *html.Node, opts ScrollOptions)
}

// NopViewport ignores scroll requests. Used when there is nothing to scroll.
type NopViewport struct{}

// ScrollIntoView implements Viewport.
func (NopViewport) ScrollIntoView(*html.Node, ScrollOptions) {}

type emphasis struct {
	style    string
	hadStyle bool
	timer    *time.Timer
}

// Bridge locates markers placed by the highlight controller.
type Bridge struct {
	doc      *highlight.Document
	viewport Viewport
	color    string
	delay    time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[*html.Node]*emphasis
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithViewport sets the scroll target.
func WithViewport(v Viewport) Option {
	return func(b *Bridge) {
		if v != nil {
			b.viewport = v
		}
	}
}

// WithEmphasis sets the emphasis colour and how long it lasts.
func WithEmphasis(color string, delay time.Duration) Option {
	return func(b *Bridge) {
		if color != "" {
			b.color = color
		}
		if delay > 0 {
			b.delay = delay
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a bridge over doc.
func New(doc *highlight.Document, opts ...Option) *Bridge {
	b := &Bridge{
		doc:      doc,
		viewport: NopViewport{},
		color:    DefaultEmphasisColor,
		delay:    DefaultEmphasisDelay,
		logger:   slog.Default(),
		pending:  make(map[*html.Node]*emphasis),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Locate finds the first marker whose term equals term (case-insensitive),
// scrolls it into view and emphasizes it. It only looks at existing markers;
// it never rescans. Returns false when no marker carries the term.
func (b *Bridge) Locate(term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return false
	}

	var target *html.Node
	b.doc.Read(func(root *html.Node) {
		for _, m := range highlight.Markers(root) {
			if strings.EqualFold(highlight.MarkerTerm(m), term) {
				target = m
				break
			}
		}
		if target != nil {
			b.emphasize(target)
		}
	})
	if target == nil {
		b.logger.Debug("term not highlighted", slog.String("term", term))
		return false
	}

	b.viewport.ScrollIntoView(target, ScrollOptions{Behavior: "smooth", Block: "center"})
	return true
}

// Stop reverts every pending emphasis immediately.
func (b *Bridge) Stop() {
	b.mu.Lock()
	nodes := make([]*html.Node, 0, len(b.pending))
	for n, e := range b.pending {
		e.timer.Stop()
		nodes = append(nodes, n)
	}
	b.mu.Unlock()

	for _, n := range nodes {
		b.revert(n)
	}
}

// emphasize runs under the document lock.
func (b *Bridge) emphasize(n *html.Node) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.pending[n]
	if ok {
		e.timer.Stop()
	} else {
		style, had := getAttr(n, "style")
		e = &emphasis{style: style, hadStyle: had}
		b.pending[n] = e
	}

	setAttr(n, "style", setStyleProperty(e.style, "background-color", b.color))
	e.timer = time.AfterFunc(b.delay, func() {
		b.revert(n)
	})
}

func (b *Bridge) revert(n *html.Node) {
	b.doc.Read(func(*html.Node) {
		b.mu.Lock()
		defer b.mu.Unlock()

		e, ok := b.pending[n]
		if !ok {
			return
		}
		delete(b.pending, n)
		if e.hadStyle {
			setAttr(n, "style", e.style)
		} else {
			removeAttr(n, "style")
		}
	})
}

// setStyleProperty sets one declaration in an inline style string.
func setStyleProperty(style, prop, value string) string {
	var decls []string
	for _, d := range strings.Split(style, ";") {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		name, _, _ := strings.Cut(d, ":")
		if strings.EqualFold(strings.TrimSpace(name), prop) {
			continue
		}
		decls = append(decls, d)
	}
	decls = append(decls, prop+": "+value)
	return strings.Join(decls, "; ")
}

// StyleProperty returns the value of prop in an inline style string.
func StyleProperty(style, prop string) string {
	for _, d := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(d, ":")
		if ok && strings.EqualFold(strings.TrimSpace(name), prop) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}
