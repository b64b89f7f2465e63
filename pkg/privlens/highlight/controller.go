// Package highlight keeps <mark> markers for matched terms in sync with a
// live HTML content tree.
package highlight

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/cognicore/privlens/pkg/privlens/index"
)

// DefaultDebounce is the quiet period after a mutation before highlights
// are rebuilt.
const DefaultDebounce = 600 * time.Millisecond

// State is the controller's state.
type State int

const (
	// StateIdle means no pass is running or scheduled.
	StateIdle State = iota
	// StateHighlighting means a pass is walking the tree.
	StateHighlighting
	// StatePendingResync means a mutation was seen and a pass is scheduled.
	StatePendingResync
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHighlighting:
		return "highlighting"
	case StatePendingResync:
		return "pending-resync"
	default:
		return "unknown"
	}
}

// SnapshotSource returns the snapshot a pass should use.
type SnapshotSource func() *index.Snapshot

// Options controls a highlight pass.
type Options struct {
	// Categories is an optional allow-list.
	Categories []string
}

func (o Options) clone() Options {
	if o.Categories == nil {
		return o
	}
	cats := make([]string, len(o.Categories))
	copy(cats, o.Categories)
	return Options{Categories: cats}
}

// Controller applies and clears markers on a Document and resynchronizes
// them after host mutations.
type Controller struct {
	doc    *Document
	source SnapshotSource
	logger *slog.Logger
	window time.Duration

	// markerFn builds marker nodes; replaced in tests.
	markerFn func(term string, id int, text string) *html.Node

	debouncer *Debouncer
	unobserve func()

	mu     sync.Mutex
	state  State
	active bool
	last   Options
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce sets the resync quiet period.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.window = d
		}
	}
}

// WithLogger sets the logger used for pass failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController creates a controller over doc. It starts observing host
// mutations immediately; Stop releases the observer.
func NewController(doc *Document, source SnapshotSource, opts ...Option) *Controller {
	c := &Controller{
		doc:      doc,
		source:   source,
		logger:   slog.Default(),
		window:   DefaultDebounce,
		markerFn: newMarker,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.debouncer = NewDebouncer(c.window, c.resync)
	c.unobserve = doc.Observe(c.onMutation)
	return c
}

// Apply clears existing markers and highlights every match in the tree.
// Returns the number of markers placed. Failures are logged and yield 0;
// they never reach the caller.
func (c *Controller) Apply(opts Options) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.debouncer.Cancel()
	c.last = opts.clone()
	c.active = true
	return c.runLocked()
}

// Clear removes all markers. Safe to call when there are none.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.debouncer.Cancel()
	c.active = false
	c.state = StateIdle

	c.doc.Read(func(root *html.Node) {
		removeMarkers(root)
	})
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active reports whether highlights are currently applied.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Stop detaches the controller from the document and drops any pending
// resync. Markers are left in place.
func (c *Controller) Stop() {
	c.debouncer.Stop()
	if c.unobserve != nil {
		c.unobserve()
	}
}

func (c *Controller) onMutation(Mutation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active {
		return
	}
	c.state = StatePendingResync
	c.debouncer.Trigger()
}

func (c *Controller) resync() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active || c.state != StatePendingResync {
		return
	}
	n := c.runLocked()
	c.logger.Debug("highlights resynchronized", slog.Int("markers", n))
}

// runLocked performs one pass. c.mu must be held.
func (c *Controller) runLocked() (placed int) {
	c.state = StateHighlighting
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("highlight pass failed",
				slog.String("error", fmt.Sprint(r)),
			)
			placed = 0
		}
		c.state = StateIdle
	}()

	snap := c.source()
	opts := c.last

	c.doc.Read(func(root *html.Node) {
		removeMarkers(root)
		if snap.Empty() {
			return
		}
		placed = c.wrapMatches(findBody(root), snap, opts)
	})
	return placed
}

// wrapMatches wraps every allowed match under root in a marker. Marker ids
// start at zero for each pass.
func (c *Controller) wrapMatches(root *html.Node, snap *index.Snapshot, opts Options) int {
	id := 0
	for _, leaf := range textLeaves(root) {
		text := leaf.Data
		var parts []*html.Node
		last := 0

		for _, m := range snap.FindAll(text) {
			if !index.Allowed(m.Categories, opts.Categories) {
				continue
			}
			if m.Start > last {
				parts = append(parts, &html.Node{Type: html.TextNode, Data: text[last:m.Start]})
			}
			parts = append(parts, c.markerFn(m.Term, id, text[m.Start:m.End]))
			id++
			last = m.End
		}

		if len(parts) == 0 {
			continue
		}
		if last < len(text) {
			parts = append(parts, &html.Node{Type: html.TextNode, Data: text[last:]})
		}

		parent := leaf.Parent
		for _, p := range parts {
			parent.InsertBefore(p, leaf)
		}
		parent.RemoveChild(leaf)
	}
	return id
}
