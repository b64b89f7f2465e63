package highlight

import (
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// MutationKind classifies an observed content-tree change.
type MutationKind int

const (
	// ChildList is a child insertion or removal.
	ChildList MutationKind = iota
	// CharacterData is a text change.
	CharacterData
)

// Mutation describes one observed change.
type Mutation struct {
	Kind   MutationKind
	Target *html.Node
}

// Document is a live content tree. All access goes through the document so
// host edits, highlight passes and navigation never interleave. Host edits
// made through the mutation methods are reported to observers; reads and
// edits made through Read are not.
type Document struct {
	mu   sync.Mutex
	root *html.Node

	obsMu     sync.Mutex
	nextObsID int
	observers map[int]func(Mutation)
}

// NewDocument wraps an existing tree.
func NewDocument(root *html.Node) *Document {
	return &Document{
		root:      root,
		observers: make(map[int]func(Mutation)),
	}
}

// ParseDocument parses HTML into a new document.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return NewDocument(root), nil
}

// Observe registers fn for host mutations and returns a function that
// removes it.
func (d *Document) Observe(fn func(Mutation)) func() {
	d.obsMu.Lock()
	defer d.obsMu.Unlock()

	id := d.nextObsID
	d.nextObsID++
	d.observers[id] = fn

	return func() {
		d.obsMu.Lock()
		defer d.obsMu.Unlock()
		delete(d.observers, id)
	}
}

func (d *Document) notify(m Mutation) {
	d.obsMu.Lock()
	fns := make([]func(Mutation), 0, len(d.observers))
	for _, fn := range d.observers {
		fns = append(fns, fn)
	}
	d.obsMu.Unlock()

	for _, fn := range fns {
		fn(m)
	}
}

// Read runs fn with exclusive access to the tree. Changes made by fn are
// not reported to observers.
func (d *Document) Read(fn func(root *html.Node)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d.root)
}

// Mutate runs fn with exclusive access to the tree and then reports a
// mutation of the given kind on target.
func (d *Document) Mutate(kind MutationKind, target *html.Node, fn func(root *html.Node)) {
	d.Read(fn)
	d.notify(Mutation{Kind: kind, Target: target})
}

// AppendChild appends child to parent.
func (d *Document) AppendChild(parent, child *html.Node) {
	d.Mutate(ChildList, parent, func(*html.Node) {
		parent.AppendChild(child)
	})
}

// InsertBefore inserts child before ref under parent. A nil ref appends.
func (d *Document) InsertBefore(parent, child, ref *html.Node) {
	d.Mutate(ChildList, parent, func(*html.Node) {
		parent.InsertBefore(child, ref)
	})
}

// RemoveChild removes child from parent.
func (d *Document) RemoveChild(parent, child *html.Node) {
	d.Mutate(ChildList, parent, func(*html.Node) {
		parent.RemoveChild(child)
	})
}

// SetText replaces the data of a text node.
func (d *Document) SetText(n *html.Node, text string) {
	d.Mutate(CharacterData, n, func(*html.Node) {
		n.Data = text
	})
}

// Body returns the <body> element, or the root when there is none.
func (d *Document) Body() *html.Node {
	var body *html.Node
	d.Read(func(root *html.Node) {
		body = findBody(root)
	})
	return body
}

// Text returns the concatenated text of every text node in the tree.
func (d *Document) Text() string {
	var b strings.Builder
	d.Read(func(root *html.Node) {
		writeText(&b, root)
	})
	return b.String()
}

// Render writes the tree as HTML.
func (d *Document) Render(w io.Writer) error {
	var err error
	d.Read(func(root *html.Node) {
		err = html.Render(w, root)
	})
	return err
}

func findBody(root *html.Node) *html.Node {
	if root == nil {
		return nil
	}
	var walk func(*html.Node) *html.Node
	walk = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.Data == "body" {
			return n
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := walk(c); found != nil {
				return found
			}
		}
		return nil
	}
	if body := walk(root); body != nil {
		return body
	}
	return root
}

func writeText(b *strings.Builder, n *html.Node) {
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}

func textContent(n *html.Node) string {
	var b strings.Builder
	writeText(&b, n)
	return b.String()
}
