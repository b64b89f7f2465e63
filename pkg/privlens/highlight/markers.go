package highlight

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// MarkerClass tags the <mark> elements owned by the controller.
	MarkerClass = "privacy-highlight"

	attrTerm = "data-term"
	attrID   = "data-highlight-id"
)

// skipTags are containers whose text is never highlighted. Anchors are
// skipped so links stay clickable.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"textarea": true,
	"noscript": true,
	"code":     true,
	"pre":      true,
	"a":        true,
}

// IsMarker reports whether n is a highlight marker.
func IsMarker(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || n.Data != "mark" {
		return false
	}
	for _, class := range strings.Fields(attr(n, "class")) {
		if class == MarkerClass {
			return true
		}
	}
	return false
}

// MarkerTerm returns the lower-cased term a marker carries.
func MarkerTerm(n *html.Node) string {
	return attr(n, attrTerm)
}

// MarkerID returns the pass-scoped identifier of a marker, or -1.
func MarkerID(n *html.Node) int {
	id, err := strconv.Atoi(attr(n, attrID))
	if err != nil {
		return -1
	}
	return id
}

// MarkerText returns the text wrapped by a marker.
func MarkerText(n *html.Node) string {
	return textContent(n)
}

// Markers returns all markers under root in document order.
func Markers(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if IsMarker(n) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

func newMarker(term string, id int, text string) *html.Node {
	m := &html.Node{
		Type:     html.ElementNode,
		Data:     "mark",
		DataAtom: atom.Mark,
		Attr: []html.Attribute{
			{Key: "class", Val: MarkerClass},
			{Key: attrTerm, Val: term},
			{Key: attrID, Val: strconv.Itoa(id)},
		},
	}
	m.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return m
}

// removeMarkers replaces every marker under root with its plain text and
// merges the resulting adjacent text nodes. Returns the number removed.
func removeMarkers(root *html.Node) int {
	markers := Markers(root)
	touched := make(map[*html.Node]struct{})
	removed := 0

	for _, m := range markers {
		parent := m.Parent
		if parent == nil {
			continue
		}
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: textContent(m)}, m)
		parent.RemoveChild(m)
		touched[parent] = struct{}{}
		removed++
	}

	for parent := range touched {
		normalize(parent)
	}
	return removed
}

// normalize merges adjacent text nodes and drops empty ones in the subtree.
func normalize(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.TextNode && c.Data == "":
			n.RemoveChild(c)
		case c.Type == html.TextNode:
			for next != nil && next.Type == html.TextNode {
				c.Data += next.Data
				after := next.NextSibling
				n.RemoveChild(next)
				next = after
			}
		default:
			normalize(c)
		}
		c = next
	}
}

// textLeaves collects the text nodes under root eligible for highlighting.
func textLeaves(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				out = append(out, n)
			}
			return
		case html.ElementNode:
			if skipTags[n.Data] || IsMarker(n) {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}
