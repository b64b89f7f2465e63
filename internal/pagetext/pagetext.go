package pagetext

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/cognicore/privlens/pkg/privlens/highlight"
)

// hidden elements contribute no rendered text.
var hidden = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"iframe":   true,
	"svg":      true,
}

var blocks = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "details": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "header": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"summary": true, "table": true, "tr": true, "ul": true, "body": true,
}

// Render projects a tree to the text a reader would see: hidden elements
// are dropped, whitespace runs collapse to one space and block elements
// start on a new line.
func Render(root *html.Node) string {
	var b textBuffer
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			writeCollapsed(&b, n.Data)
			return
		case html.ElementNode:
			if hidden[n.Data] {
				return
			}
			if n.Data == "br" {
				newline(&b)
				return
			}
		}

		block := n.Type == html.ElementNode && blocks[n.Data]
		if block {
			newline(&b)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			newline(&b)
		}
	}
	if root != nil {
		walk(root)
	}
	return strings.TrimSpace(b.String())
}

// Title returns the document title, trimmed.
func Title(root *html.Node) string {
	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			title = strings.Join(strings.Fields(b.String()), " ")
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	if root != nil {
		walk(root)
	}
	return title
}

// textBuffer accumulates rendered text. It never ends in more than one
// separator, so a break after a space replaces the space in place.
type textBuffer struct {
	buf []byte
}

func (b *textBuffer) last() byte {
	if len(b.buf) == 0 {
		return 0
	}
	return b.buf[len(b.buf)-1]
}

func (b *textBuffer) String() string {
	return string(b.buf)
}

func writeCollapsed(b *textBuffer, s string) {
	for _, r := range s {
		if isSpace(r) {
			switch b.last() {
			case 0, ' ', '\n':
			default:
				b.buf = append(b.buf, ' ')
			}
			continue
		}
		b.buf = utf8.AppendRune(b.buf, r)
	}
}

func newline(b *textBuffer) {
	switch b.last() {
	case 0, '\n':
		return
	case ' ':
		b.buf = b.buf[:len(b.buf)-1]
		if c := b.last(); c == 0 || c == '\n' {
			return
		}
	}
	b.buf = append(b.buf, '\n')
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

// Static is a page with fixed content.
type Static struct {
	PageTitle string
	PageURL   string
	Body      string
}

// Title implements command.Page.
func (s Static) Title() string { return s.PageTitle }

// URL implements command.Page.
func (s Static) URL() string { return s.PageURL }

// Text implements command.Page.
func (s Static) Text() string { return s.Body }

// DocumentPage serves the live rendered text of a highlight document.
type DocumentPage struct {
	doc *highlight.Document
	url string
}

// NewDocumentPage wraps doc, reported under url.
func NewDocumentPage(doc *highlight.Document, url string) *DocumentPage {
	return &DocumentPage{doc: doc, url: url}
}

// Title implements command.Page.
func (p *DocumentPage) Title() string {
	var title string
	p.doc.Read(func(root *html.Node) {
		title = Title(root)
	})
	return title
}

// URL implements command.Page.
func (p *DocumentPage) URL() string { return p.url }

// Text implements command.Page.
func (p *DocumentPage) Text() string {
	var text string
	p.doc.Read(func(root *html.Node) {
		text = Render(root)
	})
	return text
}

// FromHTML parses markup and returns its title and rendered text. Markup
// that fails to parse is returned as is.
func FromHTML(markup string) (title, text string) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", markup
	}
	return Title(root), Render(root)
}
