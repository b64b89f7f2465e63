// Package report stamps, renders and exports scan reports.
package report

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/privlens/pkg/privlens/scan"
	"github.com/cognicore/privlens/pkg/privlens/store"
)

// NoMatches is rendered for an empty report.
const NoMatches = "No matches found."

// Builder turns scan results into saved reports.
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewBuilder creates a new report builder
func NewBuilder() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Build stamps results with a fresh ULID and the current time.
func (b *Builder) Build(title, url string, results scan.Report) store.SavedReport {
	b.mu.Lock()
	now := b.now()
	id := ulid.MustNew(ulid.Timestamp(now), b.entropy).String()
	b.mu.Unlock()

	if results == nil {
		results = scan.Report{}
	}
	return store.SavedReport{
		ID:        id,
		Title:     title,
		URL:       url,
		CreatedAt: now.UTC(),
		Results:   results,
	}
}

// Export writes r in the plain-text copy format:
//
//	URL: <url>
//	<Category>: <term>
//	  - <snippet>
//
// Categories appear alphabetically and only when sel admits them. A nil
// selection admits everything.
func Export(w io.Writer, r store.SavedReport, sel *Selection) error {
	lines := []string{"URL: " + r.URL}
	for _, cat := range SortedCategories(r.Results, sel) {
		for _, tm := range r.Results[cat] {
			lines = append(lines, fmt.Sprintf("%s: %s", cat, tm.Term))
			for _, m := range tm.Matches {
				lines = append(lines, "  - "+m.Snippet)
			}
		}
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}

// SortedCategories returns the categories of results that sel admits,
// alphabetically.
func SortedCategories(results scan.Report, sel *Selection) []string {
	var out []string
	for _, cat := range results.Categories() {
		if sel.Has(cat) {
			out = append(out, cat)
		}
	}
	return out
}

// ExportString is Export into a string.
func ExportString(r store.SavedReport, sel *Selection) string {
	var b strings.Builder
	_ = Export(&b, r, sel)
	return b.String()
}

// Summary returns one "<category> — N term(s)" line per selected category,
// alphabetically.
func Summary(results scan.Report, sel *Selection) []string {
	var out []string
	for _, cat := range SortedCategories(results, sel) {
		out = append(out, fmt.Sprintf("%s — %d term(s)", cat, len(results[cat])))
	}
	return out
}

// Render writes a human-readable listing: each selected category's summary
// line followed by its terms and their first snippet.
func Render(w io.Writer, title, url string, results scan.Report, sel *Selection) error {
	var b strings.Builder
	if title != "" || url != "" {
		fmt.Fprintf(&b, "%s — %s\n", title, url)
	}

	cats := SortedCategories(results, sel)
	for _, cat := range cats {
		fmt.Fprintf(&b, "%s — %d term(s)\n", cat, len(results[cat]))
		for _, tm := range results[cat] {
			if len(tm.Matches) > 0 {
				fmt.Fprintf(&b, "  %s  %s\n", tm.Term, tm.Matches[0].Snippet)
			} else {
				fmt.Fprintf(&b, "  %s\n", tm.Term)
			}
		}
	}
	if len(cats) == 0 {
		b.WriteString(NoMatches + "\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
