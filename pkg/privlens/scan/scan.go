package scan

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/privlens/pkg/privlens/index"
)

const (
	// DefaultMaxTextLength bounds how many characters of a text are scanned.
	DefaultMaxTextLength = 500_000
	// DefaultSnippetRadius is the context kept on each side of a match.
	DefaultSnippetRadius = 40

	// ExactScore is assigned when the surface text lower-cases to the term.
	ExactScore = 1.0
	// VariantScore is assigned to any other hit.
	VariantScore = 0.8

	ellipsis = "…"
)

// Options controls a scan.
type Options struct {
	// MaxTextLength caps the scanned prefix, in characters. Zero means
	// DefaultMaxTextLength.
	MaxTextLength int
	// Categories is an optional allow-list.
	Categories []string
	// SnippetRadius is the context size in characters. Zero means
	// DefaultSnippetRadius.
	SnippetRadius int
}

// MatchRecord is one located occurrence.
type MatchRecord struct {
	Match   string  `json:"match" yaml:"match"`
	Term    string  `json:"term" yaml:"term"`
	Index   int     `json:"index" yaml:"index"`
	Snippet string  `json:"snippet" yaml:"snippet"`
	Score   float64 `json:"score" yaml:"score"`
}

// TermMatches groups the matches of one term, in scan order.
type TermMatches struct {
	Term    string        `json:"term" yaml:"term"`
	Matches []MatchRecord `json:"matches" yaml:"matches"`
}

// Report maps a category to its matched terms. Only categories with at
// least one match are present.
type Report map[string][]TermMatches

// Categories returns the report's categories sorted alphabetically.
func (r Report) Categories() []string {
	cats := make([]string, 0, len(r))
	for cat := range r {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}

// MatchCount returns the number of match records across all categories.
// A match belonging to several categories is counted once per category.
func (r Report) MatchCount() int {
	n := 0
	for _, terms := range r {
		for _, tm := range terms {
			n += len(tm.Matches)
		}
	}
	return n
}

// Scan applies a snapshot's matcher to text and groups the hits by category
// and term. Texts longer than the configured maximum are cut to that length
// and scanned partially.
func Scan(snap *index.Snapshot, text string, opts Options) Report {
	report := Report{}
	if snap.Empty() {
		return report
	}

	maxLen := opts.MaxTextLength
	if maxLen <= 0 {
		maxLen = DefaultMaxTextLength
	}
	radius := opts.SnippetRadius
	if radius <= 0 {
		radius = DefaultSnippetRadius
	}

	sample := truncate(text, maxLen)
	positions := make(map[string]map[string]int)

	// Character offsets are counted incrementally since matches arrive left
	// to right.
	lastByte, lastRune := 0, 0

	for _, m := range snap.FindAll(sample) {
		if len(m.Categories) == 0 || !index.Allowed(m.Categories, opts.Categories) {
			continue
		}

		lastRune += utf8.RuneCountInString(sample[lastByte:m.Start])
		lastByte = m.Start

		rec := MatchRecord{
			Match:   m.Text,
			Term:    m.Term,
			Index:   lastRune,
			Snippet: Snippet(sample, m.Start, m.End, radius),
			Score:   Score(m.Text, m.Term),
		}

		for _, cat := range m.Categories {
			terms, ok := positions[cat]
			if !ok {
				terms = make(map[string]int)
				positions[cat] = terms
			}
			pos, ok := terms[m.Term]
			if !ok {
				pos = len(report[cat])
				terms[m.Term] = pos
				report[cat] = append(report[cat], TermMatches{Term: m.Term})
			}
			report[cat][pos].Matches = append(report[cat][pos].Matches, rec)
		}
	}

	return report
}

// Score rates a hit: ExactScore when the surface text lower-cases to the
// term, VariantScore otherwise.
func Score(surface, term string) float64 {
	if strings.ToLower(surface) == strings.ToLower(term) {
		return ExactScore
	}
	return VariantScore
}

// Snippet returns the text around text[start:end] with up to radius
// characters on each side, whitespace collapsed, and an ellipsis on each
// side where the window stops short of the text boundary.
func Snippet(text string, start, end, radius int) string {
	from := start
	for i := 0; i < radius && from > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}
	to := end
	for i := 0; i < radius && to < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}

	var b strings.Builder
	if from > 0 {
		b.WriteString(ellipsis)
	}
	b.WriteString(strings.Join(strings.Fields(text[from:to]), " "))
	if to < len(text) {
		b.WriteString(ellipsis)
	}
	return b.String()
}

// truncate returns the first n characters of s.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
