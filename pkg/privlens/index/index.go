// Package index compiles a vocabulary into a term index and a single
// longest-first, whole-word, case-insensitive matcher.
package index

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/privlens/pkg/privlens/vocab"
)

// TermIndex maps a lower-cased term to the categories containing it.
// Keys keep first-seen order; so do the categories of each key.
type TermIndex struct {
	keys []string
	cats map[string][]string
}

// Categories returns the categories of a lower-cased term.
func (ti *TermIndex) Categories(term string) []string {
	return ti.cats[term]
}

// Has reports whether the term is indexed.
func (ti *TermIndex) Has(term string) bool {
	_, ok := ti.cats[term]
	return ok
}

// Keys returns the indexed terms in first-seen order.
func (ti *TermIndex) Keys() []string {
	out := make([]string, len(ti.keys))
	copy(out, ti.keys)
	return out
}

// Len returns the number of indexed terms.
func (ti *TermIndex) Len() int {
	return len(ti.keys)
}

// Map returns a copy of the index as a plain map.
func (ti *TermIndex) Map() map[string][]string {
	out := make(map[string][]string, len(ti.keys))
	for _, k := range ti.keys {
		cats := make([]string, len(ti.cats[k]))
		copy(cats, ti.cats[k])
		out[k] = cats
	}
	return out
}

// Snapshot bundles a TermIndex with the matcher compiled from it.
// A Snapshot is immutable once built and safe to share.
type Snapshot struct {
	Index *TermIndex

	// Matcher is nil when the index is empty; callers treat that as
	// "never matches".
	Matcher *regexp.Regexp

	// ordered holds the keys longest first, in alternation order.
	ordered []string
	filter  *prefilter
}

// Empty reports whether the snapshot can never match.
func (s *Snapshot) Empty() bool {
	return s == nil || s.Matcher == nil
}

// Build compiles a vocabulary table into a new Snapshot.
func Build(table vocab.Table) *Snapshot {
	ti := &TermIndex{cats: make(map[string][]string)}

	table.Each(func(cat, term string) {
		key := strings.ToLower(term)
		if key == "" {
			return
		}
		cats, ok := ti.cats[key]
		if !ok {
			ti.keys = append(ti.keys, key)
		}
		for _, c := range cats {
			if c == cat {
				return
			}
		}
		ti.cats[key] = append(cats, cat)
	})

	snap := &Snapshot{Index: ti}
	if len(ti.keys) == 0 {
		return snap
	}

	ordered := make([]string, len(ti.keys))
	copy(ordered, ti.keys)
	// Longest first so the alternation prefers "heart rate" over "rate".
	sort.SliceStable(ordered, func(i, j int) bool {
		return utf8.RuneCountInString(ordered[i]) > utf8.RuneCountInString(ordered[j])
	})

	quoted := make([]string, len(ordered))
	for i, k := range ordered {
		quoted[i] = regexp.QuoteMeta(k)
	}

	snap.Matcher = regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
	snap.ordered = ordered
	snap.filter = newPrefilter(ordered)
	return snap
}

// Match is one matcher hit with byte offsets into the searched text.
type Match struct {
	Start int
	End   int
	Text  string
	// Term is the index key the hit resolved to.
	Term       string
	Categories []string
}

// FindAll returns all non-overlapping matches in text, left to right.
func (s *Snapshot) FindAll(text string) []Match {
	if s.Empty() || !s.filter.mayMatch(text) {
		return nil
	}

	locs := s.Matcher.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		surface := text[loc[2]:loc[3]]
		key, cats := s.Resolve(surface)
		matches = append(matches, Match{
			Start:      loc[0],
			End:        loc[1],
			Text:       surface,
			Term:       key,
			Categories: cats,
		})
	}
	return matches
}

// Resolve maps a matched surface form to its index key and categories.
// Surface forms whose lower-case spelling differs from the key (Unicode
// case folds such as "ſ" for "s") fall back to a fold comparison in
// alternation order.
func (s *Snapshot) Resolve(surface string) (string, []string) {
	key := strings.ToLower(surface)
	if cats, ok := s.Index.cats[key]; ok {
		return key, cats
	}
	for _, k := range s.ordered {
		if strings.EqualFold(k, surface) {
			return k, s.Index.cats[k]
		}
	}
	return key, nil
}

// Allowed reports whether any of cats appears in the allow-list.
// An empty allow-list admits everything.
func Allowed(cats, allow []string) bool {
	if len(allow) == 0 {
		return true
	}
	for _, c := range cats {
		for _, a := range allow {
			if c == a {
				return true
			}
		}
	}
	return false
}
