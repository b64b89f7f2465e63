package index

import (
	"strings"
	"unicode"

	aho "github.com/petar-dambovaliev/aho-corasick"
)

// prefilter is an Aho-Corasick automaton over case-folded keys. It answers
// "could the matcher hit anything in this text?" in one linear pass so texts
// without any candidate skip the regular expression entirely. It never
// rejects a text the matcher would hit: both sides are folded the same way
// the matcher's (?i) flag compares runes.
type prefilter struct {
	automaton aho.AhoCorasick
}

func newPrefilter(keys []string) *prefilter {
	folded := make([]string, len(keys))
	for i, k := range keys {
		folded[i] = fold(k)
	}
	builder := aho.NewAhoCorasickBuilder(aho.Opts{
		DFA: true,
	})
	return &prefilter{automaton: builder.Build(folded)}
}

func (p *prefilter) mayMatch(text string) bool {
	if p == nil {
		return true
	}
	return len(p.automaton.FindAll(fold(text))) > 0
}

// fold maps every rune to the smallest member of its simple case-folding
// orbit, so two strings fold equal iff they are equal under (?i).
func fold(s string) string {
	return strings.Map(foldRune, s)
}

func foldRune(r rune) rune {
	if r < 0x80 {
		if 'a' <= r && r <= 'z' {
			return r - 'a' + 'A'
		}
		return r
	}
	min := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < min {
			min = f
		}
	}
	return min
}
