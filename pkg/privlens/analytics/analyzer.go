// Package analytics aggregates scan reports across many pages: how often
// each term and category appears and which categories show up together.
package analytics

import (
	"math"
	"sort"
	"sync"

	"github.com/cognicore/privlens/pkg/privlens/scan"
)

// Analyzer aggregates page-level term/category stats.
type Analyzer struct {
	mu         sync.Mutex
	totalPages int64
	termDF     map[string]int64
	termCats   map[string]map[string]int64
	catDF      map[string]int64
	pairCounts map[Pair]int64 // categories reported on the same page
	matches    int64
}

// NewAnalyzer creates an empty analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		termDF:     make(map[string]int64),
		termCats:   make(map[string]map[string]int64),
		catDF:      make(map[string]int64),
		pairCounts: make(map[Pair]int64),
	}
}

// Process consumes one page's report.
func (a *Analyzer) Process(r scan.Report) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalPages++

	seen := make(map[string]struct{})
	cats := r.Categories()
	for _, cat := range cats {
		a.catDF[cat]++
		for _, tm := range r[cat] {
			a.matches += int64(len(tm.Matches))
			if a.termCats[tm.Term] == nil {
				a.termCats[tm.Term] = make(map[string]int64)
			}
			a.termCats[tm.Term][cat]++
			if _, ok := seen[tm.Term]; ok {
				continue
			}
			seen[tm.Term] = struct{}{}
			a.termDF[tm.Term]++
		}
	}

	for i := 0; i < len(cats); i++ {
		for j := i + 1; j < len(cats); j++ {
			a.pairCounts[newPair(cats[i], cats[j])]++
		}
	}
}

// Stats exposes the aggregated counts.
type Stats struct {
	TotalPages   int64
	TotalMatches int64
	TermDF       map[string]int64
	TermCats     map[string]map[string]int64
	CategoryDF   map[string]int64
	PairCounts   map[Pair]int64 // pages reporting both categories
}

// Snapshot returns a copy of the accumulated statistics.
func (a *Analyzer) Snapshot() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	copyCats := make(map[string]map[string]int64, len(a.termCats))
	for term, cats := range a.termCats {
		copyCats[term] = make(map[string]int64, len(cats))
		for cat, count := range cats {
			copyCats[term][cat] = count
		}
	}
	copyDF := make(map[string]int64, len(a.termDF))
	for term, count := range a.termDF {
		copyDF[term] = count
	}
	copyCatDF := make(map[string]int64, len(a.catDF))
	for cat, count := range a.catDF {
		copyCatDF[cat] = count
	}
	copyPairs := make(map[Pair]int64, len(a.pairCounts))
	for p, count := range a.pairCounts {
		copyPairs[p] = count
	}
	return Stats{
		TotalPages:   a.totalPages,
		TotalMatches: a.matches,
		TermDF:       copyDF,
		TermCats:     copyCats,
		CategoryDF:   copyCatDF,
		PairCounts:   copyPairs,
	}
}

// TermStat describes how widely a term occurs.
type TermStat struct {
	Term       string
	Categories []string
	Pages      int64
	Share      float64 // fraction of pages containing the term
}

// TopTerms returns the terms found on the most pages, ties broken
// alphabetically. A limit <= 0 returns all of them.
func (s Stats) TopTerms(limit int) []TermStat {
	if s.TotalPages == 0 {
		return nil
	}
	out := make([]TermStat, 0, len(s.TermDF))
	for term, df := range s.TermDF {
		cats := make([]string, 0, len(s.TermCats[term]))
		for cat := range s.TermCats[term] {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		out = append(out, TermStat{
			Term:       term,
			Categories: cats,
			Pages:      df,
			Share:      float64(df) / float64(s.TotalPages),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pages == out[j].Pages {
			return out[i].Term < out[j].Term
		}
		return out[i].Pages > out[j].Pages
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// PairStat scores two categories reported on the same pages.
type PairStat struct {
	A       string
	B       string
	PMI     float64 // page-level association
	Support int64   // pages reporting both
}

// CategoryPairs returns category pairs with support >= minSupport, ranked
// by PMI.
func (s Stats) CategoryPairs(minSupport int64) []PairStat {
	var out []PairStat
	for p, count := range s.PairCounts {
		if count < minSupport {
			continue
		}
		dfA := s.CategoryDF[p.A]
		dfB := s.CategoryDF[p.B]
		if dfA == 0 || dfB == 0 {
			continue
		}
		out = append(out, PairStat{
			A:       p.A,
			B:       p.B,
			PMI:     computePMI(count, dfA, dfB, s.TotalPages),
			Support: count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PMI == out[j].PMI {
			if out[i].A == out[j].A {
				return out[i].B < out[j].B
			}
			return out[i].A < out[j].A
		}
		return out[i].PMI > out[j].PMI
	})
	return out
}

func computePMI(pairCount, dfA, dfB, total int64) float64 {
	if dfA == 0 || dfB == 0 || total == 0 {
		return 0
	}
	smooth := 1.0
	numerator := (float64(pairCount) + smooth) / float64(total)
	denominator := ((float64(dfA) + smooth) / float64(total)) * ((float64(dfB) + smooth) / float64(total))
	return math.Log(numerator / denominator)
}

// Pair is an alphabetically ordered pair of categories.
type Pair struct {
	A string
	B string
}

func newPair(a, b string) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}
