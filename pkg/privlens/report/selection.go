package report

import (
	"sort"
	"sync"

	"github.com/cognicore/privlens/pkg/privlens/vocab"
)

// Selection is the set of categories the user wants to see. A nil
// *Selection admits every category.
type Selection struct {
	mu  sync.RWMutex
	set map[string]struct{}
}

// NewSelection creates a selection holding cats.
func NewSelection(cats ...string) *Selection {
	s := &Selection{set: make(map[string]struct{}, len(cats))}
	for _, c := range cats {
		s.set[c] = struct{}{}
	}
	return s
}

// AllBuiltin selects every built-in category.
func AllBuiltin() *Selection {
	return NewSelection(vocab.BuiltinCategories()...)
}

// Has reports whether cat is selected.
func (s *Selection) Has(cat string) bool {
	if s == nil {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.set[cat]
	return ok
}

// Toggle flips cat and returns whether it is now selected.
func (s *Selection) Toggle(cat string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.set[cat]; ok {
		delete(s.set, cat)
		return false
	}
	s.set[cat] = struct{}{}
	return true
}

// Categories returns the selected categories sorted.
func (s *Selection) Categories() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.set))
	for c := range s.set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of selected categories.
func (s *Selection) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.set)
}
