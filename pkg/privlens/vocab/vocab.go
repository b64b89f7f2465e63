package vocab

import (
	"strings"
	"sync"
)

// Table is an ordered category → terms mapping. Categories keep the order
// in which they were first added and terms keep insertion order within a
// category. The zero value is an empty table.
type Table struct {
	order []string
	terms map[string][]string
}

// NewTable builds a table from a plain map. Categories are added in the
// order given by cats; categories of m missing from cats are ignored.
func NewTable(cats []string, m map[string][]string) Table {
	var t Table
	for _, cat := range cats {
		t.append(cat, m[cat]...)
	}
	return t
}

// append adds terms to cat, skipping empty entries and exact duplicates.
func (t *Table) append(cat string, terms ...string) {
	if t.terms == nil {
		t.terms = make(map[string][]string)
	}
	if _, ok := t.terms[cat]; !ok {
		t.order = append(t.order, cat)
		t.terms[cat] = nil
	}
	for _, term := range terms {
		if term == "" || contains(t.terms[cat], term) {
			continue
		}
		t.terms[cat] = append(t.terms[cat], term)
	}
}

func (t *Table) remove(cat string) {
	if _, ok := t.terms[cat]; !ok {
		return
	}
	delete(t.terms, cat)
	for i, c := range t.order {
		if c == cat {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}
}

// Categories returns the category names in insertion order.
func (t Table) Categories() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Terms returns the terms of a category in insertion order.
func (t Table) Terms(cat string) []string {
	terms := t.terms[cat]
	out := make([]string, len(terms))
	copy(out, terms)
	return out
}

// Len returns the total number of (category, term) pairs.
func (t Table) Len() int {
	n := 0
	for _, terms := range t.terms {
		n += len(terms)
	}
	return n
}

// Each calls fn for every (category, term) pair in table order.
func (t Table) Each(fn func(category, term string)) {
	for _, cat := range t.order {
		for _, term := range t.terms[cat] {
			fn(cat, term)
		}
	}
}

// Map returns a plain map copy of the table, suitable for serialization.
func (t Table) Map() map[string][]string {
	out := make(map[string][]string, len(t.order))
	for _, cat := range t.order {
		out[cat] = t.Terms(cat)
	}
	return out
}

func (t Table) clone() Table {
	var c Table
	for _, cat := range t.order {
		c.append(cat, t.terms[cat]...)
	}
	return c
}

// Vocabulary holds the built-in table and the user-added terms.
// It is safe for concurrent use.
type Vocabulary struct {
	mu      sync.RWMutex
	builtin Table
	user    Table
}

// New creates a vocabulary over the given built-in table.
func New(builtin Table) *Vocabulary {
	return &Vocabulary{builtin: builtin.clone()}
}

// NewDefault creates a vocabulary over the built-in privacy table.
func NewDefault() *Vocabulary {
	return New(Builtin())
}

// SetUserTerms replaces the user-added terms of a category.
// An empty list removes the category from the user table.
func (v *Vocabulary) SetUserTerms(category string, terms []string) {
	category = strings.TrimSpace(category)
	if category == "" {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.user.remove(category)
	v.addLocked(category, terms)
}

// AddUserTerms extends the user-added terms of a category. Terms already
// present in the category (built-in or user, compared case-insensitively)
// are ignored, so repeated calls are no-ops.
func (v *Vocabulary) AddUserTerms(category string, terms ...string) {
	category = strings.TrimSpace(category)
	if category == "" {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.addLocked(category, terms)
}

func (v *Vocabulary) addLocked(category string, terms []string) {
	clean := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if containsFold(v.builtin.terms[category], term) ||
			containsFold(v.user.terms[category], term) ||
			containsFold(clean, term) {
			continue
		}
		clean = append(clean, term)
	}
	if len(clean) == 0 {
		return
	}
	v.user.append(category, clean...)
}

// RemoveUserTerm drops a user-added term. Built-in terms cannot be removed.
// Returns true if a term was removed.
func (v *Vocabulary) RemoveUserTerm(category, term string) bool {
	category = strings.TrimSpace(category)
	term = strings.TrimSpace(term)

	v.mu.Lock()
	defer v.mu.Unlock()

	terms, ok := v.user.terms[category]
	if !ok {
		return false
	}
	for i, t := range terms {
		if strings.EqualFold(t, term) {
			rest := append(terms[:i:i], terms[i+1:]...)
			if len(rest) == 0 {
				v.user.remove(category)
			} else {
				v.user.terms[category] = rest
			}
			return true
		}
	}
	return false
}

// UserTerms returns a copy of the user-added table.
func (v *Vocabulary) UserTerms() Table {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.user.clone()
}

// Merged returns the union of the built-in and user tables: built-in
// categories first in table order, then categories introduced by the user
// in the order they were first added. A term appears at most once per
// category.
func (v *Vocabulary) Merged() Table {
	v.mu.RLock()
	defer v.mu.RUnlock()

	merged := v.builtin.clone()
	v.user.Each(func(cat, term string) {
		merged.append(cat, term)
	})
	return merged
}

// Categories returns all category names of the merged vocabulary.
func (v *Vocabulary) Categories() []string {
	return v.Merged().Categories()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
