package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cognicore/privlens/pkg/privlens/internalerr"
	"github.com/cognicore/privlens/pkg/privlens/store"
	"github.com/cognicore/privlens/pkg/privlens/vocab"
)

// Store is an in-memory implementation of store.Store for tests and
// ephemeral hosts.
type Store struct {
	mu       sync.RWMutex
	catOrder []string
	terms    map[string][]string
	reports  map[string]store.SavedReport
	seq      map[string]int64
	nextSeq  int64
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		terms:   make(map[string][]string),
		reports: make(map[string]store.SavedReport),
		seq:     make(map[string]int64),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// UserTerms returns the stored user vocabulary in insertion order.
func (s *Store) UserTerms(ctx context.Context) (vocab.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return vocab.NewTable(s.catOrder, s.terms), nil
}

// SetUserTerms replaces the terms of a category. An empty list deletes it.
func (s *Store) SetUserTerms(ctx context.Context, category string, terms []string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return fmt.Errorf("set user terms: empty category: %w", internalerr.ErrInvalidInput)
	}

	clean := make([]string, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		clean = append(clean, t)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.terms[category]
	if len(clean) == 0 {
		if exists {
			delete(s.terms, category)
			for i, c := range s.catOrder {
				if c == category {
					s.catOrder = append(s.catOrder[:i:i], s.catOrder[i+1:]...)
					break
				}
			}
		}
		return nil
	}
	if !exists {
		s.catOrder = append(s.catOrder, category)
	}
	s.terms[category] = clean
	return nil
}

// SaveReport inserts or replaces a report by ID.
func (s *Store) SaveReport(ctx context.Context, r store.SavedReport) error {
	if r.ID == "" {
		return fmt.Errorf("save report: missing id: %w", internalerr.ErrInvalidInput)
	}

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[r.ID]; !ok {
		s.nextSeq++
		s.seq[r.ID] = s.nextSeq
	}
	s.reports[r.ID] = r.Clone()
	return nil
}

// LastReport returns the most recently created report.
func (s *Store) LastReport(ctx context.Context) (store.SavedReport, error) {
	list, err := s.ListReports(ctx, 1)
	if err != nil {
		return store.SavedReport{}, err
	}
	if len(list) == 0 {
		return store.SavedReport{}, fmt.Errorf("last report: %w", internalerr.ErrNotFound)
	}
	return list[0], nil
}

// GetReport returns a report by ID.
func (s *Store) GetReport(ctx context.Context, id string) (store.SavedReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return store.SavedReport{}, fmt.Errorf("report %s: %w", id, internalerr.ErrNotFound)
	}
	return r.Clone(), nil
}

// ListReports returns up to limit reports, newest first. A non-positive
// limit returns all of them.
func (s *Store) ListReports(ctx context.Context, limit int) ([]store.SavedReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.SavedReport, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return s.seq[a.ID] > s.seq[b.ID]
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out, nil
}

var _ store.Store = (*Store)(nil)
