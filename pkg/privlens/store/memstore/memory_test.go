package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cognicore/privlens/pkg/privlens/internalerr"
	"github.com/cognicore/privlens/pkg/privlens/scan"
	"github.com/cognicore/privlens/pkg/privlens/store"
)

func sampleReport(id string, at time.Time) store.SavedReport {
	return store.SavedReport{
		ID:        id,
		Title:     "Privacy Policy",
		URL:       "https://example.com/privacy",
		CreatedAt: at,
		Results: scan.Report{
			"Location": {
				{Term: "gps", Matches: []scan.MatchRecord{{Match: "GPS", Term: "gps", Index: 5, Snippet: "Uses GPS", Score: 1}}},
			},
		},
	}
}

func TestUserTermsReplaceAndOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.SetUserTerms(ctx, "Health", []string{"blood type", "blood type", " "}); err != nil {
		t.Fatalf("SetUserTerms: %v", err)
	}
	if err := s.SetUserTerms(ctx, "Gadgets", []string{"smart ring"}); err != nil {
		t.Fatalf("SetUserTerms: %v", err)
	}
	if err := s.SetUserTerms(ctx, "Health", []string{"allergies"}); err != nil {
		t.Fatalf("SetUserTerms: %v", err)
	}

	table, err := s.UserTerms(ctx)
	if err != nil {
		t.Fatalf("UserTerms: %v", err)
	}
	cats := table.Categories()
	if len(cats) != 2 || cats[0] != "Health" || cats[1] != "Gadgets" {
		t.Fatalf("Expected [Health Gadgets], got %v", cats)
	}
	if terms := table.Terms("Health"); len(terms) != 1 || terms[0] != "allergies" {
		t.Errorf("Expected replaced terms [allergies], got %v", terms)
	}

	if err := s.SetUserTerms(ctx, "Health", nil); err != nil {
		t.Fatalf("SetUserTerms: %v", err)
	}
	table, _ = s.UserTerms(ctx)
	if cats := table.Categories(); len(cats) != 1 || cats[0] != "Gadgets" {
		t.Errorf("Expected Health deleted, got %v", cats)
	}
}

func TestSetUserTermsEmptyCategory(t *testing.T) {
	err := New().SetUserTerms(context.Background(), "  ", []string{"x"})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestReports(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.LastReport(ctx); !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on empty store, got %v", err)
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := s.SaveReport(ctx, sampleReport(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("SaveReport %s: %v", id, err)
		}
	}

	last, err := s.LastReport(ctx)
	if err != nil {
		t.Fatalf("LastReport: %v", err)
	}
	if last.ID != "c" {
		t.Errorf("Expected newest report c, got %s", last.ID)
	}

	list, _ := s.ListReports(ctx, 2)
	if len(list) != 2 || list[0].ID != "c" || list[1].ID != "b" {
		t.Errorf("Expected [c b], got %v", list)
	}

	got, err := s.GetReport(ctx, "a")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.Results.MatchCount() != 1 {
		t.Errorf("Expected 1 match, got %d", got.Results.MatchCount())
	}

	if _, err := s.GetReport(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := s.SaveReport(ctx, store.SavedReport{}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for missing id, got %v", err)
	}
}

func TestReportsAreCopied(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := sampleReport("a", time.Now())
	if err := s.SaveReport(ctx, r); err != nil {
		t.Fatal(err)
	}
	r.Results["Location"][0].Term = "mutated"

	got, _ := s.GetReport(ctx, "a")
	if got.Results["Location"][0].Term != "gps" {
		t.Errorf("Stored report should not alias the caller's, got %q", got.Results["Location"][0].Term)
	}

	got.Results["Location"][0].Matches[0].Snippet = "changed"
	again, _ := s.GetReport(ctx, "a")
	if again.Results["Location"][0].Matches[0].Snippet != "Uses GPS" {
		t.Error("Returned report should not alias the stored one")
	}
}
