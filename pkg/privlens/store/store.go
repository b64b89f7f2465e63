package store

import (
	"context"
	"time"

	"github.com/cognicore/privlens/pkg/privlens/scan"
	"github.com/cognicore/privlens/pkg/privlens/vocab"
)

// Store persists what the host keeps between runs: the user's vocabulary
// additions and saved scan reports.
type Store interface {
	Close() error

	// User vocabulary
	UserTerms(ctx context.Context) (vocab.Table, error)
	SetUserTerms(ctx context.Context, category string, terms []string) error

	// Reports
	SaveReport(ctx context.Context, r SavedReport) error
	LastReport(ctx context.Context) (SavedReport, error)
	GetReport(ctx context.Context, id string) (SavedReport, error)
	ListReports(ctx context.Context, limit int) ([]SavedReport, error)
}

// SavedReport is a scan report with the page it came from.
type SavedReport struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	URL       string      `json:"url"`
	CreatedAt time.Time   `json:"created_at"`
	Results   scan.Report `json:"results"`
}

// Clone returns a deep copy of r.
func (r SavedReport) Clone() SavedReport {
	out := r
	if r.Results == nil {
		return out
	}
	out.Results = make(scan.Report, len(r.Results))
	for cat, terms := range r.Results {
		cp := make([]scan.TermMatches, len(terms))
		for i, tm := range terms {
			cp[i] = scan.TermMatches{
				Term:    tm.Term,
				Matches: append([]scan.MatchRecord(nil), tm.Matches...),
			}
		}
		out.Results[cat] = cp
	}
	return out
}
