// Package maintenance keeps saved reports consistent with the vocabulary.
package maintenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/cognicore/privlens/pkg/privlens/index"
	"github.com/cognicore/privlens/pkg/privlens/scan"
	"github.com/cognicore/privlens/pkg/privlens/store"
)

// Cleaner rewrites saved reports after user terms are removed, dropping
// entries whose term or category the current index no longer holds.
type Cleaner struct {
	Store    store.Store
	Snapshot *index.Snapshot
	// DryRun counts what would change without saving.
	DryRun bool
}

// Result summarizes the cleaning run.
type Result struct {
	Processed int
	Updated   int
	Dropped   int // term entries removed
	Errors    int
}

// Clean walks every saved report and prunes stale term entries.
func (c *Cleaner) Clean(ctx context.Context) (Result, error) {
	var res Result
	if c.Store == nil || c.Snapshot == nil {
		return res, errors.New("cleaner: invalid configuration")
	}

	reports, err := c.Store.ListReports(ctx, 0)
	if err != nil {
		return res, fmt.Errorf("list reports: %w", err)
	}

	for _, r := range reports {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Processed++

		pruned, dropped := c.prune(r.Results)
		if dropped == 0 {
			continue
		}
		res.Dropped += dropped
		if c.DryRun {
			res.Updated++
			continue
		}

		r.Results = pruned
		if err := c.Store.SaveReport(ctx, r); err != nil {
			res.Errors++
			continue
		}
		res.Updated++
	}
	return res, nil
}

func (c *Cleaner) prune(results scan.Report) (scan.Report, int) {
	out := scan.Report{}
	dropped := 0
	for cat, terms := range results {
		for _, tm := range terms {
			if !contains(c.Snapshot.Index.Categories(tm.Term), cat) {
				dropped++
				continue
			}
			out[cat] = append(out[cat], tm)
		}
	}
	return out, dropped
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
