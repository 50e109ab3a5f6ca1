package quality

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rankforge/rankforge/internal/feature"
)

// Gate scores feature records against a threshold table and optionally
// filters out records below a minimum overall score.
type Gate struct {
	table   Table
	workers int
}

// NewGate creates a gate. workers bounds scoring concurrency.
func NewGate(table Table, workers int) *Gate {
	if workers <= 0 {
		workers = 4
	}
	return &Gate{table: table, workers: workers}
}

// ScoreRecords evaluates every record concurrently. The result slice is
// index-aligned with the input.
func (g *Gate) ScoreRecords(ctx context.Context, records []feature.Record) ([]*Report, error) {
	reports := make([]*Report, len(records))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for i := range records {
		i := i
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = OverallQuality(records[i].NumericValues(), g.table)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Filter returns the records whose overall quality score meets minScore,
// preserving input order. minScore <= 0 admits everything.
func (g *Gate) Filter(ctx context.Context, records []feature.Record, minScore float64) ([]feature.Record, []*Report, error) {
	reports, err := g.ScoreRecords(ctx, records)
	if err != nil {
		return nil, nil, err
	}
	if minScore <= 0 {
		return records, reports, nil
	}
	var kept []feature.Record
	var keptReports []*Report
	for i, r := range reports {
		if r.OverallScore >= minScore {
			kept = append(kept, records[i])
			keptReports = append(keptReports, r)
		}
	}
	return kept, keptReports, nil
}
