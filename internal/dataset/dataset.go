// Package dataset assembles training datasets: ordered feature records
// grouped contiguously by query ID, with graded relevance labels.
package dataset

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/rankforge/rankforge/internal/feature"
	"github.com/rankforge/rankforge/internal/pkg/errors"
)

// Dataset is an ordered sequence of records sorted by query ID so that all
// rows of one query are contiguous. Built fresh per training invocation.
type Dataset struct {
	Records  []feature.Record
	Labels   []float64
	QueryIDs []string
	Groups   []int
}

// Build sorts records by query ID (stable, preserving within-group order)
// and computes contiguous group sizes.
func Build(records []feature.Record) (*Dataset, error) {
	if len(records) == 0 {
		return nil, errors.DatasetError("no records")
	}
	for i, r := range records {
		if r.QueryID == "" {
			return nil, errors.Newf(errors.CodeDataset, "record %d has no query_id", i)
		}
		if !r.Labeled {
			return nil, errors.Newf(errors.CodeDataset, "record %d has no relevance label", i)
		}
	}

	sorted := make([]feature.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].QueryID < sorted[b].QueryID
	})

	d := &Dataset{
		Records:  sorted,
		Labels:   make([]float64, len(sorted)),
		QueryIDs: make([]string, len(sorted)),
	}
	for i, r := range sorted {
		d.Labels[i] = r.Label
		d.QueryIDs[i] = r.QueryID
	}
	d.Groups = GroupSizes(d.QueryIDs)
	return d, nil
}

// GroupSizes computes contiguous group sizes from sorted query IDs.
func GroupSizes(queryIDs []string) []int {
	var groups []int
	for i := range queryIDs {
		if i == 0 || queryIDs[i] != queryIDs[i-1] {
			groups = append(groups, 1)
		} else {
			groups[len(groups)-1]++
		}
	}
	return groups
}

// Validate checks the grouping invariant: group sizes sum to the row count.
func (d *Dataset) Validate() error {
	sum := 0
	for _, g := range d.Groups {
		sum += g
	}
	if sum != len(d.Records) {
		return errors.Newf(errors.CodeDataset,
			"group sizes sum to %d but dataset has %d rows", sum, len(d.Records))
	}
	return nil
}

// Load reads feature records from a JSON array file.
func Load(path string) ([]feature.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeDataset, "reading dataset", err)
	}
	var records []feature.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(errors.CodeDataset, "parsing dataset", err)
	}
	return records, nil
}
