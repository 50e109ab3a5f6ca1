package feature

import (
	"math"
	"strings"
)

// skewCandidates are columns that commonly carry heavy right tails. Any of
// them with |skewness| > 1 gets an additional log1p column; the original
// column is retained.
var skewCandidates = []string{
	"total_backlinks", "referring_domains", "content_length",
	"page_size", "javascript_size", "css_size", "image_size",
	"impressions", "clicks", "traffic", "dwell_time",
	"largest_contentful_paint", "time_to_first_byte",
	"backlinks_last_30_days", "content_age_days",
}

// selectSkewed picks the candidates whose fit-time distribution is heavy
// enough to warrant a log column. The selection is part of the fitted state:
// transform mode must emit the same columns no matter how a later batch is
// distributed.
func selectSkewed(f *Frame) []string {
	var out []string
	for _, name := range skewCandidates {
		col, ok := f.Numeric(name)
		if !ok {
			continue
		}
		if math.Abs(skewness(col)) > 1 {
			out = append(out, name)
		}
	}
	return out
}

// applyLogColumns emits a log1p column for every selected source column
// present in the frame.
func applyLogColumns(f *Frame, names []string) {
	for _, name := range names {
		if col, ok := f.Numeric(name); ok {
			f.SetNumeric(name+"_log", log1pCol(col))
		}
	}
}

// fillMissing imputes missing values: count-like columns get 0, rate/ratio/
// score-like columns get the column median, text columns get "unknown".
// Fit mode records the medians so transform mode imputes identically.
func (p *Pipeline) fillMissing(f *Frame, fit bool) {
	if fit {
		p.medians = make(map[string]float64)
	}
	for _, name := range f.NumericColumns() {
		col, _ := f.Numeric(name)
		hasMissing := false
		for _, v := range col {
			if math.IsNaN(v) {
				hasMissing = true
				break
			}
		}
		if !hasMissing {
			if fit {
				p.medians[name] = median(col)
			}
			continue
		}

		fill := 0.0
		if !isCountLike(name) {
			if fit {
				fill = median(col)
			} else if m, ok := p.medians[name]; ok {
				fill = m
			} else {
				fill = median(col)
			}
		}
		if fit {
			p.medians[name] = fill
		}
		for i, v := range col {
			if math.IsNaN(v) {
				col[i] = fill
			}
		}
	}

	for _, name := range f.Columns() {
		if col, ok := f.Text(name); ok {
			for i, v := range col {
				if v == "" {
					col[i] = "unknown"
				}
			}
		}
	}
}

func isCountLike(name string) bool {
	for _, kw := range []string{"count", "total", "number"} {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
