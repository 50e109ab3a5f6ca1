package feature

import "math"

// weightedComponent is one sub-score of a named composite.
type weightedComponent struct {
	column string
	weight float64
	// invert treats the column as a penalty (uses 1-value).
	invert bool
}

// compositeScores derives weighted combinations of available sub-scores.
// Weights are renormalized over only the sub-scores actually present.
func compositeScores(f *Frame) {
	technicalHealth(f)
	authorityComposite(f)
	userSatisfaction(f)
	eeatComposite(f)
	overallQuality(f)
}

func technicalHealth(f *Frame) {
	components := []weightedComponent{
		{column: "https_enabled", weight: 1.0},
		{column: "mobile_responsive", weight: 1.0},
		{column: "lcp_good", weight: 1.0},
		{column: "inp_good", weight: 1.0},
		{column: "cls_good", weight: 1.0},
		{column: "canonical_tag_correct", weight: 0.5},
		{column: "sitemap_present", weight: 0.5},
	}

	cols := make([][]float64, 0, len(components)+1)
	weights := make([]float64, 0, len(components)+1)
	for _, c := range components {
		if col, ok := f.Numeric(c.column); ok {
			cols = append(cols, col)
			weights = append(weights, c.weight)
		}
	}
	if broken, ok := f.Numeric("broken_internal_links"); ok {
		flag := make([]float64, f.Len())
		for i, v := range broken {
			if v == 0 {
				flag[i] = 1
			}
		}
		cols = append(cols, flag)
		weights = append(weights, 1.0)
	}
	if len(cols) == 0 {
		return
	}
	f.SetNumeric("technical_health_composite", weightedSum(cols, weights, f.Len()))
}

func authorityComposite(f *Frame) {
	candidates := []string{"domain_authority", "domain_rating", "trust_flow", "citation_flow"}
	var zcols [][]float64
	for _, name := range candidates {
		if col, ok := f.Numeric(name); ok {
			z := zscores(col)
			f.SetNumeric(name+"_zscore", z)
			zcols = append(zcols, z)
		}
	}
	if len(zcols) < 2 {
		return
	}

	n := f.Len()
	composite := make([]float64, n)
	consistency := make([]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(zcols))
		for j, z := range zcols {
			row[j] = z[i]
		}
		composite[i] = mean(row)
		consistency[i] = 1 / (popStd(row) + 1)
	}
	f.SetNumeric("authority_composite_enhanced", composite)
	f.SetNumeric("authority_consistency", consistency)
}

func userSatisfaction(f *Frame) {
	components := []weightedComponent{
		{column: "engagement_rate", weight: 1.0},
		{column: "bounce_rate", weight: 1.0, invert: true},
		{column: "dwell_time", weight: 0.8},
		{column: "pages_per_session", weight: 0.6},
		{column: "return_visitor_rate", weight: 0.8},
		{column: "pogosticking_rate", weight: 1.0, invert: true},
	}

	var zcols [][]float64
	var weights []float64
	for _, c := range components {
		col, ok := f.Numeric(c.column)
		if !ok {
			continue
		}
		med := median(col)
		filled := make([]float64, len(col))
		for i, v := range col {
			if math.IsNaN(v) {
				v = med
			}
			if c.invert {
				v = 1 - v
			}
			filled[i] = v
		}
		zcols = append(zcols, zscores(filled))
		weights = append(weights, c.weight)
	}
	if len(zcols) == 0 {
		return
	}
	f.SetNumeric("user_satisfaction_composite", weightedSum(zcols, weights, f.Len()))
}

func eeatComposite(f *Frame) {
	components := []weightedComponent{
		{column: "author_byline_present", weight: 0.5},
		{column: "author_bio_present", weight: 0.5},
		{column: "author_expertise_signals", weight: 1.0},
		{column: "citation_count", weight: 0.8},
		{column: "external_reference_quality", weight: 1.0},
		{column: "domain_authority", weight: 1.0},
		{column: "trust_flow", weight: 1.0},
	}

	var cols [][]float64
	var weights []float64
	for _, c := range components {
		col, ok := f.Numeric(c.column)
		if !ok {
			continue
		}
		cols = append(cols, normalizeToUnit(col))
		weights = append(weights, c.weight)
	}
	// Content depth: length normalized against a 5000-word benchmark.
	if length, ok := f.Numeric("content_length"); ok {
		depth := make([]float64, len(length))
		for i, v := range length {
			if math.IsNaN(v) {
				depth[i] = math.NaN()
			} else {
				depth[i] = math.Min(v/5000, 1.0)
			}
		}
		cols = append(cols, depth)
		weights = append(weights, 1.0)
	}
	if len(cols) == 0 {
		return
	}
	f.SetNumeric("eeat_composite_score", weightedSum(cols, weights, f.Len()))
}

func overallQuality(f *Frame) {
	candidates := []string{
		"technical_health_composite",
		"authority_composite_enhanced",
		"user_satisfaction_composite",
		"eeat_composite_score",
		"content_quality_score",
	}
	var cols [][]float64
	for _, name := range candidates {
		if col, ok := f.Numeric(name); ok {
			cols = append(cols, col)
		}
	}
	if len(cols) < 3 {
		return
	}

	n := f.Len()
	overall := make([]float64, n)
	balance := make([]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(cols))
		for j, col := range cols {
			row[j] = col[i]
		}
		overall[i] = mean(row)
		balance[i] = 1 / (popStd(row) + 0.1)
	}
	f.SetNumeric("overall_quality_score", overall)
	f.SetNumeric("quality_balance_score", balance)
}

// weightedSum computes the weight-renormalized combination of columns.
// NaN entries contribute zero for that row without dropping its weight.
func weightedSum(cols [][]float64, weights []float64, n int) []float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	out := make([]float64, n)
	if total == 0 {
		return out
	}
	for i := 0; i < n; i++ {
		sum := 0.0
		for j, col := range cols {
			if !math.IsNaN(col[i]) {
				sum += col[i] * weights[j] / total
			}
		}
		out[i] = sum
	}
	return out
}

// normalizeToUnit scales a column into [0,1] by its max when it exceeds 1.
func normalizeToUnit(col []float64) []float64 {
	maxVal := 0.0
	for _, v := range col {
		if !math.IsNaN(v) && v > maxVal {
			maxVal = v
		}
	}
	if maxVal <= 1 {
		return col
	}
	out := make([]float64, len(col))
	for i, v := range col {
		if math.IsNaN(v) {
			out[i] = math.NaN()
		} else {
			out[i] = v / maxVal
		}
	}
	return out
}
