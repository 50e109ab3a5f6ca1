package feature

import "math"

// contentToCodeCeiling caps the content-to-code ratio when the denominator is
// zero (pure-content pages with no scripts or styles).
const contentToCodeCeiling = 100

// ratio divides num by den element-wise, substituting def when den is zero.
// NaN operands propagate NaN so the missing-value step can impute them.
func ratio(num, den []float64, def float64) []float64 {
	out := make([]float64, len(num))
	for i := range num {
		switch {
		case math.IsNaN(num[i]) || math.IsNaN(den[i]):
			out[i] = math.NaN()
		case den[i] == 0:
			out[i] = def
		default:
			out[i] = num[i] / den[i]
		}
	}
	return out
}

// ratioFeatures derives guarded ratio and percentage features. Every ratio
// substitutes a per-ratio default instead of dividing by zero.
func ratioFeatures(f *Frame) {
	if f.HasNumeric("images_with_alt_text", "image_count") {
		alt, _ := f.Numeric("images_with_alt_text")
		total, _ := f.Numeric("image_count")
		// No images means nothing is missing alt text.
		f.SetNumeric("image_alt_ratio", ratio(alt, total, 1.0))
	}

	if f.HasNumeric("dofollow_links", "total_backlinks") {
		dofollow, _ := f.Numeric("dofollow_links")
		total, _ := f.Numeric("total_backlinks")
		f.SetNumeric("dofollow_ratio", ratio(dofollow, total, 0.0))
	}

	if f.HasNumeric("high_authority_links", "low_authority_links", "total_backlinks") {
		high, _ := f.Numeric("high_authority_links")
		low, _ := f.Numeric("low_authority_links")
		total, _ := f.Numeric("total_backlinks")
		f.SetNumeric("high_authority_ratio", ratio(high, total, 0.0))

		concentration := make([]float64, f.Len())
		for i := range concentration {
			if math.IsNaN(high[i]) || math.IsNaN(low[i]) || math.IsNaN(total[i]) {
				concentration[i] = math.NaN()
			} else if total[i] == 0 {
				concentration[i] = 0
			} else {
				concentration[i] = high[i] / (low[i] + 1)
			}
		}
		f.SetNumeric("authority_concentration", concentration)
	}

	anchorCols := []string{"exact_match_anchors", "partial_match_anchors", "branded_anchors", "generic_anchors"}
	if f.HasNumeric(anchorCols...) {
		totals := make([]float64, f.Len())
		for _, name := range anchorCols {
			col, _ := f.Numeric(name)
			for i, v := range col {
				if !math.IsNaN(v) {
					totals[i] += v
				}
			}
		}
		for _, name := range anchorCols {
			col, _ := f.Numeric(name)
			ratioName := name[:len(name)-len("_anchors")] + "_anchor_ratio"
			f.SetNumeric(ratioName, ratio(col, totals, 0.0))
		}
	}

	if f.HasNumeric("content_length", "javascript_size", "css_size") {
		content, _ := f.Numeric("content_length")
		js, _ := f.Numeric("javascript_size")
		css, _ := f.Numeric("css_size")
		out := make([]float64, f.Len())
		for i := range out {
			if math.IsNaN(content[i]) || math.IsNaN(js[i]) || math.IsNaN(css[i]) {
				out[i] = math.NaN()
				continue
			}
			code := js[i] + css[i]
			if code == 0 {
				out[i] = contentToCodeCeiling
				continue
			}
			out[i] = math.Min(content[i]/code, contentToCodeCeiling)
		}
		f.SetNumeric("content_to_code_ratio", out)
	}

	if f.HasNumeric("engagement_rate", "bounce_rate") {
		engagement, _ := f.Numeric("engagement_rate")
		bounce, _ := f.Numeric("bounce_rate")
		out := make([]float64, f.Len())
		for i := range out {
			if math.IsNaN(engagement[i]) || math.IsNaN(bounce[i]) {
				out[i] = math.NaN()
			} else {
				out[i] = engagement[i] * (1 - bounce[i])
			}
		}
		f.SetNumeric("engagement_efficiency", out)
	}

	if f.HasNumeric("backlinks_last_30_days", "total_backlinks") {
		recent, _ := f.Numeric("backlinks_last_30_days")
		total, _ := f.Numeric("total_backlinks")
		velocity := make([]float64, f.Len())
		for i := range velocity {
			if math.IsNaN(recent[i]) || math.IsNaN(total[i]) {
				velocity[i] = math.NaN()
			} else {
				velocity[i] = recent[i] / (total[i] + 1)
			}
		}
		f.SetNumeric("backlink_velocity", velocity)
	}
}
