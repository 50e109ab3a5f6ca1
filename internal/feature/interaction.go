package feature

import "math"

// interactionFeatures derives named products of domain-correlated signal
// pairs, z-score-normalized variants, and boolean divergence flags.
func interactionFeatures(f *Frame) {
	n := f.Len()

	if f.HasNumeric("content_quality_score", "total_backlinks") {
		qualityCol, _ := f.Numeric("content_quality_score")
		backlinks, _ := f.Numeric("total_backlinks")
		synergy := make([]float64, n)
		for i := range synergy {
			if math.IsNaN(qualityCol[i]) || math.IsNaN(backlinks[i]) {
				synergy[i] = math.NaN()
			} else {
				synergy[i] = qualityCol[i] * math.Log1p(math.Max(backlinks[i], 0))
			}
		}
		f.SetNumeric("content_backlink_synergy", synergy)

		qz := zscores(qualityCol)
		bz := zscores(log1pCol(backlinks))
		product := make([]float64, n)
		for i := range product {
			product[i] = qz[i] * bz[i]
		}
		f.SetNumeric("content_backlink_product", product)
	}

	if f.HasNumeric("engagement_rate", "average_position") {
		engagement, _ := f.Numeric("engagement_rate")
		position, _ := f.Numeric("average_position")
		score := make([]float64, n)
		for i := range score {
			if math.IsNaN(engagement[i]) || math.IsNaN(position[i]) {
				score[i] = math.NaN()
			} else {
				score[i] = engagement[i] / (position[i] + 1)
			}
		}
		f.SetNumeric("engagement_position_score", score)

		// High engagement despite a poor rank position suggests the page is
		// under-ranked relative to user response.
		med := median(engagement)
		flag := make([]float64, n)
		for i := range flag {
			if !math.IsNaN(engagement[i]) && !math.IsNaN(position[i]) &&
				engagement[i] > med && position[i] > 10 {
				flag[i] = 1
			}
		}
		f.SetNumeric("engagement_outperforms_position", flag)
	}

	if f.HasNumeric("mobile_responsive", "mobile_traffic_ratio") {
		responsive, _ := f.Numeric("mobile_responsive")
		traffic, _ := f.Numeric("mobile_traffic_ratio")
		impact := make([]float64, n)
		penalty := make([]float64, n)
		for i := range impact {
			if math.IsNaN(responsive[i]) || math.IsNaN(traffic[i]) {
				impact[i] = math.NaN()
				continue
			}
			impact[i] = responsive[i] * traffic[i]
			if responsive[i] == 0 && traffic[i] > 0.5 {
				penalty[i] = 1
			}
		}
		f.SetNumeric("mobile_optimization_impact", impact)
		f.SetNumeric("mobile_penalty_risk", penalty)
	}

	if f.HasNumeric("technical_health_score", "content_quality_score") {
		tech, _ := f.Numeric("technical_health_score")
		content, _ := f.Numeric("content_quality_score")
		synergy := make([]float64, n)
		for i := range synergy {
			if math.IsNaN(tech[i]) || math.IsNaN(content[i]) {
				synergy[i] = math.NaN()
			} else {
				synergy[i] = tech[i] * content[i]
			}
		}
		f.SetNumeric("technical_content_synergy", synergy)
	}

	if f.HasNumeric("domain_authority", "content_age") {
		authority, _ := f.Numeric("domain_authority")
		age, _ := f.Numeric("content_age")
		score := make([]float64, n)
		for i := range score {
			if math.IsNaN(authority[i]) || math.IsNaN(age[i]) {
				score[i] = math.NaN()
			} else {
				score[i] = authority[i] / (math.Log1p(math.Max(age[i], 0)) + 1)
			}
		}
		f.SetNumeric("authority_freshness_score", score)
	}

	if f.HasNumeric("largest_contentful_paint", "engagement_rate") {
		lcp, _ := f.Numeric("largest_contentful_paint")
		engagement, _ := f.Numeric("engagement_rate")
		product := make([]float64, n)
		for i := range product {
			if math.IsNaN(lcp[i]) || math.IsNaN(engagement[i]) {
				product[i] = math.NaN()
			} else {
				product[i] = engagement[i] / (lcp[i]/1000 + 1)
			}
		}
		f.SetNumeric("speed_engagement_product", product)
	}
}
