package quality

// Tier buckets a feature value or an overall report.
type Tier string

const (
	TierExcellent Tier = "excellent"
	TierGood      Tier = "good"
	TierFair      Tier = "fair"
	TierPoor      Tier = "poor"
)

// poorFloor is the minimum score any scored feature can receive.
const poorFloor = 0.1

// FeatureScore is the per-feature outcome of the gate.
type FeatureScore struct {
	Tier  Tier    `json:"tier"`
	Score float64 `json:"score"`
}

// Report summarizes the quality of one feature record. Derived on demand,
// never persisted as authoritative state.
type Report struct {
	OverallTier    Tier                    `json:"overall_tier"`
	OverallScore   float64                 `json:"overall_score"`
	FeatureScores  map[string]FeatureScore `json:"feature_scores"`
	CategoryScores map[Category]float64    `json:"category_scores"`
	GoodFeatures   int                     `json:"good_features"`
	PoorFeatures   int                     `json:"poor_features"`
	TotalFeatures  int                     `json:"total_features"`
}

// Evaluate scores a single feature value against the table. Unknown feature
// names never error; they yield a neutral Fair 0.5.
func Evaluate(name string, value float64, table Table) (Tier, float64) {
	spec, ok := table[name]
	if !ok {
		return TierFair, 0.5
	}
	if spec.Inverse {
		return evaluateInverse(value, spec)
	}
	return evaluateNormal(value, spec)
}

func evaluateNormal(v float64, s ThresholdSpec) (Tier, float64) {
	switch {
	case v >= s.MinExcellent && v <= s.MaxExcellent:
		return TierExcellent, 1.0
	case v >= s.MinGood && v <= s.MaxGood:
		// Two linear sub-bands inside Good: below the excellent band the score
		// rises toward it, above it the score falls away from it.
		if v < s.MinExcellent {
			return TierGood, 0.70 + 0.15*safeDiv(v-s.MinGood, s.MinExcellent-s.MinGood)
		}
		return TierGood, 0.85 + 0.15*(1-safeDiv(v-s.MaxExcellent, s.MaxGood-s.MaxExcellent))
	case v >= 0.5*s.MinGood && v < s.MinGood:
		return TierFair, 0.50 + 0.20*safeDiv(v-0.5*s.MinGood, 0.5*s.MinGood)
	default:
		if s.MinGood <= 0 {
			return TierPoor, poorFloor
		}
		return TierPoor, max(poorFloor, 0.5*v/(0.5*s.MinGood))
	}
}

func evaluateInverse(v float64, s ThresholdSpec) (Tier, float64) {
	switch {
	case v <= s.MinExcellent:
		return TierExcellent, 1.0
	case v <= s.MaxExcellent:
		return TierExcellent, 0.85 + 0.15*(1-safeDiv(v-s.MinExcellent, s.MaxExcellent-s.MinExcellent))
	case v <= s.MinGood:
		return TierGood, 0.70 + 0.15*(1-safeDiv(v-s.MaxExcellent, s.MinGood-s.MaxExcellent))
	case v <= s.MaxGood:
		return TierFair, 0.50 + 0.20*(1-safeDiv(v-s.MinGood, s.MaxGood-s.MinGood))
	default:
		if s.MaxGood <= 0 {
			return TierPoor, poorFloor
		}
		return TierPoor, max(poorFloor, 0.5-0.4*(v-s.MaxGood)/s.MaxGood)
	}
}

// OverallQuality scores every feature present in both the record and the table
// and aggregates a weighted report. Pure function of its inputs; safe for
// concurrent callers.
func OverallQuality(features map[string]float64, table Table) *Report {
	report := &Report{
		FeatureScores:  make(map[string]FeatureScore),
		CategoryScores: make(map[Category]float64),
	}

	categorySums := make(map[Category]float64)
	categoryCounts := make(map[Category]int)
	weightedSum := 0.0
	totalWeight := 0.0

	for name, value := range features {
		spec, ok := table[name]
		if !ok {
			continue
		}
		tier, score := Evaluate(name, value, table)
		report.FeatureScores[name] = FeatureScore{Tier: tier, Score: score}

		weightedSum += score * spec.Weight
		totalWeight += spec.Weight
		categorySums[spec.Category] += score
		categoryCounts[spec.Category]++

		switch tier {
		case TierExcellent, TierGood:
			report.GoodFeatures++
		case TierPoor:
			report.PoorFeatures++
		}
	}

	if totalWeight > 0 {
		report.OverallScore = weightedSum / totalWeight * 100
	}
	for cat, sum := range categorySums {
		report.CategoryScores[cat] = sum / float64(categoryCounts[cat]) * 100
	}
	report.TotalFeatures = len(report.FeatureScores)
	report.OverallTier = bucketOverall(report.OverallScore)

	return report
}

func bucketOverall(score float64) Tier {
	switch {
	case score >= 80:
		return TierExcellent
	case score >= 70:
		return TierGood
	case score >= 50:
		return TierFair
	default:
		return TierPoor
	}
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
