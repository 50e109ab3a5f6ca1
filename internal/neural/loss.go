package neural

import (
	"math"
	"sort"
)

// pairwiseGradients computes per-sample gradients of the pairwise ranking
// loss over one query group. For each pair with differing labels the loss is
// logistic in the score difference, oriented so the higher-labeled document
// should score higher, and weighted by the absolute difference of inverse
// log-rank discounts at the documents' current predicted ranks. Equal-label
// pairs contribute nothing. The returned gradients are d(loss)/d(score),
// averaged over pairs.
func pairwiseGradients(scores, labels []float64, grad []float64) float64 {
	n := len(scores)
	for i := range grad[:n] {
		grad[i] = 0
	}

	rank := scoreRanks(scores[:n])
	loss := 0.0
	pairs := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if labels[i] <= labels[j] {
				continue
			}
			weight := math.Abs(1/math.Log2(float64(rank[i])+2) - 1/math.Log2(float64(rank[j])+2))
			diff := scores[i] - scores[j]
			loss += weight * math.Log1p(math.Exp(-diff))
			// d/ds_i of w*log(1+e^{-(s_i-s_j)}) = -w * sigmoid(-(s_i-s_j))
			g := -weight / (1 + math.Exp(diff))
			grad[i] += g
			grad[j] -= g
			pairs++
		}
	}
	if pairs > 0 {
		inv := 1.0 / float64(pairs)
		loss *= inv
		for i := 0; i < n; i++ {
			grad[i] *= inv
		}
	}
	return loss
}

// scoreRanks assigns each document its 0-indexed position in the current
// score-descending ordering, ties broken by original index. The discount
// anchor tracks the model's present ranking, so a misplaced document carries
// the weight of the position it actually occupies.
func scoreRanks(scores []float64) []int {
	n := len(scores)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	rank := make([]int, n)
	for pos, idx := range order {
		rank[idx] = pos
	}
	return rank
}
