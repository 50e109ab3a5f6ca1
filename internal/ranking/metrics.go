// Package ranking implements the batch learning-to-rank trainer: query-grouped
// data preparation, gradient-boosted pairwise ranking backends, and the
// grouped evaluation metrics (NDCG@k, MAP).
package ranking

import (
	"math"
	"sort"

	"github.com/rankforge/rankforge/internal/pkg/errors"
)

// DefaultKs are the NDCG cutoffs computed by Evaluate.
var DefaultKs = []int{3, 5, 10, 20}

// Metrics holds the outcome of one evaluation call. Always computed fresh,
// never cached across models.
type Metrics struct {
	NDCG map[int]float64 `json:"ndcg"`
	MAP  float64         `json:"map"`
	Loss float64         `json:"loss"`
}

// relevantThreshold binarizes graded labels for MAP: label >= 2 is relevant.
const relevantThreshold = 2

// rankedIndices returns the candidate indices sorted by predicted score
// descending. Ties keep the original index order (stable sort), which pins
// the tie-break behavior for identical scores.
func rankedIndices(scores []float64) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	return idx
}

// dcgAtK computes DCG@k with gain (2^rel - 1) and discount log2(rank+2) over
// 0-indexed ranks.
func dcgAtK(labels []float64, order []int, k int) float64 {
	if k > len(order) {
		k = len(order)
	}
	dcg := 0.0
	for i := 0; i < k; i++ {
		dcg += (math.Exp2(labels[order[i]]) - 1) / math.Log2(float64(i)+2)
	}
	return dcg
}

// NDCGAtK computes NDCG@k for one query group. Defined as 0 when the ideal
// DCG is 0.
func NDCGAtK(labels, scores []float64, k int) float64 {
	order := rankedIndices(scores)
	dcg := dcgAtK(labels, order, k)

	ideal := rankedIndices(labels)
	idcg := dcgAtK(labels, ideal, k)
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

// averagePrecision computes AP for one group with binarized relevance. The
// second return is false when the group has no relevant documents and must be
// excluded from MAP averaging.
func averagePrecision(labels, scores []float64) (float64, bool) {
	order := rankedIndices(scores)
	relevantSeen := 0
	sumPrecision := 0.0
	for rank, idx := range order {
		if labels[idx] >= relevantThreshold {
			relevantSeen++
			sumPrecision += float64(relevantSeen) / float64(rank+1)
		}
	}
	if relevantSeen == 0 {
		return 0, false
	}
	return sumPrecision / float64(relevantSeen), true
}

// pairwiseLoss computes the mean logistic loss over informative pairs of a
// group. Pairs with equal labels contribute nothing.
func pairwiseLoss(labels, scores []float64) (float64, int) {
	loss := 0.0
	pairs := 0
	for i := 0; i < len(labels); i++ {
		for j := i + 1; j < len(labels); j++ {
			if labels[i] == labels[j] {
				continue
			}
			diff := scores[i] - scores[j]
			if labels[i] < labels[j] {
				diff = -diff
			}
			loss += math.Log1p(math.Exp(-diff))
			pairs++
		}
	}
	return loss, pairs
}

// Evaluate computes grouped ranking metrics for predicted scores. The group
// sizes must sum to the row count; a mismatch is a fatal precondition
// violation.
func Evaluate(scores, labels []float64, groups []int) (*Metrics, error) {
	if len(scores) != len(labels) {
		return nil, errors.Newf(errors.CodeDataset,
			"scores length %d does not match labels length %d", len(scores), len(labels))
	}
	if err := checkGroups(groups, len(labels)); err != nil {
		return nil, err
	}

	m := &Metrics{NDCG: make(map[int]float64, len(DefaultKs))}
	ndcgSums := make(map[int]float64, len(DefaultKs))
	apSum := 0.0
	apGroups := 0
	lossSum := 0.0
	lossPairs := 0

	start := 0
	for _, size := range groups {
		gLabels := labels[start : start+size]
		gScores := scores[start : start+size]
		for _, k := range DefaultKs {
			ndcgSums[k] += NDCGAtK(gLabels, gScores, k)
		}
		if ap, ok := averagePrecision(gLabels, gScores); ok {
			apSum += ap
			apGroups++
		}
		l, p := pairwiseLoss(gLabels, gScores)
		lossSum += l
		lossPairs += p
		start += size
	}

	for _, k := range DefaultKs {
		m.NDCG[k] = ndcgSums[k] / float64(len(groups))
	}
	if apGroups > 0 {
		m.MAP = apSum / float64(apGroups)
	}
	if lossPairs > 0 {
		m.Loss = lossSum / float64(lossPairs)
	}
	return m, nil
}

// checkGroups verifies the grouping invariant before any training compute.
func checkGroups(groups []int, rows int) error {
	if len(groups) == 0 {
		return errors.DatasetError("no query groups")
	}
	sum := 0
	for _, g := range groups {
		if g <= 0 {
			return errors.DatasetError("group size must be positive")
		}
		sum += g
	}
	if sum != rows {
		return errors.Newf(errors.CodeDataset,
			"group sizes sum to %d but data has %d rows", sum, rows)
	}
	return nil
}

// meanNDCG computes the mean NDCG@k across groups; used as the early-stopping
// validation metric during boosting.
func meanNDCG(scores, labels []float64, groups []int, k int) float64 {
	sum := 0.0
	start := 0
	for _, size := range groups {
		sum += NDCGAtK(labels[start:start+size], scores[start:start+size], k)
		start += size
	}
	return sum / float64(len(groups))
}
