package ranking

import "sort"

// TreeNode is one node of a regression tree. Leaves carry Value; internal
// nodes split on Feature at Threshold (left: <= threshold). The exported
// shape is what gets persisted in model artifacts.
type TreeNode struct {
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Value     float64   `json:"value"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
}

// Leaf reports whether the node terminates prediction.
func (n *TreeNode) Leaf() bool { return n.Left == nil && n.Right == nil }

// Predict walks the tree for one feature row.
func (n *TreeNode) Predict(x []float64) float64 {
	node := n
	for !node.Leaf() {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

type treeParams struct {
	maxDepth       int
	minSamplesLeaf int
}

// fitTree builds a least-squares regression tree on the target vector,
// restricted to the given row subset. Gain per split is accumulated into
// importances by feature index.
func fitTree(x [][]float64, target []float64, rows []int, p treeParams, importances []float64) *TreeNode {
	return buildNode(x, target, rows, 0, p, importances)
}

func buildNode(x [][]float64, target []float64, rows []int, depth int, p treeParams, importances []float64) *TreeNode {
	node := &TreeNode{Value: meanTarget(target, rows)}
	if depth >= p.maxDepth || len(rows) < 2*p.minSamplesLeaf {
		return node
	}

	feature, threshold, gain, ok := bestSplit(x, target, rows, p.minSamplesLeaf)
	if !ok {
		return node
	}

	var left, right []int
	for _, r := range rows {
		if x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	if len(left) < p.minSamplesLeaf || len(right) < p.minSamplesLeaf {
		return node
	}

	importances[feature] += gain
	node.Feature = feature
	node.Threshold = threshold
	node.Left = buildNode(x, target, left, depth+1, p, importances)
	node.Right = buildNode(x, target, right, depth+1, p, importances)
	return node
}

func meanTarget(target []float64, rows []int) float64 {
	if len(rows) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range rows {
		sum += target[r]
	}
	return sum / float64(len(rows))
}

// bestSplit scans every feature with a sorted prefix-sum sweep and returns
// the split with the highest variance reduction.
func bestSplit(x [][]float64, target []float64, rows []int, minLeaf int) (feature int, threshold, gain float64, ok bool) {
	if len(rows) == 0 {
		return 0, 0, 0, false
	}
	nFeatures := len(x[rows[0]])

	total := 0.0
	totalSq := 0.0
	for _, r := range rows {
		total += target[r]
		totalSq += target[r] * target[r]
	}
	n := float64(len(rows))
	parentSSE := totalSq - total*total/n

	order := make([]int, len(rows))
	bestGain := 1e-12

	for f := 0; f < nFeatures; f++ {
		copy(order, rows)
		sort.Slice(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		leftSum := 0.0
		leftSq := 0.0
		for i := 0; i < len(order)-1; i++ {
			r := order[i]
			leftSum += target[r]
			leftSq += target[r] * target[r]

			// Cannot split between identical feature values.
			if x[order[i]][f] == x[order[i+1]][f] {
				continue
			}
			nl := float64(i + 1)
			nr := n - nl
			if int(nl) < minLeaf || int(nr) < minLeaf {
				continue
			}
			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			g := parentSSE - sse
			if g > bestGain {
				bestGain = g
				feature = f
				threshold = (x[order[i]][f] + x[order[i+1]][f]) / 2
				ok = true
			}
		}
	}
	return feature, threshold, bestGain, ok
}
