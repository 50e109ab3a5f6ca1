package ranking

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/rankforge/rankforge/internal/pkg/logger"
)

// syntheticRanking builds groups where the label is a noisy function of the
// first feature, so a working booster must recover the ordering.
func syntheticRanking(nGroups, groupSize int, seed int64) (x [][]float64, y []float64, groups []int) {
	rng := rand.New(rand.NewSource(seed))
	for g := 0; g < nGroups; g++ {
		for d := 0; d < groupSize; d++ {
			signal := rng.Float64()
			row := []float64{signal, rng.Float64(), rng.Float64()}
			x = append(x, row)
			y = append(y, float64(int(signal*4))) // labels 0..3 from feature 0
		}
		groups = append(groups, groupSize)
	}
	return x, y, groups
}

func testBoostParams() BoostParams {
	p := DefaultBoostParams()
	p.NumRounds = 60
	p.MaxDepth = 3
	p.MinSamplesLeaf = 5
	p.Subsample = 1.0
	p.EarlyStoppingRounds = 0
	return p
}

func TestBoosterLearnsSyntheticOrdering(t *testing.T) {
	for _, algo := range []string{AlgorithmLambdaMART, AlgorithmGBRank} {
		t.Run(algo, func(t *testing.T) {
			x, y, groups := syntheticRanking(12, 20, 7)
			b, err := NewBooster(algo, testBoostParams(), logger.Default())
			if err != nil {
				t.Fatalf("NewBooster: %v", err)
			}
			if err := b.Fit(x, y, groups, nil); err != nil {
				t.Fatalf("Fit: %v", err)
			}

			scores := make([]float64, len(x))
			for i, row := range x {
				scores[i] = b.Predict(row)
			}
			ndcg := meanNDCG(scores, y, groups, 10)
			if ndcg < 0.85 {
				t.Errorf("%s: trained NDCG@10 = %g, expected strong fit on clean signal", algo, ndcg)
			}
		})
	}
}

func TestBoosterFeatureImportanceFindsSignal(t *testing.T) {
	x, y, groups := syntheticRanking(12, 20, 11)
	b, err := NewBooster(AlgorithmLambdaMART, testBoostParams(), logger.Default())
	if err != nil {
		t.Fatalf("NewBooster: %v", err)
	}
	if err := b.Fit(x, y, groups, nil); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	imps := b.FeatureImportances()
	if len(imps) != 3 {
		t.Fatalf("expected 3 importances, got %d", len(imps))
	}
	if imps[0] <= imps[1] || imps[0] <= imps[2] {
		t.Errorf("feature 0 carries the signal, importances = %v", imps)
	}
	total := imps[0] + imps[1] + imps[2]
	if total < 0.999 || total > 1.001 {
		t.Errorf("importances should normalize to 1, got %g", total)
	}
}

func TestBoosterEarlyStoppingKeepsBestRound(t *testing.T) {
	x, y, groups := syntheticRanking(10, 15, 3)
	ex, ey, eg := syntheticRanking(4, 15, 5)

	p := testBoostParams()
	p.NumRounds = 200
	p.EarlyStoppingRounds = 10
	b, err := NewBooster(AlgorithmLambdaMART, p, logger.Default())
	if err != nil {
		t.Fatalf("NewBooster: %v", err)
	}
	if err := b.Fit(x, y, groups, &EvalSet{X: ex, Y: ey, Groups: eg}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	st := b.State()
	if st.BestRound == 0 {
		t.Fatal("best round never recorded")
	}
	if len(st.Trees) != st.BestRound {
		t.Errorf("trees truncated to %d but best round is %d", len(st.Trees), st.BestRound)
	}
}

func TestBoosterRestoreRoundTrip(t *testing.T) {
	x, y, groups := syntheticRanking(8, 12, 9)
	b, err := NewBooster(AlgorithmGBRank, testBoostParams(), logger.Default())
	if err != nil {
		t.Fatalf("NewBooster: %v", err)
	}
	if err := b.Fit(x, y, groups, nil); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	restored, err := RestoreBooster(b.State(), logger.Default())
	if err != nil {
		t.Fatalf("RestoreBooster: %v", err)
	}
	for i, row := range x {
		if b.Predict(row) != restored.Predict(row) {
			t.Fatalf("row %d: restored prediction differs", i)
		}
	}
}

func TestBoosterUnknownAlgorithm(t *testing.T) {
	if _, err := NewBooster("xgboost", DefaultBoostParams(), logger.Default()); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestBoosterRejectsBadGroups(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	y := []float64{0, 1, 2}
	b, _ := NewBooster(AlgorithmLambdaMART, testBoostParams(), logger.Default())
	if err := b.Fit(x, y, []int{2}, nil); err == nil {
		t.Fatal("expected group sum mismatch error")
	}
}

func TestTreePredictRespectsSplit(t *testing.T) {
	x := [][]float64{{0}, {0.1}, {0.2}, {0.8}, {0.9}, {1.0}}
	target := []float64{-1, -1, -1, 1, 1, 1}
	rows := []int{0, 1, 2, 3, 4, 5}
	imps := make([]float64, 1)
	tree := fitTree(x, target, rows, treeParams{maxDepth: 2, minSamplesLeaf: 1}, imps)

	if got := tree.Predict([]float64{0.0}); got >= 0 {
		t.Errorf("low side should predict negative, got %g", got)
	}
	if got := tree.Predict([]float64{1.0}); got <= 0 {
		t.Errorf("high side should predict positive, got %g", got)
	}
	if imps[0] == 0 {
		t.Error("split gain should be recorded for feature 0")
	}
}

func TestTreeConstantTargetStaysLeaf(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}}
	target := []float64{5, 5, 5, 5}
	tree := fitTree(x, target, []int{0, 1, 2, 3}, treeParams{maxDepth: 3, minSamplesLeaf: 1}, make([]float64, 1))
	if !tree.Leaf() {
		t.Error("constant target should produce a single leaf")
	}
	if got := tree.Predict([]float64{2.5}); got != 5 {
		t.Errorf("leaf value = %g, want 5", got)
	}
}

func ExampleNewBooster() {
	b, _ := NewBooster(AlgorithmLambdaMART, DefaultBoostParams(), logger.Default())
	fmt.Println(b.Name())
	// Output: lambdamart
}
