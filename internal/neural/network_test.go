package neural

import (
	"math"
	"testing"
)

func TestNewNetworkValidation(t *testing.T) {
	if _, err := NewNetwork(0, []int{8}, 0, 1); err == nil {
		t.Error("expected error for zero input dim")
	}
	if _, err := NewNetwork(4, nil, 0, 1); err == nil {
		t.Error("expected error for no hidden layers")
	}
}

func TestNetworkPredictDeterministic(t *testing.T) {
	n, err := NewNetwork(3, []int{8, 4}, 0.5, 7)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	x := [][]float64{{0.1, 0.2, 0.3}, {1, -1, 0.5}}
	a := n.Predict(x)
	b := n.Predict(x)
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("inference must be deterministic (no dropout)")
		}
	}
}

func TestNetworkLearnsSimpleRegression(t *testing.T) {
	n, err := NewNetwork(2, []int{16, 8}, 0, 3)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}

	// Target: y = x0 - x1. Batch gradient descent on squared error.
	x := [][]float64{{1, 0}, {0, 1}, {1, 1}, {0, 0}, {0.5, 0.2}, {0.2, 0.8}}
	y := []float64{1, -1, 0, 0, 0.3, -0.6}

	lossAt := func() float64 {
		scores := n.Predict(x)
		sum := 0.0
		for i := range scores {
			d := scores[i] - y[i]
			sum += d * d
		}
		return sum / float64(len(x))
	}

	before := lossAt()
	grad := make([]float64, len(x))
	for epoch := 0; epoch < 400; epoch++ {
		scores, cache := n.forward(x, true)
		for i := range scores {
			grad[i] = 2 * (scores[i] - y[i]) / float64(len(x))
		}
		n.backward(cache, grad, 0.01)
	}
	after := lossAt()

	if after >= before {
		t.Errorf("loss did not decrease: %g -> %g", before, after)
	}
	if after > 0.1 {
		t.Errorf("final loss %g too high for a separable toy target", after)
	}
}

func TestNetworkStateRoundTrip(t *testing.T) {
	n, err := NewNetwork(4, []int{8}, 0, 11)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	// Take a couple of optimizer steps so moments are non-trivial.
	x := [][]float64{{1, 2, 3, 4}, {4, 3, 2, 1}}
	for i := 0; i < 3; i++ {
		scores, cache := n.forward(x, true)
		n.backward(cache, []float64{scores[0] - 1, scores[1] + 1}, 0.01)
	}

	restored, err := RestoreNetwork(n.State(), 11)
	if err != nil {
		t.Fatalf("RestoreNetwork: %v", err)
	}

	probe := [][]float64{{0.5, -0.5, 1, 0}}
	if got, want := restored.Predict(probe)[0], n.Predict(probe)[0]; got != want {
		t.Errorf("restored prediction %g != %g", got, want)
	}
	if restored.adamStep != n.adamStep {
		t.Errorf("optimizer step lost: %d != %d", restored.adamStep, n.adamStep)
	}

	// A further identical update must move both networks identically.
	for _, net := range []*Network{n, restored} {
		scores, cache := net.forward(x, true)
		net.backward(cache, []float64{scores[0], scores[1]}, 0.01)
	}
	if got, want := restored.Predict(probe)[0], n.Predict(probe)[0]; math.Abs(got-want) > 1e-12 {
		t.Errorf("post-restore updates diverge: %g vs %g", got, want)
	}
}

func TestPairwiseGradientsOrientation(t *testing.T) {
	// Doc 0 has the higher label but the lower score: its gradient must be
	// negative (loss decreases as its score rises).
	scores := []float64{0.0, 1.0}
	labels := []float64{2.0, 0.0}
	grad := make([]float64, 2)
	loss := pairwiseGradients(scores, labels, grad)
	if loss <= 0 {
		t.Fatalf("misordered pair must have positive loss, got %g", loss)
	}
	if grad[0] >= 0 {
		t.Errorf("higher-labeled doc gradient = %g, want negative", grad[0])
	}
	if grad[1] <= 0 {
		t.Errorf("lower-labeled doc gradient = %g, want positive", grad[1])
	}
}

func TestPairwiseGradientsWeightPredictedRanks(t *testing.T) {
	// The worst document is currently ranked first, so pairs against it must
	// carry the discount gap of the top position, not of its ideal position.
	scores := []float64{0, 0, 10}
	labels := []float64{2, 1, 0}
	grad := make([]float64, 3)
	loss := pairwiseGradients(scores, labels, grad)

	// Score-descending ranks: doc2 first, then doc0, doc1 (stable tie-break).
	d := func(r int) float64 { return 1 / math.Log2(float64(r)+2) }
	want := (math.Abs(d(1)-d(2))*math.Log1p(math.Exp(0)) +
		math.Abs(d(1)-d(0))*math.Log1p(math.Exp(10)) +
		math.Abs(d(2)-d(0))*math.Log1p(math.Exp(10))) / 3
	if math.Abs(loss-want) > 1e-9 {
		t.Errorf("loss = %.6f, want %.6f from predicted-rank discounts", loss, want)
	}
}

func TestPairwiseGradientsEqualLabels(t *testing.T) {
	scores := []float64{1.0, 2.0, 3.0}
	labels := []float64{1.0, 1.0, 1.0}
	grad := make([]float64, 3)
	loss := pairwiseGradients(scores, labels, grad)
	if loss != 0 {
		t.Errorf("equal labels must contribute no loss, got %g", loss)
	}
	for i, g := range grad {
		if g != 0 {
			t.Errorf("grad[%d] = %g, want 0", i, g)
		}
	}
}
