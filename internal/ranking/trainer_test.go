package ranking

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/rankforge/rankforge/internal/feature"
	"github.com/rankforge/rankforge/internal/pkg/errors"
	"github.com/rankforge/rankforge/internal/pkg/logger"
)

func TestPrepareRankingDataSplitsByQuery(t *testing.T) {
	var x [][]float64
	var y []float64
	var qids []string
	for q := 0; q < 10; q++ {
		for d := 0; d < 5; d++ {
			x = append(x, []float64{float64(d)})
			y = append(y, float64(d%3))
			qids = append(qids, fmt.Sprintf("q%02d", q))
		}
	}

	s, err := PrepareRankingData(x, y, qids, 0.3, 1)
	if err != nil {
		t.Fatalf("PrepareRankingData: %v", err)
	}

	if s.TestQueryCount != 3 || s.TrainQueryCount != 7 {
		t.Errorf("query split = %d/%d, want 7/3", s.TrainQueryCount, s.TestQueryCount)
	}
	if len(s.XTrain)+len(s.XTest) != len(x) {
		t.Errorf("rows lost in split: %d + %d != %d", len(s.XTrain), len(s.XTest), len(x))
	}
	// Every group kept whole: each query contributed exactly 5 rows.
	for _, g := range append(append([]int{}, s.TrainGroups...), s.TestGroups...) {
		if g != 5 {
			t.Errorf("query group fragmented: size %d", g)
		}
	}
}

func TestPrepareRankingDataRejectsNonContiguousQueries(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}}
	y := []float64{0, 1, 2}
	qids := []string{"a", "b", "a"}
	if _, err := PrepareRankingData(x, y, qids, 0.5, 1); err == nil {
		t.Fatal("expected error for interleaved query ids")
	}
}

func TestPrepareRankingDataSingleQuery(t *testing.T) {
	x := [][]float64{{1}, {2}}
	y := []float64{0, 1}
	if _, err := PrepareRankingData(x, y, []string{"q", "q"}, 0.5, 1); err == nil {
		t.Fatal("expected error with fewer than two queries")
	}
}

func TestPrepareRankingDataDeterministic(t *testing.T) {
	var x [][]float64
	var y []float64
	var qids []string
	for q := 0; q < 6; q++ {
		for d := 0; d < 3; d++ {
			x = append(x, []float64{float64(q*3 + d)})
			y = append(y, 0)
			qids = append(qids, fmt.Sprintf("q%d", q))
		}
	}
	a, err := PrepareRankingData(x, y, qids, 0.33, 99)
	if err != nil {
		t.Fatal(err)
	}
	b, err := PrepareRankingData(x, y, qids, 0.33, 99)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.XTest) != len(b.XTest) {
		t.Fatal("same seed must give the same split")
	}
	for i := range a.XTest {
		if a.XTest[i][0] != b.XTest[i][0] {
			t.Fatal("same seed must give identical test rows")
		}
	}
}

// trainingRecords builds labeled records where word_count drives relevance.
func trainingRecords(nQueries, perQuery int, seed int64) []feature.Record {
	rng := rand.New(rand.NewSource(seed))
	var records []feature.Record
	for q := 0; q < nQueries; q++ {
		for d := 0; d < perQuery; d++ {
			quality := rng.Float64()
			records = append(records, feature.Record{
				QueryID: fmt.Sprintf("query-%03d", q),
				Label:   float64(int(quality * 4)),
				Labeled: true,
				Values: map[string]feature.Value{
					"word_count":      feature.Number(500 + quality*3000),
					"backlink_count":  feature.Number(quality * 200),
					"bounce_rate":     feature.Number(0.9 - quality*0.5),
					"page_load_speed": feature.Number(4 - quality*2.5),
					"position":        feature.Number(1 + rng.Float64()*50),
				},
			})
		}
	}
	return records
}

func testTrainerConfig() Config {
	cfg := DefaultConfig()
	cfg.Boost = testBoostParams()
	cfg.Pipeline = feature.Options{Scaler: feature.ScalerStandard}
	return cfg
}

func TestTrainerEndToEnd(t *testing.T) {
	tr, err := NewTrainer(testTrainerConfig(), logger.Default())
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}

	records := trainingRecords(20, 12, 21)
	res, err := tr.Train(records)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	if res.Metrics == nil || len(res.Metrics.NDCG) == 0 {
		t.Fatal("missing evaluation metrics")
	}
	if res.Metrics.NDCG[10] < 0.5 {
		t.Errorf("held-out NDCG@10 = %g, expected the model to beat noise", res.Metrics.NDCG[10])
	}
	if len(res.FeatureImportance) == 0 {
		t.Error("missing feature importance")
	}
	if res.TrainQueries+res.TestQueries != 20 {
		t.Errorf("query accounting: %d + %d != 20", res.TrainQueries, res.TestQueries)
	}

	scores, err := tr.Predict(records[:12])
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(scores) != 12 {
		t.Fatalf("got %d scores, want 12", len(scores))
	}
}

func TestTrainerPredictBeforeTrain(t *testing.T) {
	tr, err := NewTrainer(testTrainerConfig(), logger.Default())
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}
	_, err = tr.Predict(trainingRecords(2, 3, 1))
	if err == nil {
		t.Fatal("expected not-trained error")
	}
	if !errors.IsCode(err, errors.CodeNotTrained) {
		t.Errorf("wrong error code: %v", err)
	}
}

func TestTrainerRestoreRoundTrip(t *testing.T) {
	cfg := testTrainerConfig()
	tr, err := NewTrainer(cfg, logger.Default())
	if err != nil {
		t.Fatalf("NewTrainer: %v", err)
	}
	records := trainingRecords(12, 10, 33)
	if _, err := tr.Train(records); err != nil {
		t.Fatalf("Train: %v", err)
	}

	restored, err := Restore(cfg, tr.PipelineState(), tr.BoosterState(), logger.Default())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	probe := records[:10]
	want, err := tr.Predict(probe)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	got, err := restored.Predict(probe)
	if err != nil {
		t.Fatalf("restored Predict: %v", err)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("row %d: restored score %g != %g", i, got[i], want[i])
		}
	}
}

func TestTrainerInvalidConfig(t *testing.T) {
	cfg := testTrainerConfig()
	cfg.TestSize = 1.5
	if _, err := NewTrainer(cfg, logger.Default()); err == nil {
		t.Fatal("expected error for test_size out of range")
	}
	cfg = testTrainerConfig()
	cfg.Algorithm = "ranknet"
	if _, err := NewTrainer(cfg, logger.Default()); err == nil {
		t.Fatal("expected error for unsupported algorithm")
	}
}

func TestDownsampleRebalances(t *testing.T) {
	var records []feature.Record
	for i := 0; i < 100; i++ {
		label := 0.0
		if i%20 == 0 {
			label = 3
		}
		records = append(records, feature.Record{
			QueryID: "q",
			Label:   label,
			Labeled: true,
			Values:  map[string]feature.Value{"idx": feature.Number(float64(i))},
		})
	}

	out := Downsample(records, 3.0, 17)
	var high, low int
	prev := -1.0
	for _, r := range out {
		idx, _ := r.Num("idx")
		if idx <= prev {
			t.Fatal("downsampling must preserve original row order")
		}
		prev = idx
		if r.Label >= 2 {
			high++
		} else {
			low++
		}
	}
	if high != 5 {
		t.Errorf("all high-relevance rows must survive, got %d of 5", high)
	}
	if low != 15 {
		t.Errorf("low rows = %d, want 15 (ratio 3x)", low)
	}
}

func TestDownsampleAlreadyBalanced(t *testing.T) {
	records := trainingRecords(2, 5, 1)
	out := Downsample(records, 100, 1)
	if len(out) != len(records) {
		t.Errorf("balanced input must pass through unchanged, %d != %d", len(out), len(records))
	}
}
