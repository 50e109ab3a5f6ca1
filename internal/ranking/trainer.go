package ranking

import (
	"math/rand"
	"sort"
	"time"

	"github.com/rankforge/rankforge/internal/dataset"
	"github.com/rankforge/rankforge/internal/feature"
	"github.com/rankforge/rankforge/internal/pkg/errors"
	"github.com/rankforge/rankforge/internal/pkg/logger"
)

// Config controls one batch training run.
type Config struct {
	Algorithm string          `json:"algorithm" yaml:"algorithm"`
	TestSize  float64         `json:"test_size" yaml:"test_size"`
	Boost     BoostParams     `json:"boost" yaml:"boost"`
	Pipeline  feature.Options `json:"pipeline" yaml:"pipeline"`
}

// DefaultConfig returns the production defaults for the batch trainer.
func DefaultConfig() Config {
	return Config{
		Algorithm: AlgorithmLambdaMART,
		TestSize:  0.2,
		Boost:     DefaultBoostParams(),
		Pipeline:  feature.DefaultOptions(),
	}
}

// ImportancePair names one feature with its normalized importance share.
type ImportancePair struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Result summarizes a completed training run.
type Result struct {
	Algorithm         string           `json:"algorithm"`
	TrainRows         int              `json:"train_rows"`
	TestRows          int              `json:"test_rows"`
	TrainQueries      int              `json:"train_queries"`
	TestQueries       int              `json:"test_queries"`
	Rounds            int              `json:"rounds"`
	Metrics           *Metrics         `json:"metrics"`
	FeatureImportance []ImportancePair `json:"feature_importance"`
	Duration          time.Duration    `json:"duration_ns"`
}

// Trainer runs the full batch pipeline: engineer features, split by query,
// fit a boosting backend, and evaluate on the held-out queries.
type Trainer struct {
	cfg      Config
	log      *logger.Logger
	pipeline *feature.Pipeline
	booster  Booster
	trained  bool
}

// NewTrainer validates the config and constructs an untrained trainer.
func NewTrainer(cfg Config, log *logger.Logger) (*Trainer, error) {
	if cfg.TestSize <= 0 || cfg.TestSize >= 1 {
		return nil, errors.Newf(errors.CodeValidation, "test_size must be in (0,1), got %g", cfg.TestSize)
	}
	booster, err := NewBooster(cfg.Algorithm, cfg.Boost, log)
	if err != nil {
		return nil, err
	}
	return &Trainer{
		cfg:      cfg,
		log:      log,
		pipeline: feature.New(cfg.Pipeline, log),
		booster:  booster,
	}, nil
}

// Restore rebuilds a trained trainer from persisted pipeline and booster
// state, ready for Predict.
func Restore(cfg Config, pipeState feature.FittedState, boostState *BoosterState, log *logger.Logger) (*Trainer, error) {
	booster, err := RestoreBooster(boostState, log)
	if err != nil {
		return nil, err
	}
	return &Trainer{
		cfg:      cfg,
		log:      log,
		pipeline: feature.Restore(cfg.Pipeline, pipeState, log),
		booster:  booster,
		trained:  true,
	}, nil
}

// Split is a query-grouped train/test partition. Groups are contiguous
// per-query sizes over the corresponding rows.
type Split struct {
	XTrain, XTest   [][]float64
	YTrain, YTest   []float64
	TrainGroups     []int
	TestGroups      []int
	TrainQueryCount int
	TestQueryCount  int
}

// PrepareRankingData splits rows into train and test sets by query: every
// row of a query lands on the same side, never mixing a query across the
// split. Rows must arrive sorted by query ID (contiguous groups).
func PrepareRankingData(x [][]float64, y []float64, queryIDs []string, testSize float64, seed int64) (*Split, error) {
	if len(x) != len(y) || len(x) != len(queryIDs) {
		return nil, errors.DatasetError("rows, labels and query ids must have equal length")
	}
	if len(x) == 0 {
		return nil, errors.DatasetError("empty dataset")
	}

	// Collect unique queries in first-appearance order and verify contiguity.
	seen := make(map[string]bool)
	var unique []string
	for i, q := range queryIDs {
		if i > 0 && q == queryIDs[i-1] {
			continue
		}
		if seen[q] {
			return nil, errors.Newf(errors.CodeDataset, "query %q is not contiguous; sort rows by query id first", q)
		}
		seen[q] = true
		unique = append(unique, q)
	}
	if len(unique) < 2 {
		return nil, errors.DatasetError("need at least two queries to split")
	}

	shuffled := make([]string, len(unique))
	copy(shuffled, unique)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	nTest := int(float64(len(unique)) * testSize)
	if nTest == 0 {
		nTest = 1
	}
	if nTest == len(unique) {
		nTest = len(unique) - 1
	}
	testSet := make(map[string]bool, nTest)
	for _, q := range shuffled[:nTest] {
		testSet[q] = true
	}

	s := &Split{
		TrainQueryCount: len(unique) - nTest,
		TestQueryCount:  nTest,
	}
	start := 0
	for i := 1; i <= len(queryIDs); i++ {
		if i < len(queryIDs) && queryIDs[i] == queryIDs[start] {
			continue
		}
		size := i - start
		if testSet[queryIDs[start]] {
			s.XTest = append(s.XTest, x[start:i]...)
			s.YTest = append(s.YTest, y[start:i]...)
			s.TestGroups = append(s.TestGroups, size)
		} else {
			s.XTrain = append(s.XTrain, x[start:i]...)
			s.YTrain = append(s.YTrain, y[start:i]...)
			s.TrainGroups = append(s.TrainGroups, size)
		}
		start = i
	}
	return s, nil
}

// Train fits the feature pipeline and the boosting backend on labeled
// records and returns held-out metrics plus feature importance.
func (t *Trainer) Train(records []feature.Record) (*Result, error) {
	started := time.Now()

	ds, err := dataset.Build(records)
	if err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}

	x, _, err := t.pipeline.Engineer(ds.Records, true)
	if err != nil {
		return nil, err
	}

	split, err := PrepareRankingData(x, ds.Labels, ds.QueryIDs, t.cfg.TestSize, t.cfg.Boost.Seed)
	if err != nil {
		return nil, err
	}

	t.log.Info("training ranking model",
		"algorithm", t.cfg.Algorithm,
		"train_rows", len(split.XTrain), "test_rows", len(split.XTest),
		"train_queries", split.TrainQueryCount, "test_queries", split.TestQueryCount,
		"features", len(t.pipeline.FeatureNames()))

	eval := &EvalSet{X: split.XTest, Y: split.YTest, Groups: split.TestGroups}
	if err := t.booster.Fit(split.XTrain, split.YTrain, split.TrainGroups, eval); err != nil {
		return nil, errors.TrainingError("boosting failed", err)
	}
	t.trained = true

	scores := make([]float64, len(split.XTest))
	for i, row := range split.XTest {
		scores[i] = t.booster.Predict(row)
	}
	metrics, err := Evaluate(scores, split.YTest, split.TestGroups)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Algorithm:         t.cfg.Algorithm,
		TrainRows:         len(split.XTrain),
		TestRows:          len(split.XTest),
		TrainQueries:      split.TrainQueryCount,
		TestQueries:       split.TestQueryCount,
		Rounds:            t.booster.State().BestRound,
		Metrics:           metrics,
		FeatureImportance: t.FeatureImportance(),
		Duration:          time.Since(started),
	}
	t.log.Info("training complete",
		"algorithm", t.cfg.Algorithm, "rounds", res.Rounds,
		"ndcg10", metrics.NDCG[10], "map", metrics.MAP,
		"duration", res.Duration)
	return res, nil
}

// Predict scores unlabeled records using the fitted pipeline and model.
// Rejected before training.
func (t *Trainer) Predict(records []feature.Record) ([]float64, error) {
	if !t.trained {
		return nil, errors.NotTrainedError("ranking model")
	}
	x, _, err := t.pipeline.Engineer(records, false)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, len(x))
	for i, row := range x {
		scores[i] = t.booster.Predict(row)
	}
	return scores, nil
}

// Evaluate scores a grouped matrix with the fitted model and computes
// ranking metrics against the given labels.
func (t *Trainer) Evaluate(x [][]float64, y []float64, groups []int) (*Metrics, error) {
	if !t.trained {
		return nil, errors.NotTrainedError("ranking model")
	}
	scores := make([]float64, len(x))
	for i, row := range x {
		scores[i] = t.booster.Predict(row)
	}
	return Evaluate(scores, y, groups)
}

// FeatureImportance returns the fitted model's normalized importances paired
// with feature names, sorted descending.
func (t *Trainer) FeatureImportance() []ImportancePair {
	names := t.pipeline.FeatureNames()
	imps := t.booster.FeatureImportances()
	n := len(imps)
	if len(names) < n {
		n = len(names)
	}
	pairs := make([]ImportancePair, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, ImportancePair{Feature: names[i], Importance: imps[i]})
	}
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].Importance > pairs[b].Importance })
	return pairs
}

// PipelineState exposes the fitted transform state for persistence.
func (t *Trainer) PipelineState() feature.FittedState { return t.pipeline.State() }

// BoosterState exposes the fitted model for persistence.
func (t *Trainer) BoosterState() *BoosterState { return t.booster.State() }

// Trained reports whether the trainer has a fitted model.
func (t *Trainer) Trained() bool { return t.trained }

// Downsample rebalances a heavily skewed label distribution by dropping a
// random subset of low-relevance rows (label < 2) until they outnumber
// high-relevance rows by at most targetRatio. Original row order is
// preserved so query groups stay contiguous.
func Downsample(records []feature.Record, targetRatio float64, seed int64) []feature.Record {
	if targetRatio <= 0 {
		return records
	}
	var high, low int
	for _, r := range records {
		if r.Label >= relevantThreshold {
			high++
		} else {
			low++
		}
	}
	maxLow := int(float64(high) * targetRatio)
	if high == 0 || low <= maxLow {
		return records
	}

	// Pick which low-relevance rows survive, then emit in original order.
	lowIdx := make([]int, 0, low)
	for i, r := range records {
		if r.Label < relevantThreshold {
			lowIdx = append(lowIdx, i)
		}
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(lowIdx), func(i, j int) { lowIdx[i], lowIdx[j] = lowIdx[j], lowIdx[i] })
	keep := make(map[int]bool, maxLow)
	for _, i := range lowIdx[:maxLow] {
		keep[i] = true
	}

	out := make([]feature.Record, 0, high+maxLow)
	for i, r := range records {
		if r.Label >= relevantThreshold || keep[i] {
			out = append(out, r)
		}
	}
	return out
}
