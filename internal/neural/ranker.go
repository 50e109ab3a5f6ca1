package neural

import (
	"math/rand"
	"time"

	"github.com/rankforge/rankforge/internal/dataset"
	"github.com/rankforge/rankforge/internal/feature"
	"github.com/rankforge/rankforge/internal/pkg/errors"
	"github.com/rankforge/rankforge/internal/pkg/logger"
	"github.com/rankforge/rankforge/internal/ranking"
)

// Update kinds recorded in the session history.
const (
	UpdateFull        = "full"
	UpdateIncremental = "incremental"
	UpdateOnline      = "online"
)

const historyLimit = 200

// Config controls the real-time ranker.
type Config struct {
	Hidden            []int           `json:"hidden" yaml:"hidden"`
	Dropout           float64         `json:"dropout" yaml:"dropout"`
	LearningRate      float64         `json:"learning_rate" yaml:"learning_rate"`
	Epochs            int             `json:"epochs" yaml:"epochs"`
	Patience          int             `json:"patience" yaml:"patience"`
	TestSize          float64         `json:"test_size" yaml:"test_size"`
	IncrementalEpochs int             `json:"incremental_epochs" yaml:"incremental_epochs"`
	IncrementalLR     float64         `json:"incremental_lr" yaml:"incremental_lr"`
	OnlineLR          float64         `json:"online_lr" yaml:"online_lr"`
	Seed              int64           `json:"seed" yaml:"seed"`
	Pipeline          feature.Options `json:"pipeline" yaml:"pipeline"`
}

// DefaultConfig returns the production defaults for the real-time ranker.
func DefaultConfig() Config {
	return Config{
		Hidden:            []int{256, 128, 64},
		Dropout:           0.2,
		LearningRate:      0.001,
		Epochs:            50,
		Patience:          8,
		TestSize:          0.2,
		IncrementalEpochs: 5,
		IncrementalLR:     0.0002,
		OnlineLR:          0.0001,
		Seed:              42,
		Pipeline:          feature.DefaultOptions(),
	}
}

// EpochUpdate is pushed to the epoch hook after every training epoch.
type EpochUpdate struct {
	Epoch     int     `json:"epoch"`
	Loss      float64 `json:"loss"`
	ValNDCG   float64 `json:"val_ndcg"`
	BestSoFar bool    `json:"best_so_far"`
}

// SessionRecord is one entry in the update history.
type SessionRecord struct {
	Kind      string    `json:"kind"`
	Rows      int       `json:"rows"`
	Loss      float64   `json:"loss"`
	ValNDCG   float64   `json:"val_ndcg,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TrainResult summarizes a full training run.
type TrainResult struct {
	Epochs    int              `json:"epochs"`
	BestEpoch int              `json:"best_epoch"`
	Loss      float64          `json:"loss"`
	Metrics   *ranking.Metrics `json:"metrics"`
	Duration  time.Duration    `json:"duration_ns"`
}

// Ranker is the real-time neural ranking model. Not safe for concurrent
// mutation; callers serialize Train/IncrementalUpdate/OnlineUpdate.
type Ranker struct {
	cfg      Config
	log      *logger.Logger
	pipeline *feature.Pipeline
	net      *Network
	trained  bool
	history  []SessionRecord
	onEpoch  func(EpochUpdate)
}

// NewRanker constructs an untrained ranker.
func NewRanker(cfg Config, log *logger.Logger) (*Ranker, error) {
	if cfg.TestSize <= 0 || cfg.TestSize >= 1 {
		return nil, errors.Newf(errors.CodeValidation, "test_size must be in (0,1), got %g", cfg.TestSize)
	}
	if len(cfg.Hidden) == 0 {
		return nil, errors.ValidationError("at least one hidden layer required")
	}
	return &Ranker{
		cfg:      cfg,
		log:      log,
		pipeline: feature.New(cfg.Pipeline, log),
	}, nil
}

// RestoreRanker rebuilds a trained ranker from persisted pipeline and
// network state. Adam moments survive the round trip, so incremental
// updates continue from where the previous session stopped.
func RestoreRanker(cfg Config, pipeState feature.FittedState, netState *NetworkState, log *logger.Logger) (*Ranker, error) {
	net, err := RestoreNetwork(netState, cfg.Seed)
	if err != nil {
		return nil, err
	}
	return &Ranker{
		cfg:      cfg,
		log:      log,
		pipeline: feature.Restore(cfg.Pipeline, pipeState, log),
		net:      net,
		trained:  true,
	}, nil
}

// SetEpochHook registers a callback invoked after every full-training epoch.
// Used to stream live metrics; the hook must not block.
func (r *Ranker) SetEpochHook(fn func(EpochUpdate)) { r.onEpoch = fn }

// Train runs full training from scratch: the feature pipeline is refit and
// the network reinitialized. Early stopping restores the best validation
// checkpoint.
func (r *Ranker) Train(records []feature.Record) (*TrainResult, error) {
	started := time.Now()

	ds, err := dataset.Build(records)
	if err != nil {
		return nil, err
	}
	x, _, err := r.pipeline.Engineer(ds.Records, true)
	if err != nil {
		return nil, err
	}

	split, err := ranking.PrepareRankingData(x, ds.Labels, ds.QueryIDs, r.cfg.TestSize, r.cfg.Seed)
	if err != nil {
		return nil, err
	}

	r.net, err = NewNetwork(len(x[0]), r.cfg.Hidden, r.cfg.Dropout, r.cfg.Seed)
	if err != nil {
		return nil, err
	}

	r.log.Info("training neural ranker",
		"train_rows", len(split.XTrain), "test_rows", len(split.XTest),
		"features", len(x[0]), "hidden", r.cfg.Hidden, "epochs", r.cfg.Epochs)

	rng := rand.New(rand.NewSource(r.cfg.Seed))
	bestNDCG := -1.0
	bestEpoch := 0
	var bestState *NetworkState
	sinceBest := 0
	finalLoss := 0.0
	epochsRun := 0

	for epoch := 1; epoch <= r.cfg.Epochs; epoch++ {
		loss := r.runEpoch(split.XTrain, split.YTrain, split.TrainGroups, r.cfg.LearningRate, rng)
		finalLoss = loss
		epochsRun = epoch

		valNDCG := r.groupNDCG(split.XTest, split.YTest, split.TestGroups)
		improved := valNDCG > bestNDCG
		if improved {
			bestNDCG = valNDCG
			bestEpoch = epoch
			bestState = r.net.State()
			sinceBest = 0
		} else {
			sinceBest++
		}

		if r.onEpoch != nil {
			r.onEpoch(EpochUpdate{Epoch: epoch, Loss: loss, ValNDCG: valNDCG, BestSoFar: improved})
		}
		r.log.Debug("epoch complete", "epoch", epoch, "loss", loss, "val_ndcg10", valNDCG)

		if r.cfg.Patience > 0 && sinceBest >= r.cfg.Patience {
			r.log.Info("early stopping", "epoch", epoch, "best_epoch", bestEpoch, "best_ndcg10", bestNDCG)
			break
		}
	}

	if bestState != nil {
		restored, err := RestoreNetwork(bestState, r.cfg.Seed)
		if err != nil {
			return nil, err
		}
		r.net = restored
	}
	r.trained = true

	scores := r.net.Predict(split.XTest)
	metrics, err := ranking.Evaluate(scores, split.YTest, split.TestGroups)
	if err != nil {
		return nil, err
	}

	r.record(SessionRecord{
		Kind: UpdateFull, Rows: len(records), Loss: finalLoss,
		ValNDCG: metrics.NDCG[10], Timestamp: time.Now(),
	})
	r.log.Info("neural training complete",
		"best_epoch", bestEpoch, "ndcg10", metrics.NDCG[10], "map", metrics.MAP,
		"duration", time.Since(started))

	return &TrainResult{
		Epochs:    epochsRun,
		BestEpoch: bestEpoch,
		Loss:      finalLoss,
		Metrics:   metrics,
		Duration:  time.Since(started),
	}, nil
}

// runEpoch trains one pass over the groups in shuffled order and returns the
// mean pairwise loss.
func (r *Ranker) runEpoch(x [][]float64, y []float64, groups []int, lr float64, rng *rand.Rand) float64 {
	starts := make([]int, len(groups))
	off := 0
	for i, g := range groups {
		starts[i] = off
		off += g
	}
	order := rng.Perm(len(groups))

	totalLoss := 0.0
	counted := 0
	grad := make([]float64, maxGroup(groups))
	for _, gi := range order {
		s, size := starts[gi], groups[gi]
		gx := x[s : s+size]
		gy := y[s : s+size]

		scores, cache := r.net.forward(gx, true)
		loss := pairwiseGradients(scores, gy, grad)
		if loss == 0 && allEqual(gy) {
			continue // no informative pairs in this group
		}
		r.net.backward(cache, grad[:size], lr)
		totalLoss += loss
		counted++
	}
	if counted == 0 {
		return 0
	}
	return totalLoss / float64(counted)
}

func (r *Ranker) groupNDCG(x [][]float64, y []float64, groups []int) float64 {
	scores := r.net.Predict(x)
	sum := 0.0
	start := 0
	for _, size := range groups {
		sum += ranking.NDCGAtK(y[start:start+size], scores[start:start+size], 10)
		start += size
	}
	return sum / float64(len(groups))
}

// IncrementalUpdate refines the trained model on new labeled data without
// reinitializing weights or optimizer moments. The feature pipeline stays
// frozen; new rows go through transform mode.
func (r *Ranker) IncrementalUpdate(records []feature.Record) (*TrainResult, error) {
	if !r.trained {
		return nil, errors.NotTrainedError("neural ranker")
	}
	started := time.Now()

	ds, err := dataset.Build(records)
	if err != nil {
		return nil, err
	}
	x, _, err := r.pipeline.Engineer(ds.Records, false)
	if err != nil {
		return nil, err
	}
	groups := ds.Groups

	rng := rand.New(rand.NewSource(r.cfg.Seed + int64(r.net.adamStep)))
	finalLoss := 0.0
	for epoch := 1; epoch <= r.cfg.IncrementalEpochs; epoch++ {
		finalLoss = r.runEpoch(x, ds.Labels, groups, r.cfg.IncrementalLR, rng)
	}

	scores := r.net.Predict(x)
	metrics, err := ranking.Evaluate(scores, ds.Labels, groups)
	if err != nil {
		return nil, err
	}

	r.record(SessionRecord{
		Kind: UpdateIncremental, Rows: len(records), Loss: finalLoss,
		ValNDCG: metrics.NDCG[10], Timestamp: time.Now(),
	})
	r.log.Info("incremental update complete",
		"rows", len(records), "epochs", r.cfg.IncrementalEpochs,
		"loss", finalLoss, "ndcg10", metrics.NDCG[10])

	return &TrainResult{
		Epochs:   r.cfg.IncrementalEpochs,
		Loss:     finalLoss,
		Metrics:  metrics,
		Duration: time.Since(started),
	}, nil
}

// OnlineUpdate applies one squared-error correction step for a single
// labeled observation and returns the loss before the step. A prediction
// already matching the label produces zero gradient.
func (r *Ranker) OnlineUpdate(record feature.Record) (float64, error) {
	if !r.trained {
		return 0, errors.NotTrainedError("neural ranker")
	}
	if !record.Labeled {
		return 0, errors.ValidationError("online update requires a labeled record")
	}

	x, _, err := r.pipeline.Engineer([]feature.Record{record}, false)
	if err != nil {
		return 0, err
	}

	scores, cache := r.net.forward(x, true)
	diff := scores[0] - record.Label
	loss := diff * diff
	r.net.backward(cache, []float64{2 * diff}, r.cfg.OnlineLR)

	r.record(SessionRecord{
		Kind: UpdateOnline, Rows: 1, Loss: loss, Timestamp: time.Now(),
	})
	r.log.Debug("online update", "prediction", scores[0], "label", record.Label, "loss", loss)
	return loss, nil
}

// Predict scores records with the trained network.
func (r *Ranker) Predict(records []feature.Record) ([]float64, error) {
	if !r.trained {
		return nil, errors.NotTrainedError("neural ranker")
	}
	x, _, err := r.pipeline.Engineer(records, false)
	if err != nil {
		return nil, err
	}
	return r.net.Predict(x), nil
}

// History returns the session's update records, oldest first.
func (r *Ranker) History() []SessionRecord {
	out := make([]SessionRecord, len(r.history))
	copy(out, r.history)
	return out
}

// PipelineState exposes the fitted transform state for persistence.
func (r *Ranker) PipelineState() feature.FittedState { return r.pipeline.State() }

// NetworkState exposes the network and optimizer state for persistence.
func (r *Ranker) NetworkState() *NetworkState { return r.net.State() }

// Trained reports whether the ranker can serve predictions.
func (r *Ranker) Trained() bool { return r.trained }

func (r *Ranker) record(rec SessionRecord) {
	r.history = append(r.history, rec)
	if len(r.history) > historyLimit {
		r.history = r.history[len(r.history)-historyLimit:]
	}
}

func maxGroup(groups []int) int {
	m := 0
	for _, g := range groups {
		if g > m {
			m = g
		}
	}
	return m
}

func allEqual(y []float64) bool {
	for i := 1; i < len(y); i++ {
		if y[i] != y[0] {
			return false
		}
	}
	return true
}
