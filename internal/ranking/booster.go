package ranking

import (
	"math"
	"math/rand"

	"github.com/rankforge/rankforge/internal/pkg/errors"
	"github.com/rankforge/rankforge/internal/pkg/logger"
)

// Supported boosting algorithms.
const (
	AlgorithmLambdaMART = "lambdamart"
	AlgorithmGBRank     = "gbrank"
)

// BoostParams are the hyperparameters shared by both boosting backends.
type BoostParams struct {
	LearningRate        float64 `json:"learning_rate" yaml:"learning_rate"`
	NumRounds           int     `json:"num_rounds" yaml:"num_rounds"`
	MaxDepth            int     `json:"max_depth" yaml:"max_depth"`
	MinSamplesLeaf      int     `json:"min_samples_leaf" yaml:"min_samples_leaf"`
	Subsample           float64 `json:"subsample" yaml:"subsample"`
	EarlyStoppingRounds int     `json:"early_stopping_rounds" yaml:"early_stopping_rounds"`
	EvalK               int     `json:"eval_k" yaml:"eval_k"`
	Seed                int64   `json:"seed" yaml:"seed"`
}

// DefaultBoostParams mirrors the ranker defaults used in production runs.
func DefaultBoostParams() BoostParams {
	return BoostParams{
		LearningRate:        0.05,
		NumRounds:           300,
		MaxDepth:            6,
		MinSamplesLeaf:      10,
		Subsample:           0.8,
		EarlyStoppingRounds: 30,
		EvalK:               10,
		Seed:                42,
	}
}

// EvalSet is a held-out query-grouped set scored after every boosting round.
type EvalSet struct {
	X      [][]float64
	Y      []float64
	Groups []int
}

// Booster is a trainable ranking model. Both concrete backends share the
// boosting loop and differ only in how per-document gradients are computed.
type Booster interface {
	Name() string
	Fit(x [][]float64, y []float64, groups []int, eval *EvalSet) error
	Predict(x []float64) float64
	FeatureImportances() []float64
	State() *BoosterState
}

// BoosterState is the serializable form of a fitted booster.
type BoosterState struct {
	Algorithm   string      `json:"algorithm"`
	Params      BoostParams `json:"params"`
	Trees       []*TreeNode `json:"trees"`
	Importances []float64   `json:"importances"`
	BestRound   int         `json:"best_round"`
}

// gradientFunc fills grad with the per-document pseudo-gradients for the
// current scores. Rows are grouped contiguously per query.
type gradientFunc func(scores, y []float64, groups []int, grad []float64)

type gradientBooster struct {
	name        string
	params      BoostParams
	grad        gradientFunc
	log         *logger.Logger
	trees       []*TreeNode
	importances []float64
	bestRound   int
	fitted      bool
}

// NewBooster constructs a backend by algorithm name.
func NewBooster(algorithm string, params BoostParams, log *logger.Logger) (Booster, error) {
	switch algorithm {
	case AlgorithmLambdaMART:
		return &gradientBooster{name: algorithm, params: params, grad: lambdaMARTGradients, log: log}, nil
	case AlgorithmGBRank:
		return &gradientBooster{name: algorithm, params: params, grad: gbrankGradients, log: log}, nil
	default:
		return nil, errors.Newf(errors.CodeValidation, "unknown ranking algorithm %q", algorithm)
	}
}

// RestoreBooster rebuilds a fitted booster from persisted state.
func RestoreBooster(state *BoosterState, log *logger.Logger) (Booster, error) {
	b, err := NewBooster(state.Algorithm, state.Params, log)
	if err != nil {
		return nil, err
	}
	gb := b.(*gradientBooster)
	gb.trees = state.Trees
	gb.importances = state.Importances
	gb.bestRound = state.BestRound
	gb.fitted = true
	return gb, nil
}

func (b *gradientBooster) Name() string { return b.name }

func (b *gradientBooster) Fit(x [][]float64, y []float64, groups []int, eval *EvalSet) error {
	if len(x) == 0 {
		return errors.DatasetError("empty training set")
	}
	if err := checkGroups(groups, len(x)); err != nil {
		return err
	}
	if eval != nil {
		if err := checkGroups(eval.Groups, len(eval.X)); err != nil {
			return err
		}
	}

	nFeatures := len(x[0])
	b.importances = make([]float64, nFeatures)
	b.trees = b.trees[:0]

	rng := rand.New(rand.NewSource(b.params.Seed))
	scores := make([]float64, len(x))
	grad := make([]float64, len(x))
	var evalScores []float64
	if eval != nil {
		evalScores = make([]float64, len(eval.X))
	}

	tp := treeParams{maxDepth: b.params.MaxDepth, minSamplesLeaf: b.params.MinSamplesLeaf}
	bestMetric := math.Inf(-1)
	sinceBest := 0
	b.bestRound = 0

	for round := 0; round < b.params.NumRounds; round++ {
		b.grad(scores, y, groups, grad)

		rows := b.sampleRows(len(x), rng)
		tree := fitTree(x, grad, rows, tp, b.importances)
		b.trees = append(b.trees, tree)

		for i := range x {
			scores[i] += b.params.LearningRate * tree.Predict(x[i])
		}

		if eval == nil {
			b.bestRound = round + 1
			continue
		}
		for i := range eval.X {
			evalScores[i] += b.params.LearningRate * tree.Predict(eval.X[i])
		}
		metric := meanNDCG(evalScores, eval.Y, eval.Groups, b.params.EvalK)
		if metric > bestMetric {
			bestMetric = metric
			b.bestRound = round + 1
			sinceBest = 0
		} else {
			sinceBest++
		}
		if b.log != nil && (round+1)%25 == 0 {
			b.log.Debug("boosting round",
				"algorithm", b.name, "round", round+1, "eval_ndcg", metric, "best", bestMetric)
		}
		if b.params.EarlyStoppingRounds > 0 && sinceBest >= b.params.EarlyStoppingRounds {
			if b.log != nil {
				b.log.Info("early stopping",
					"algorithm", b.name, "round", round+1, "best_round", b.bestRound, "best_ndcg", bestMetric)
			}
			break
		}
	}

	// Keep only the trees up to the best validation round.
	b.trees = b.trees[:b.bestRound]
	b.fitted = true
	return nil
}

func (b *gradientBooster) sampleRows(n int, rng *rand.Rand) []int {
	if b.params.Subsample >= 1 || b.params.Subsample <= 0 {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	var rows []int
	for i := 0; i < n; i++ {
		if rng.Float64() < b.params.Subsample {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		rows = append(rows, rng.Intn(n))
	}
	return rows
}

func (b *gradientBooster) Predict(x []float64) float64 {
	sum := 0.0
	for _, t := range b.trees {
		sum += b.params.LearningRate * t.Predict(x)
	}
	return sum
}

func (b *gradientBooster) FeatureImportances() []float64 {
	out := make([]float64, len(b.importances))
	copy(out, b.importances)
	total := 0.0
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for i := range out {
			out[i] /= total
		}
	}
	return out
}

func (b *gradientBooster) State() *BoosterState {
	return &BoosterState{
		Algorithm:   b.name,
		Params:      b.params,
		Trees:       b.trees,
		Importances: b.importances,
		BestRound:   b.bestRound,
	}
}

// lambdaMARTGradients computes LambdaRank gradients: pairwise logistic
// gradients weighted by the absolute NDCG change from swapping the pair in
// the current ranking.
func lambdaMARTGradients(scores, y []float64, groups []int, grad []float64) {
	for i := range grad {
		grad[i] = 0
	}
	start := 0
	for _, size := range groups {
		gScores := scores[start : start+size]
		gLabels := y[start : start+size]

		order := rankedIndices(gScores)
		rank := make([]int, size)
		for pos, idx := range order {
			rank[idx] = pos
		}
		ideal := rankedIndices(gLabels)
		idcg := dcgAtK(gLabels, ideal, size)

		for i := 0; i < size; i++ {
			for j := 0; j < size; j++ {
				if gLabels[i] <= gLabels[j] {
					continue
				}
				rho := 1.0 / (1.0 + math.Exp(gScores[i]-gScores[j]))
				delta := 1.0
				if idcg > 0 {
					gainDiff := math.Abs(math.Exp2(gLabels[i]) - math.Exp2(gLabels[j]))
					discDiff := math.Abs(1/math.Log2(float64(rank[i])+2) - 1/math.Log2(float64(rank[j])+2))
					delta = gainDiff * discDiff / idcg
				}
				lambda := rho * delta
				grad[start+i] += lambda
				grad[start+j] -= lambda
			}
		}
		start += size
	}
}

// gbrankGradients computes plain pairwise logistic gradients with no rank
// weighting: every misordered pair pushes with the same force.
func gbrankGradients(scores, y []float64, groups []int, grad []float64) {
	for i := range grad {
		grad[i] = 0
	}
	start := 0
	for _, size := range groups {
		for i := 0; i < size; i++ {
			for j := 0; j < size; j++ {
				if y[start+i] <= y[start+j] {
					continue
				}
				rho := 1.0 / (1.0 + math.Exp(scores[start+i]-scores[start+j]))
				grad[start+i] += rho
				grad[start+j] -= rho
			}
		}
		start += size
	}
}
