package feature

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ScalerState holds per-column center and scale statistics, aligned with the
// pipeline's fitted column order.
type ScalerState struct {
	Kind    ScalerKind `json:"kind"`
	Centers []float64  `json:"centers"`
	Scales  []float64  `json:"scales"`
}

// Scaler standardizes matrix columns. Standard scaling uses mean and
// population standard deviation; robust scaling uses median and IQR.
type Scaler struct {
	kind  ScalerKind
	state ScalerState
}

// NewScaler creates an unfitted scaler.
func NewScaler(kind ScalerKind) *Scaler {
	return &Scaler{kind: kind}
}

// Fit computes center and scale for every matrix column.
func (s *Scaler) Fit(matrix [][]float64) {
	if len(matrix) == 0 {
		return
	}
	cols := len(matrix[0])
	s.state = ScalerState{
		Kind:    s.kind,
		Centers: make([]float64, cols),
		Scales:  make([]float64, cols),
	}
	col := make([]float64, len(matrix))
	for j := 0; j < cols; j++ {
		for i := range matrix {
			col[i] = matrix[i][j]
		}
		var center, scale float64
		if s.kind == ScalerRobust {
			sorted := append([]float64(nil), col...)
			sort.Float64s(sorted)
			center = stat.Quantile(0.5, stat.Empirical, sorted, nil)
			scale = stat.Quantile(0.75, stat.Empirical, sorted, nil) -
				stat.Quantile(0.25, stat.Empirical, sorted, nil)
		} else {
			center = stat.Mean(col, nil)
			scale = math.Sqrt(stat.PopVariance(col, nil))
		}
		if scale == 0 {
			scale = 1
		}
		s.state.Centers[j] = center
		s.state.Scales[j] = scale
	}
}

// Transform applies the stored statistics in place.
func (s *Scaler) Transform(matrix [][]float64) {
	if len(s.state.Centers) == 0 {
		return
	}
	for i := range matrix {
		for j := range matrix[i] {
			if j < len(s.state.Centers) {
				matrix[i][j] = (matrix[i][j] - s.state.Centers[j]) / s.state.Scales[j]
			}
		}
	}
}

// State exports the fitted statistics.
func (s *Scaler) State() ScalerState { return s.state }
