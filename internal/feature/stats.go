package feature

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// valid returns the non-NaN entries of a column.
func valid(col []float64) []float64 {
	out := make([]float64, 0, len(col))
	for _, v := range col {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func mean(col []float64) float64 {
	v := valid(col)
	if len(v) == 0 {
		return 0
	}
	return stat.Mean(v, nil)
}

func popStd(col []float64) float64 {
	v := valid(col)
	if len(v) == 0 {
		return 0
	}
	return math.Sqrt(stat.PopVariance(v, nil))
}

func median(col []float64) float64 {
	v := valid(col)
	if len(v) == 0 {
		return 0
	}
	sort.Float64s(v)
	return stat.Quantile(0.5, stat.Empirical, v, nil)
}

func skewness(col []float64) float64 {
	v := valid(col)
	if len(v) < 3 {
		return 0
	}
	return stat.Skew(v, nil)
}

// zscores normalizes a column to zero mean and unit population variance.
// NaNs are treated as zero before normalization.
func zscores(col []float64) []float64 {
	filled := make([]float64, len(col))
	for i, v := range col {
		if math.IsNaN(v) {
			filled[i] = 0
		} else {
			filled[i] = v
		}
	}
	m := stat.Mean(filled, nil)
	sd := math.Sqrt(stat.PopVariance(filled, nil))
	out := make([]float64, len(filled))
	if sd == 0 {
		return out
	}
	for i, v := range filled {
		out[i] = (v - m) / sd
	}
	return out
}

// log1pCol applies log1p element-wise, preserving NaNs.
func log1pCol(col []float64) []float64 {
	out := make([]float64, len(col))
	for i, v := range col {
		if math.IsNaN(v) {
			out[i] = math.NaN()
		} else {
			out[i] = math.Log1p(math.Max(v, 0))
		}
	}
	return out
}
