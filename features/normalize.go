package features

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// FeatureScaling scales m linearly to [Min, Max] over the whole matrix, every
// column (axis 0) or every row (axis 1). Constant input maps to Min.
func FeatureScaling(m *mat.Dense, cfg ScaleConfig) (*mat.Dense, error) {
	cfg.Defaults()
	if cfg.Min >= cfg.Max {
		return nil, errors.Errorf("features: scaling range [%v, %v] is empty", cfg.Min, cfg.Max)
	}
	rows, cols := m.Dims()
	var out = mat.DenseCopyOf(m)
	scale := func(v []float64) {
		lo, hi := floats.Min(v), floats.Max(v)
		for i := range v {
			if hi > lo {
				v[i] = cfg.Min + (v[i]-lo)*(cfg.Max-cfg.Min)/(hi-lo)
			} else {
				v[i] = cfg.Min
			}
		}
	}
	switch {
	case cfg.Axis == nil:
		scale(out.RawMatrix().Data)
	case *cfg.Axis == 0:
		var col = make([]float64, rows)
		for j := 0; j < cols; j++ {
			mat.Col(col, j, out)
			scale(col)
			out.SetCol(j, col)
		}
	case *cfg.Axis == 1:
		for i := 0; i < rows; i++ {
			scale(out.RawRowView(i))
		}
	default:
		return nil, errors.Errorf("features: invalid scaling axis %d", *cfg.Axis)
	}
	return out, nil
}

// WindowNormalization subtracts from every frame the mean of the window of
// WindowLength frames centred on it, and divides by the window standard
// deviation when NormalizeVariance is set. Windows are cut at the edges.
func WindowNormalization(m *mat.Dense, cfg WindowNormConfig) (*mat.Dense, error) {
	cfg.Defaults()
	rows, cols := m.Dims()
	var w = cfg.WindowLength
	if w == -1 || w >= rows {
		w = rows
	}
	if w <= 0 {
		return nil, errors.Errorf("features: invalid window length %d", cfg.WindowLength)
	}
	const epsilon = 1e-6

	// prefix sums per column, row i holds the sum of rows [0, i)
	var sum = mat.NewDense(rows+1, cols, nil)
	var sq = mat.NewDense(rows+1, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			sum.Set(i+1, j, sum.At(i, j)+v)
			sq.Set(i+1, j, sq.At(i, j)+v*v)
		}
	}

	var out = mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		lo := i - w/2
		hi := lo + w
		if lo < 0 {
			lo, hi = 0, w
		}
		if hi > rows {
			lo, hi = rows-w, rows
		}
		n := float64(hi - lo)
		for j := 0; j < cols; j++ {
			mean := (sum.At(hi, j) - sum.At(lo, j)) / n
			v := m.At(i, j) - mean
			if cfg.NormalizeVariance {
				variance := (sq.At(hi, j)-sq.At(lo, j))/n - mean*mean
				v /= math.Sqrt(math.Max(variance, 0)) + epsilon
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// L2Normalize scales every frame to unit euclidean norm. Zero frames stay zero.
func L2Normalize(m *mat.Dense) *mat.Dense {
	var out = mat.DenseCopyOf(m)
	rows, _ := out.Dims()
	for i := 0; i < rows; i++ {
		row := out.RawRowView(i)
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
	}
	return out
}
