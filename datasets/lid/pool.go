package lid

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Pool summarizes the frames of an example into one vector: the per
// dimension mean followed by the per dimension standard deviation. A single
// frame has zero deviation.
func Pool(ex Example) []float64 {
	rows, cols := ex.Features.Dims()
	var out = make([]float64, 2*cols)
	var col = make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, ex.Features)
		mean, variance := stat.MeanVariance(col, nil)
		out[j] = mean
		if rows > 1 {
			out[cols+j] = math.Sqrt(variance)
		}
	}
	return out
}

// PoolDim is the length of the Pool vector for features of dim columns.
func PoolDim(dim int) int {
	return 2 * dim
}
