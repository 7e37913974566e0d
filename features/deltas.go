package features

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Deltas computes the order-th time derivative of every column with a
// Savitzky-Golay filter: a polynomial of degree order is least squares fit
// to width frames around each frame and differentiated order times. The
// first and last width/2 frames reuse the fit of the first and last full
// window. Order 0 returns a copy.
func Deltas(m *mat.Dense, order, width int) (*mat.Dense, error) {
	if width < 3 || width%2 == 0 {
		return nil, errors.Errorf("features: delta width %d must be odd and at least 3", width)
	}
	if order < 0 || order >= width {
		return nil, errors.Errorf("features: delta order %d must be within 0 and width %d", order, width)
	}
	if order == 0 {
		return mat.DenseCopyOf(m), nil
	}
	rows, cols := m.Dims()
	if rows < width {
		return nil, errors.Errorf("features: %d frames are fewer than delta width %d", rows, width)
	}
	h, err := savgol(width, order)
	if err != nil {
		return nil, err
	}
	var half = width / 2
	var out = mat.NewDense(rows, cols, nil)
	for t := 0; t < rows; t++ {
		start := t - half
		if start < 0 {
			start = 0
		} else if start > rows-width {
			start = rows - width
		}
		for j := 0; j < cols; j++ {
			var acc float64
			for i, w := range h {
				acc += w * m.At(start+i, j)
			}
			out.Set(t, j, acc)
		}
	}
	return out, nil
}

// savgol returns the weights giving the order-th derivative of the degree
// order polynomial fit to a window of width frames. That derivative is
// order! times the leading coefficient, the same at every position of the
// window.
func savgol(width, order int) ([]float64, error) {
	var half = float64(width / 2)
	var a = mat.NewDense(width, order+1, nil)
	for i := 0; i < width; i++ {
		x, p := float64(i)-half, 1.0
		for k := 0; k <= order; k++ {
			a.Set(i, k, p)
			p *= x
		}
	}
	// coef = (AᵀA)⁻¹ Aᵀ maps the window onto the polynomial coefficients
	var ata, coef mat.Dense
	ata.Mul(a.T(), a)
	if err := coef.Solve(&ata, a.T()); err != nil {
		return nil, errors.Wrap(err, "features: delta filter")
	}
	var factorial = 1.0
	for k := 2; k <= order; k++ {
		factorial *= float64(k)
	}
	var h = make([]float64, width)
	for i := range h {
		h[i] = factorial * coef.At(order, i)
	}
	return h, nil
}
