package features

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// dctBasis returns the n by n basis of the unnormalized DCT-II scaled by 1/sqrt(2n).
// Multiplying a log mel matrix on the right gives its cepstral coefficients.
func dctBasis(n int) *mat.Dense {
	var b = mat.NewDense(n, n, nil)
	var scale = 2 / math.Sqrt(2*float64(n))
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			b.Set(i, k, scale*math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*float64(n))))
		}
	}
	return b
}

// orthoBasis returns the orthonormal DCT-II basis.
func orthoBasis(n int) *mat.Dense {
	var b = dctBasis(n)
	var first = b.ColView(0).(*mat.VecDense)
	first.ScaleVec(1/math.Sqrt2, first)
	return b
}

// cepstrum multiplies m with basis and keeps the columns [begin, end).
func cepstrum(m, basis *mat.Dense, begin, end int) (*mat.Dense, error) {
	_, n := m.Dims()
	if end > n {
		end = n
	}
	if begin < 0 || begin >= end {
		return nil, errors.Errorf("features: empty coefficient range [%d, %d)", begin, end)
	}
	var c mat.Dense
	c.Mul(m, basis)
	rows, _ := c.Dims()
	var out = mat.NewDense(rows, end-begin, nil)
	out.Copy(c.Slice(0, rows, begin, end))
	return out, nil
}

// MFCCs computes cepstral coefficients [CoefBegin, CoefEnd) of log mel
// spectrograms. CoefEnd beyond the number of mel bins is clamped.
func MFCCs(logmels []*mat.Dense, cfg MFCCConfig) ([]*mat.Dense, error) {
	cfg.Defaults()
	var out = make([]*mat.Dense, len(logmels))
	var basis *mat.Dense
	for i, m := range logmels {
		_, n := m.Dims()
		if basis == nil || basis.RawMatrix().Rows != n {
			basis = dctBasis(n)
		}
		c, err := cepstrum(m, basis, cfg.CoefBegin, cfg.CoefEnd)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
