package lid

import (
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Hyperplanes quantizes feature frames into integer codes: bit i of a code is
// set when the frame, centred on the utterance mean, lies on the positive
// side of hyperplane i.
type Hyperplanes struct {
	normals *mat.Dense
}

// NewHyperplanes draws planes random normals of dimension dim from seed.
func NewHyperplanes(dim, planes int, seed int64) (*Hyperplanes, error) {
	if dim <= 0 {
		return nil, errors.Errorf("lid: hyperplane dim must be positive, got %d", dim)
	}
	if planes <= 0 || planes > 32 {
		return nil, errors.Errorf("lid: hyperplanes must be within 1 and 32, got %d", planes)
	}
	var rng = rand.New(rand.NewSource(seed))
	var data = make([]float64, dim*planes)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return &Hyperplanes{normals: mat.NewDense(dim, planes, data)}, nil
}

// Planes is the number of code bits.
func (h *Hyperplanes) Planes() int {
	_, c := h.normals.Dims()
	return c
}

// Codes returns one code per frame of ex.
func (h *Hyperplanes) Codes(ex Example) ([]uint32, error) {
	rows, cols := ex.Features.Dims()
	if dim, _ := h.normals.Dims(); dim != cols {
		return nil, errors.Errorf("lid: example %s has dim %d, hyperplanes %d", ex.ID, cols, dim)
	}
	var mean = make([]float64, cols)
	for i := 0; i < rows; i++ {
		for j, v := range ex.Features.RawRowView(i) {
			mean[j] += v / float64(rows)
		}
	}
	var centred = mat.NewDense(rows, cols, nil)
	centred.Apply(func(i, j int, v float64) float64 { return v - mean[j] }, ex.Features)

	var proj mat.Dense
	proj.Mul(centred, h.normals)
	var out = make([]uint32, rows)
	for i := range out {
		for b, v := range proj.RawRowView(i) {
			if v > 0 {
				out[i] |= 1 << uint(b)
			}
		}
	}
	return out, nil
}
