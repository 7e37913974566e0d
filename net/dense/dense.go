// Package dense implements a small fully connected softmax classifier
// trained with Adam on mini-batches.
package dense

import (
	"math"
	"math/rand"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var log = logging.MustGetLogger("dense")

// Adam moment decay rates and denominator epsilon.
const (
	Beta1   = 0.9
	Beta2   = 0.999
	Epsilon = 1e-8
)

// Config shapes and trains a Network.
type Config struct {
	Input        int     `msgpack:"input"`
	Output       int     `msgpack:"output"`
	Hidden       []int   `msgpack:"hidden"`
	LearningRate float64 `msgpack:"learning_rate"`
	WeightDecay  float64 `msgpack:"weight_decay"`
	Seed         int64   `msgpack:"seed"`
}

// Layer is one affine transform, inputs by outputs, with its Adam moments.
type Layer struct {
	W *mat.Dense
	B []float64

	mW, vW *mat.Dense
	mB, vB []float64
}

// Network is a stack of ReLU layers followed by a softmax layer.
type Network struct {
	cfg    Config
	layers []*Layer
	step   int
}

// New initializes a network with He normal weights drawn from cfg.Seed.
func New(cfg Config) (*Network, error) {
	if cfg.Input <= 0 || cfg.Output <= 0 {
		return nil, errors.Errorf("dense: input %d and output %d must be positive", cfg.Input, cfg.Output)
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 1e-3
	}
	var sizes = append([]int{cfg.Input}, cfg.Hidden...)
	sizes = append(sizes, cfg.Output)
	for _, s := range sizes {
		if s <= 0 {
			return nil, errors.Errorf("dense: layer sizes %v must be positive", sizes)
		}
	}
	var rng = rand.New(rand.NewSource(cfg.Seed))
	var n = &Network{cfg: cfg}
	for i := 0; i+1 < len(sizes); i++ {
		in, out := sizes[i], sizes[i+1]
		std := math.Sqrt(2 / float64(in))
		data := make([]float64, in*out)
		for k := range data {
			data[k] = rng.NormFloat64() * std
		}
		n.layers = append(n.layers, newLayer(mat.NewDense(in, out, data), make([]float64, out)))
	}
	log.Debugf("dense network %v", sizes)
	return n, nil
}

func newLayer(w *mat.Dense, b []float64) *Layer {
	r, c := w.Dims()
	return &Layer{
		W: w, B: b,
		mW: mat.NewDense(r, c, nil), vW: mat.NewDense(r, c, nil),
		mB: make([]float64, c), vB: make([]float64, c),
	}
}

// Config returns the configuration of the network.
func (n *Network) Config() Config {
	return n.cfg
}

// Layers returns the layers, input first.
func (n *Network) Layers() []*Layer {
	return n.layers
}

// Clone deep copies the weights. Optimizer state starts fresh.
func (n *Network) Clone() *Network {
	var c = &Network{cfg: n.cfg, step: n.step}
	for _, l := range n.layers {
		c.layers = append(c.layers, newLayer(mat.DenseCopyOf(l.W), append([]float64(nil), l.B...)))
	}
	return c
}

// forward returns the activations of every layer; the first is x and the
// last holds the class probabilities.
func (n *Network) forward(x mat.Matrix) []*mat.Dense {
	var acts = []*mat.Dense{mat.DenseCopyOf(x)}
	for i, l := range n.layers {
		var z mat.Dense
		z.Mul(acts[i], l.W)
		rows, _ := z.Dims()
		for r := 0; r < rows; r++ {
			floats.Add(z.RawRowView(r), l.B)
		}
		if i+1 < len(n.layers) {
			z.Apply(func(_, _ int, v float64) float64 { return math.Max(0, v) }, &z)
		} else {
			for r := 0; r < rows; r++ {
				softmax(z.RawRowView(r))
			}
		}
		acts = append(acts, &z)
	}
	return acts
}

func softmax(row []float64) {
	max := floats.Max(row)
	var sum float64
	for i, v := range row {
		row[i] = math.Exp(v - max)
		sum += row[i]
	}
	floats.Scale(1/sum, row)
}

func (n *Network) check(x mat.Matrix, labels []int) error {
	rows, cols := x.Dims()
	if cols != n.cfg.Input {
		return errors.Errorf("dense: input has %d columns, want %d", cols, n.cfg.Input)
	}
	if labels == nil {
		return nil
	}
	if len(labels) != rows {
		return errors.Errorf("dense: %d labels for %d rows", len(labels), rows)
	}
	for _, l := range labels {
		if l < 0 || l >= n.cfg.Output {
			return errors.Errorf("dense: label %d out of range", l)
		}
	}
	return nil
}

// Predict returns the class probabilities of every row of x.
func (n *Network) Predict(x mat.Matrix) (*mat.Dense, error) {
	if err := n.check(x, nil); err != nil {
		return nil, err
	}
	acts := n.forward(x)
	return acts[len(acts)-1], nil
}

// Loss is the mean categorical cross-entropy of x against labels.
func (n *Network) Loss(x mat.Matrix, labels []int) (float64, error) {
	p, err := n.Predict(x)
	if err != nil {
		return 0, err
	}
	if err := n.check(x, labels); err != nil {
		return 0, err
	}
	return CrossEntropy(p, labels), nil
}

// CrossEntropy is the mean of -log p[label] per row.
func CrossEntropy(p *mat.Dense, labels []int) float64 {
	var sum float64
	for i, l := range labels {
		sum -= math.Log(math.Max(p.At(i, l), 1e-12))
	}
	return sum / float64(len(labels))
}

// TrainBatch takes one Adam step on the batch and returns its loss before the step.
func (n *Network) TrainBatch(x mat.Matrix, labels []int) (float64, error) {
	if err := n.check(x, labels); err != nil {
		return 0, err
	}
	rows, _ := x.Dims()
	if rows == 0 {
		return 0, errors.New("dense: empty batch")
	}
	acts := n.forward(x)
	probs := acts[len(acts)-1]
	loss := CrossEntropy(probs, labels)

	// softmax and cross-entropy gradient
	var delta = mat.DenseCopyOf(probs)
	for i, l := range labels {
		delta.Set(i, l, delta.At(i, l)-1)
	}
	delta.Scale(1/float64(rows), delta)

	n.step++
	for i := len(n.layers) - 1; i >= 0; i-- {
		l := n.layers[i]
		var gW mat.Dense
		gW.Mul(acts[i].T(), delta)
		if n.cfg.WeightDecay > 0 {
			gW.Add(&gW, scaled(n.cfg.WeightDecay, l.W))
		}
		var gB = make([]float64, len(l.B))
		for r := 0; r < rows; r++ {
			floats.Add(gB, delta.RawRowView(r))
		}
		if i > 0 {
			var prev mat.Dense
			prev.Mul(delta, l.W.T())
			prev.Apply(func(r, c int, v float64) float64 {
				if acts[i].At(r, c) <= 0 {
					return 0
				}
				return v
			}, &prev)
			delta = &prev
		}
		n.adam(l.W.RawMatrix().Data, gW.RawMatrix().Data, l.mW.RawMatrix().Data, l.vW.RawMatrix().Data)
		n.adam(l.B, gB, l.mB, l.vB)
	}
	return loss, nil
}

func scaled(f float64, m mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Scale(f, m)
	return &out
}

func (n *Network) adam(w, g, m, v []float64) {
	var c1 = 1 - math.Pow(Beta1, float64(n.step))
	var c2 = 1 - math.Pow(Beta2, float64(n.step))
	for i := range w {
		m[i] = Beta1*m[i] + (1-Beta1)*g[i]
		v[i] = Beta2*v[i] + (1-Beta2)*g[i]*g[i]
		w[i] -= n.cfg.LearningRate * (m[i] / c1) / (math.Sqrt(v[i]/c2) + Epsilon)
	}
}
