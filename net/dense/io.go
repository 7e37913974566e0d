package dense

import (
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/mat"
)

type savedLayer struct {
	Rows int       `msgpack:"rows"`
	Cols int       `msgpack:"cols"`
	W    []float64 `msgpack:"w"`
	B    []float64 `msgpack:"b"`
}

type saved struct {
	Config Config       `msgpack:"config"`
	Step   int          `msgpack:"step"`
	Layers []savedLayer `msgpack:"layers"`
}

// Save writes the weights as zstd compressed msgpack.
func (n *Network) Save(w io.Writer) error {
	var s = saved{Config: n.cfg, Step: n.step}
	for _, l := range n.layers {
		r, c := l.W.Dims()
		s.Layers = append(s.Layers, savedLayer{Rows: r, Cols: c, W: mat.DenseCopyOf(l.W).RawMatrix().Data, B: l.B})
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "dense")
	}
	if err := msgpack.NewEncoder(zw).Encode(&s); err != nil {
		zw.Close()
		return errors.Wrap(err, "dense")
	}
	return errors.Wrap(zw.Close(), "dense")
}

// Load reads weights written by Save.
func Load(r io.Reader) (*Network, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "dense")
	}
	defer zr.Close()
	var s saved
	if err := msgpack.NewDecoder(zr).Decode(&s); err != nil {
		return nil, errors.Wrap(err, "dense")
	}
	var n = &Network{cfg: s.Config, step: s.Step}
	var in = s.Config.Input
	for i, l := range s.Layers {
		if l.Rows != in || l.Rows*l.Cols != len(l.W) || l.Cols != len(l.B) {
			return nil, errors.Errorf("dense: layer %d is malformed", i)
		}
		n.layers = append(n.layers, newLayer(mat.NewDense(l.Rows, l.Cols, l.W), l.B))
		in = l.Cols
	}
	if len(n.layers) == 0 || in != s.Config.Output {
		return nil, errors.Errorf("dense: weights do not produce %d outputs", s.Config.Output)
	}
	return n, nil
}

// SaveFile writes the weights to path.
func (n *Network) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "dense")
	}
	if err := n.Save(f); err != nil {
		f.Close()
		return errors.Wrap(err, path)
	}
	return errors.Wrap(f.Close(), path)
}

// LoadFile reads the weights from path.
func LoadFile(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "dense")
	}
	defer f.Close()
	n, err := Load(f)
	return n, errors.Wrap(err, path)
}
