// Package full implements the combiner exposing every cell answer of a
// hashtron stage, such as one accept bit per language.
package full

import "errors"

import "github.com/neurlang/lidbox/layer"

// FullLayer lays Full combiners over size cells.
type FullLayer struct {
	size  int
	step  int
	width int
}

// MustNew is New panicking on invalid arguments.
func MustNew(size int, bits, maxbits byte) *FullLayer {
	o, err := New(size, bits, maxbits)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// New creates a layer over size cells whose feature n packs maxbits answers
// starting at cell n*bits.
func New(size int, bits, maxbits byte) (*FullLayer, error) {
	if size <= 0 {
		return nil, errors.New("full: size must be positive")
	}
	if bits == 0 || maxbits == 0 || maxbits > 32 {
		return nil, errors.New("full: bits out of range")
	}
	return &FullLayer{size: size, step: int(bits), width: int(maxbits)}, nil
}

// Lay returns an empty combiner.
func (i *FullLayer) Lay() layer.Combiner {
	return &Full{set: make([]uint64, (i.size+63)/64), size: i.size, step: i.step, width: i.width}
}
