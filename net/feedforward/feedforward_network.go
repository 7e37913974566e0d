// Package feedforward implements a feedforward network of hashtron layers
// joined by combiners. The language classifier uses one layer of single bit
// cells, one cell per language, reading the quantized frames of an utterance.
package feedforward

import "github.com/neurlang/lidbox/hash"
import "github.com/neurlang/lidbox/hashtron"
import "github.com/neurlang/lidbox/layer"

// FeedforwardNetworkInput is one input to the network, such as a frame code.
type FeedforwardNetworkInput interface {
	Feature(n int) uint32
}

// Intermediate is a layer output read by the next layer.
type Intermediate interface {
	FeedforwardNetworkInput

	// Disregard reports whether the n-th bit cannot affect the output.
	Disregard(n int) bool
}

// SingleValue is the output of a final layer without a combiner.
type SingleValue uint32

func (v SingleValue) Feature(n int) uint32 { return uint32(v) }
func (v SingleValue) Disregard(n int) bool { return false }

// stage is either a hashtron layer or a combiner.
type stage struct {
	cells     []hashtron.Hashtron
	bits      byte
	premodulo uint32
	combiner  layer.Layer
}

// FeedforwardNetwork alternates hashtron stages with the combiners joining
// their outputs. Hashtrons are numbered across stages in order.
type FeedforwardNetwork struct {
	stages []stage
}

// Len returns the number of hashtrons to train.
func (f FeedforwardNetwork) Len() (o int) {
	for _, s := range f.stages {
		o += len(s.cells)
	}
	return
}

// LenLayers returns the number of stages, combiners included.
func (f FeedforwardNetwork) LenLayers() int {
	return len(f.stages)
}

// locate returns the stage and position of hashtron n, or -1, -1.
func (f FeedforwardNetwork) locate(n int) (int, int) {
	if n < 0 {
		return -1, -1
	}
	for l, s := range f.stages {
		if n < len(s.cells) {
			return l, n
		}
		n -= len(s.cells)
	}
	return -1, -1
}

// GetLayer returns the stage of hashtron n, or -1.
func (f FeedforwardNetwork) GetLayer(n int) int {
	l, _ := f.locate(n)
	return l
}

// GetPosition returns the position of hashtron n within its stage, or -1.
func (f FeedforwardNetwork) GetPosition(n int) int {
	_, p := f.locate(n)
	return p
}

// GetHashtron returns hashtron n, or nil.
func (f FeedforwardNetwork) GetHashtron(n int) *hashtron.Hashtron {
	l, p := f.locate(n)
	if l < 0 {
		return nil
	}
	return &f.stages[l].cells[p]
}

// Forget resets every hashtron to an empty program.
func (f *FeedforwardNetwork) Forget() {
	for _, s := range f.stages {
		for j := range s.cells {
			h, _ := hashtron.New(nil, s.bits)
			s.cells[j] = *h
		}
	}
}

// NewLayerP appends n hashtrons recognizing bits bits each. A non zero
// premodulo salts every input feature with the cell position and reduces it
// into [0, premodulo).
func (f *FeedforwardNetwork) NewLayerP(n int, bits byte, premodulo uint32) {
	if bits == 0 {
		bits = 1
	}
	var s = stage{cells: make([]hashtron.Hashtron, n), bits: bits, premodulo: premodulo}
	for i := range s.cells {
		h, _ := hashtron.New(nil, bits)
		s.cells[i] = *h
	}
	f.stages = append(f.stages, s)
}

// NewCombiner appends a combiner stage.
func (f *FeedforwardNetwork) NewCombiner(l layer.Layer) {
	f.stages = append(f.stages, stage{combiner: l})
}

// feature reads the input of the cell at pos of stage l.
func (f FeedforwardNetwork) feature(in FeedforwardNetworkInput, l, pos int) uint32 {
	var feat = in.Feature(pos)
	if m := f.stages[l].premodulo; m != 0 {
		feat = hash.Hash(feat, uint32(pos), m)
	}
	return feat
}

// Inputs writes into out what hashtron n reads for every code.
func (f FeedforwardNetwork) Inputs(n int, codes, out []uint32) {
	l, p := f.locate(n)
	if l < 0 {
		return
	}
	hash.HashAll(out, codes, uint32(p), f.stages[l].premodulo)
}

// Forward computes the output of stage l on its input in. The cell at worst
// answers negated when neg is 1; its answer is returned as computed.
func (f FeedforwardNetwork) Forward(in FeedforwardNetworkInput, l, worst, neg int) (inter Intermediate, computed bool) {
	var cells = f.stages[l].cells
	if l+1 < len(f.stages) && f.stages[l+1].combiner != nil {
		var combiner = f.stages[l+1].combiner.Lay()
		for i := range cells {
			var bit = cells[i].Forward(f.feature(in, l, i), i == worst && neg == 1)&1 != 0
			combiner.Put(i, bit)
			if i == worst {
				computed = bit
			}
		}
		return combiner, computed
	}
	var val = cells[0].Forward(f.feature(in, l, 0), worst == 0 && neg == 1)
	return SingleValue(val), val&1 != 0
}

// Infer runs every hashtron stage on in.
func (f FeedforwardNetwork) Infer(in FeedforwardNetworkInput) (out FeedforwardNetworkInput) {
	out = in
	for l := 0; l < len(f.stages); l += 2 {
		out, _ = f.Forward(out, l, -1, 0)
	}
	return
}
