// Package inference implements the inference stage of compiled hashtron models
package inference

import "github.com/neurlang/lidbox/hash"

// Model is a compiled single bit hashtron, for example one generated as Go source.
type Model interface {
	Get(n int) (s uint32, max uint32)
	Len() int
	Xor() uint32
}

// BoolInfer answers the model on one input. An empty model answers its xor bit
// for every input, as hashtron.Forward does.
func BoolInfer(input uint32, m Model) bool {
	if m.Len() == 0 {
		return m.Xor()&1 != 0
	}
	for i := 0; i < m.Len(); i++ {
		var s, max = m.Get(i)
		input = hash.Hash(input, s, max)
	}
	input &= 1
	input ^= m.Xor()
	return input != 0
}

// Votes reports the fraction of inputs the model answers true. Empty input votes 0.
func Votes(inputs []uint32, m Model) float64 {
	if len(inputs) == 0 {
		return 0
	}
	var yes int
	for _, in := range inputs {
		if BoolInfer(in, m) {
			yes++
		}
	}
	return float64(yes) / float64(len(inputs))
}

// Program is a Model backed by a literal program, the form written by hashtron.BytesBuffer.
type Program [][2]uint32

func (p Program) Get(n int) (s uint32, max uint32) { return p[n][0], p[n][1] }
func (p Program) Len() int                         { return len(p) }
func (p Program) Xor() uint32                      { return 0 }
