// Package hashtron implements the hashtron, a classifier whose learned
// weights are a short program of hashing commands. The language classifier
// trains one single bit hashtron per language over quantized frames.
package hashtron

import "errors"

// ErrBits is returned for hashtrons answering more than 16 bits.
var ErrBits = errors.New("hashtron: bits out of range")

// Hashtron is a program of (salt, modulo) hashing commands answering bits bits.
type Hashtron struct {
	program [][2]uint32
	bits    byte

	quaternary []byte
}

// New copies program into a hashtron answering bits bits, 0 meaning 1.
// An empty program answers zero to every input.
func New(program [][2]uint32, bits byte) (*Hashtron, error) {
	if bits > 16 {
		return nil, ErrBits
	}
	if bits == 0 {
		bits = 1
	}
	return &Hashtron{program: append([][2]uint32(nil), program...), bits: bits}, nil
}

// Get returns command n.
func (h Hashtron) Get(n int) (s uint32, max uint32) {
	return h.program[n][0], h.program[n][1]
}

// Len returns the number of commands.
func (h Hashtron) Len() int {
	return len(h.program)
}

// LenQ is the size of the learned quaternary filter, zero until trained.
func (h Hashtron) LenQ() int {
	return len(h.quaternary)
}

// SetQuaternary stores the filter learned with the program.
func (h *Hashtron) SetQuaternary(filter []byte) {
	h.quaternary = append([]byte(nil), filter...)
}

// Program returns a copy of the commands.
func (h Hashtron) Program() [][2]uint32 {
	return append([][2]uint32(nil), h.program...)
}

// Xor is the output inversion, zero for trained hashtrons.
func (h Hashtron) Xor() uint32 {
	return 0
}

func (h Hashtron) Bits() byte {
	return h.bits
}

// SetBits keeps the answer width when a trained program replaces a cell.
func (h *Hashtron) SetBits(bits byte) {
	h.bits = bits
}
