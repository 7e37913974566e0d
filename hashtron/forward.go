package hashtron

import "github.com/neurlang/lidbox/hash"

// Forward runs the command through the program and returns the low bit of the
// chained hash for every recognized bit. negate flips the returned bits.
func (h Hashtron) Forward(command uint32, negate bool) (out uint16) {
	if h.Len() == 0 {
		if negate {
			return uint16(1<<h.Bits()) - 1
		}
		return
	}
	for j := byte(0); j < h.Bits(); j++ {
		var input = command ^ (uint32(j) << 16)
		for i := 0; i < h.Len(); i++ {
			var s, max = h.Get(i)
			input = hash.Hash(input, s, max)
		}
		input &= 1
		if negate {
			input ^= 1
		}
		if input != 0 {
			out |= 1 << j
		}
	}
	return
}

// Bool is Forward for single bit hashtrons.
func (h Hashtron) Bool(command uint32) bool {
	return h.Forward(command, false)&1 != 0
}
