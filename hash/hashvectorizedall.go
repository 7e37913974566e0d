package hash

// HashAll reduces every input under one salt, out[i] = Hash(in[i], s, max).
// A hashtron layer calls it to premodulo the frame codes of an utterance
// for one cell. With max == 0 the inputs are copied unchanged.
func HashAll(out, in []uint32, s uint32, max uint32) {
	if max == 0 {
		copy(out, in)
		return
	}
	for i, n := range in[:len(out)] {
		out[i] = Hash(n, s, max)
	}
}
