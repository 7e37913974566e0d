package feedforward

import "math/rand"

// Shuffle returns every hashtron number, shuffled within its stage with the
// stages kept in order. reverse visits the last stage first.
func (f FeedforwardNetwork) Shuffle(rng *rand.Rand, reverse bool) (o []int) {
	o = make([]int, 0, f.Len())
	var base = 0
	for _, s := range f.stages {
		for _, i := range rng.Perm(len(s.cells)) {
			o = append(o, base+i)
		}
		base += len(s.cells)
	}
	if reverse {
		for i, j := 0, len(o)-1; i < j; i, j = i+1, j-1 {
			o[i], o[j] = o[j], o[i]
		}
	}
	return o
}
