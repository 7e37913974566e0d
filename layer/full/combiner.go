package full

// Full stores the cell answers as a bitset.
type Full struct {
	set   []uint64
	size  int
	step  int
	width int
}

func (f *Full) Put(n int, v bool) {
	if v {
		f.set[n>>6] |= 1 << (n & 63)
	} else {
		f.set[n>>6] &^= 1 << (n & 63)
	}
}

func (f *Full) get(n int) uint32 {
	return uint32(f.set[n>>6]>>(n&63)) & 1
}

// Feature packs the answers of cells n*bits onward, the first one most
// significant. Features past the last cell are 0.
func (f *Full) Feature(n int) (o uint32) {
	n *= f.step
	if n < 0 || n+f.width > f.size {
		return 0
	}
	for pos := n; pos < n+f.width; pos++ {
		o = o<<1 | f.get(pos)
	}
	return
}

// Disregard is false, every answer reaches a feature.
func (f *Full) Disregard(n int) bool {
	return false
}

// Len reports the number of cells.
func (f *Full) Len() int {
	return f.size
}
