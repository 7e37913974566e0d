package parallel

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"
)

// Hasher computes a digest of values written concurrently at fixed positions.
// The digest does not depend on the order of the writes, only on the values,
// so two evaluations producing the same predictions produce the same state.
type Hasher struct {
	mut     sync.Mutex
	data    []byte
	written []bool
}

// NewUint16Hasher creates a hasher for n uint16 values.
func NewUint16Hasher(n int) *Hasher {
	return &Hasher{
		data:    make([]byte, 2*n),
		written: make([]bool, n),
	}
}

// MustPutUint16 stores value at position n. Writing the same position twice panics.
func (h *Hasher) MustPutUint16(n int, value uint16) {
	h.mut.Lock()
	defer h.mut.Unlock()
	if h.written[n] {
		panic("duplicate write")
	}
	h.written[n] = true
	binary.LittleEndian.PutUint16(h.data[2*n:], value)
}

// Sum returns the sha256 of all values, unwritten positions count as zero.
func (h *Hasher) Sum() (ret [32]byte) {
	h.mut.Lock()
	defer h.mut.Unlock()
	return sha256.Sum256(h.data)
}
