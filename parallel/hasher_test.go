package parallel

import "testing"

func TestHasher(t *testing.T) {
	h := NewUint16Hasher(100)
	for n := uint16(0); n < 100; n++ {
		h.MustPutUint16(int(n), n)
	}
	h2 := NewUint16Hasher(100)
	ForEach(100, 7, func(i int) {
		h2.MustPutUint16(99-i, uint16(99-i))
	})
	if h.Sum() != h2.Sum() {
		t.Errorf("hash depends on write order: %x != %x", h.Sum(), h2.Sum())
	}
	h3 := NewUint16Hasher(100)
	h3.MustPutUint16(5, 6)
	if h3.Sum() == h.Sum() {
		t.Errorf("different values hash the same")
	}
}

func TestHasherDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("duplicate write did not panic")
		}
	}()
	h := NewUint16Hasher(2)
	h.MustPutUint16(1, 1)
	h.MustPutUint16(1, 2)
}
