package hash

import (
	"testing"
)

// performance benchmark
func BenchmarkHash(b *testing.B) {
	n := uint32(0)
	s := uint32(0)
	for i := 0; i < b.N; i++ {
		n = Hash(n, s, uint32(i)|1)
		s++
	}
}

func BenchmarkString(b *testing.B) {
	for i := 0; i < b.N; i++ {
		String("sw-KE", uint32(i))
	}
}

// loop length test
func TestHashLoopLength(t *testing.T) {
	const bound1 = 20
	const bound2 = 10000
	var count uint64
	for max := uint32(2); max <= 1<<bound1; max <<= 1 {
		var visited = make([]bool, max)
		var current uint32
		for s := uint32(0); s < bound2; s++ {
			current = Hash(current, s, max)
			if current == 0 || visited[current] {
				visited = make([]bool, max)
				continue
			}
			visited[current] = true
			count++
		}
	}
	if count == 0 {
		t.Errorf("hash chain never left zero")
	}
}

func TestHashRange(t *testing.T) {
	for _, max := range []uint32{0, 1, 2, 3, 7, 1000, 1 << 31, 0xFFFFFFFF} {
		for n := uint32(0); n < 1000; n++ {
			out := Hash(n*2654435761, n, max)
			if max == 0 && out != 0 {
				t.Fatalf("Hash(_, _, 0) == %d", out)
			}
			if max > 0 && out >= max {
				t.Fatalf("Hash(%d, %d, %d) == %d out of range", n, n, max, out)
			}
		}
	}
}

// sanity check fuzz
func FuzzHash(f *testing.F) {
	f.Add(uint32(0), uint32(0), uint32(0))
	f.Fuzz(func(t *testing.T, n, s, max uint32) {
		out := Hash(n, s, max)
		if max == 0 && out != 0 {
			t.Errorf("Hash(%d, %d, 0) == %d (max=0 should be 0)", n, s, out)
		}
		if max > 1 && out >= max {
			t.Errorf("Hash(%d, %d, %d) == %d (output bigger or equal than max)", n, s, max, out)
		}
	})
}

func TestHashAll(t *testing.T) {
	testCases := []struct {
		name string
		size int
		max  uint32
	}{
		{"single", 1, 1 << 16},
		{"small", 8, 977},
		{"odd", 17, 1000000},
		{"copy", 31, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := make([]uint32, tc.size)
			out := make([]uint32, tc.size)
			for i := range in {
				in[i] = uint32(i*123 + 456)
			}
			HashAll(out, in, 42, tc.max)
			for i := range out {
				want := in[i]
				if tc.max != 0 {
					want = Hash(in[i], 42, tc.max)
				}
				if out[i] != want {
					t.Errorf("HashAll mismatch at %d: got %d, want %d", i, out[i], want)
				}
			}
		})
	}
}

func TestString(t *testing.T) {
	labels := []string{"en", "ne", "fi", "if", "sv", "et", "te", "", "en-US"}
	seen := make(map[uint32]string)
	for _, l := range labels {
		h := String(l, 7)
		if other, ok := seen[h]; ok {
			t.Errorf("String(%q) collides with String(%q)", l, other)
		}
		seen[h] = l
		if h != String(l, 7) {
			t.Errorf("String(%q) is not deterministic", l)
		}
	}
	if String("en", 1) == String("en", 2) {
		t.Errorf("salt does not affect String")
	}
	for _, l := range labels {
		if got := StringMod(l, 3, 5); got >= 5 {
			t.Errorf("StringMod(%q) == %d out of range", l, got)
		}
	}
}

func TestPrimeAtLeast(t *testing.T) {
	for _, tc := range []struct{ in, want uint32 }{
		{0, 2}, {2, 2}, {3, 3}, {4, 5}, {90, 97}, {1000, 1009}, {65536, 65537},
	} {
		if got := PrimeAtLeast(tc.in); got != tc.want {
			t.Errorf("PrimeAtLeast(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
