package hash

import "github.com/jbarham/primegen"

// PrimeAtLeast returns the smallest prime greater or equal to n.
// Values beyond the largest 32 bit prime return 4294967291.
func PrimeAtLeast(n uint32) uint32 {
	const largest = 4294967291
	if n > largest {
		return largest
	}
	var pg = primegen.New()
	for {
		p := pg.Next()
		if p >= uint64(n) {
			return uint32(p)
		}
	}
}
