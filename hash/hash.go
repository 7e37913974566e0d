// Package hash implements the fast modular hash used by the hashtron classifier
// and by the static label lookup tables.
package hash

// Hash mixes n with salt s and reduces the result into range 0 to max-1.
// For max == 0 the result is always 0.
func Hash(n uint32, s uint32, max uint32) uint32 {
	// modular stage, multiply shift instead of modulo
	// https://lemire.me/blog/2016/06/27/a-fast-alternative-to-the-modulo-reduction/
	return uint32((uint64(mix(n, s)) * uint64(max)) >> 32)
}

// mix is Hash without the modular stage.
func mix(n uint32, s uint32) uint32 {
	// mixing stage, mix input with salt using subtraction
	var m = n - s

	// hashing stage, use xor shift with prime coefficients
	m ^= m << 2
	m ^= m << 3
	m ^= m >> 5
	m ^= m >> 7
	m ^= m << 11
	m ^= m << 13
	m ^= m >> 17
	m ^= m << 19

	// mixing stage 2, mix input with salt using addition
	return m + s
}

// Bytes folds a byte string into a 32 bit value, salted by salt.
// Each byte is mixed together with its position so that permutations differ.
func Bytes(b []byte, salt uint32) uint32 {
	var acc = mix(uint32(len(b)), salt)
	for i, c := range b {
		acc = mix(acc^uint32(c), salt+uint32(i))
	}
	return acc
}

// String is Bytes for strings.
func String(str string, salt uint32) uint32 {
	return Bytes([]byte(str), salt)
}

// StringMod hashes str and reduces it into range 0 to max-1.
func StringMod(str string, salt uint32, max uint32) uint32 {
	return uint32((uint64(String(str, salt)) * uint64(max)) >> 32)
}
