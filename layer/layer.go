// Package layer joins the one bit answers of a hashtron stage into the
// features the next stage reads.
package layer

// Layer makes a fresh Combiner for every network input.
type Layer interface {
	Lay() Combiner
}

// Combiner collects the answers of one hashtron stage.
type Combiner interface {
	// Put stores the answer of cell n.
	Put(n int, v bool)

	// Feature returns input n of the next stage.
	Feature(n int) uint32

	// Disregard reports whether cell n answering false or true gives the
	// same features.
	Disregard(n int) bool
}
