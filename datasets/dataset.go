// Package datasets implements the hashtron training set types
package datasets

import "math/rand"

// Dataset maps an input feature to the bit the hashtron should answer.
type Dataset map[uint32]bool

func (d *Dataset) Init() {
	*d = make(map[uint32]bool)
}

// Count reports the number of false and true samples.
func (d Dataset) Count() (negative, positive int) {
	for _, v := range d {
		if v {
			positive++
		} else {
			negative++
		}
	}
	return
}

type SplittedDataset [2]map[uint32]struct{}

// SplitDataset splits dataset into a false set and a true set
func SplitDataset(d Dataset) (o SplittedDataset) {
	o[0] = make(map[uint32]struct{})
	o[1] = make(map[uint32]struct{})
	for k, v := range d {
		if v {
			o[1][k] = struct{}{}
		} else {
			o[0][k] = struct{}{}
		}
	}
	return
}

// Slices returns both sets as unordered slices, false set first.
func (d SplittedDataset) Slices() (o [2][]uint32) {
	for j := range d {
		o[j] = make([]uint32, 0, len(d[j]))
		for v := range d[j] {
			o[j] = append(o[j], v)
		}
	}
	return
}

// BalanceDataset fills the smaller set with random numbers until it matches the bigger set
func BalanceDataset(d SplittedDataset, rng *rand.Rand) SplittedDataset {
	if len(d[0]) == len(d[1]) {
		return d
	}
	for len(d[0]) < len(d[1]) {
		var w = rng.Uint32()
		if _, ok := d[1][w]; !ok {
			d[0][w] = struct{}{}
		}
	}
	for len(d[1]) < len(d[0]) {
		var w = rng.Uint32()
		if _, ok := d[0][w]; !ok {
			d[1][w] = struct{}{}
		}
	}
	return d
}
