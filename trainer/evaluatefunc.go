package trainer

import (
	"context"

	"github.com/neurlang/lidbox/parallel"
)

// EvaluateFuncHasher collects per sample predictions into a state digest.
type EvaluateFuncHasher interface {
	MustPutUint16(n int, value uint16)
	Sum() [32]byte
}

// sampleSize is the number of utterances out of n needed to estimate the
// accuracy within 100-significance percent at the significance confidence,
// assuming the worst case accuracy of one half.
func sampleSize(n int, significance byte) int {
	if n <= 1 || significance >= 100 {
		return n
	}
	var z = zScore(significance)
	var e = float64(100-significance) / 100
	var ss = z * z / 4 / (e * e)
	// finite population correction
	ss = ss * float64(n) / (float64(n) - 1 + ss)
	switch {
	case ss < 1:
		return 1
	case int(ss) > n:
		return n
	}
	return int(ss)
}

// zScore of the two sided confidence interval, 95% for unlisted levels.
func zScore(confidence byte) float64 {
	switch {
	case confidence >= 99:
		return 2.576
	case confidence >= 95 || confidence < 90:
		return 1.96
	}
	return 1.645
}

// NewEvaluateFunc returns an evaluation over a sample of a dataset of length
// elements. The sample is statistically sufficient at significance percent,
// 100 tests everything. testFunc reports the success percent over the first
// portion elements and records each prediction in the hasher, so that the
// returned digest identifies the network behaviour.
func NewEvaluateFunc(length int, significance byte,
	testFunc func(ctx context.Context, portion int, h EvaluateFuncHasher) (int, error)) func(ctx context.Context) (int, [32]byte, error) {

	return func(ctx context.Context) (int, [32]byte, error) {
		var l = sampleSize(length, significance)
		var h = parallel.NewUint16Hasher(l)
		success, err := testFunc(ctx, l, h)
		if err != nil {
			return 0, [32]byte{}, err
		}
		return success, h.Sum(), nil
	}
}
