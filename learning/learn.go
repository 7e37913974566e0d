// Package learning implements the learning stage of the hashtron classifier.
// A program is found by repeatedly hashing the false set and the true set
// into a shrinking modulo while keeping their images disjoint, until a final
// parity step sends the false set to 0 and the true set to 1.
package learning

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/neurlang/lidbox/datasets"
	"github.com/neurlang/lidbox/hash"
	"github.com/neurlang/lidbox/hashtron"
	"github.com/neurlang/lidbox/parallel"
)

var log = logging.MustGetLogger("learning")

// ErrNoSolution is returned when the salt search keeps failing.
var ErrNoSolution = errors.New("learning: no solution found")

// Training learns a single bit hashtron answering the dataset exactly.
func (h *HyperParameters) Training(ctx context.Context, d datasets.Dataset) (*hashtron.Hashtron, error) {
	h.fill()
	var seed = h.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	var rng = rand.New(rand.NewSource(seed))

	var sd = datasets.SplitDataset(d)
	if h.Balance {
		sd = datasets.BalanceDataset(sd, rng)
	}

	if h.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Deadline)
		defer cancel()
	}

	program, err := h.Reducing(ctx, sd.Slices(), rng)
	if err != nil {
		return nil, err
	}
	return hashtron.New(program, 1)
}

// Reducing finds the program for the false set alphabet[0] and the true set
// alphabet[1]. The alphabet is modified.
func (h *HyperParameters) Reducing(ctx context.Context, alphabet [2][]uint32, rng *rand.Rand) ([][2]uint32, error) {
	h.fill()
	var program [][2]uint32

	if len(alphabet[1]) == 0 {
		// an empty program answers false everywhere
		return program, nil
	}
	if len(alphabet[0]) == 0 {
		// collapse everything into zero, the parity step then maps it to true
		program = append(program, [2]uint32{0, 1})
		alphabet[1] = []uint32{0}
	}

	var max = crowded(alphabet, h.Factor, 2)
	if max > h.MaxModulo {
		max = h.MaxModulo
	}
	max = hash.PrimeAtLeast(max)

	var failures int
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "learning")
		}
		if len(alphabet[0])+len(alphabet[1]) <= h.ParityLimit {
			if salt, ok := h.search(ctx, alphabet, 2, true, rng.Uint32()); ok {
				program = append(program, [2]uint32{salt, 2})
				log.Debugf("solution size %d", len(program))
				return program, nil
			}
		}

		salt, ok := h.search(ctx, alphabet, max, false, rng.Uint32())
		if !ok {
			failures++
			if failures > h.Retries {
				return nil, errors.Wrapf(ErrNoSolution, "modulo %d, sizes %d/%d", max, len(alphabet[0]), len(alphabet[1]))
			}
			max += max/4 + 1
			continue
		}

		program = append(program, [2]uint32{salt, max})
		for j := range alphabet {
			alphabet[j] = images(alphabet[j], salt, max)
		}
		log.Debugf("step %d modulo %d sizes %d/%d", len(program), max, len(alphabet[0]), len(alphabet[1]))

		var next = crowded(alphabet, h.Factor, 2)
		if next >= max {
			next = max - 1
		}
		if next < 2 {
			next = 2
		}
		max = next
	}
}

// crowded returns falsecount*truecount/factor, at least min.
func crowded(alphabet [2][]uint32, factor, min uint32) uint32 {
	var v = uint64(len(alphabet[0])) * uint64(len(alphabet[1])) / uint64(factor)
	if v > 1<<31 {
		v = 1 << 31
	}
	if v < uint64(min) {
		return min
	}
	return uint32(v)
}

// images hashes every value and removes duplicates.
func images(values []uint32, salt, max uint32) []uint32 {
	var seen = make(map[uint32]struct{}, len(values))
	var out = values[:0]
	for _, v := range values {
		w := hash.Hash(v, salt, max)
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// search looks for a salt keeping the images of both sets disjoint under
// modulo max. In parity mode the false set must land on 0 and the true set on 1.
func (h *HyperParameters) search(ctx context.Context, alphabet [2][]uint32, max uint32, parity bool, base uint32) (uint32, bool) {
	var (
		won  atomic.Bool
		salt atomic.Uint32
	)
	parallel.Loop(h.Threads).LoopUntilContext(ctx, func(nonce uint32, ender parallel.LoopStopper) bool {
		if nonce >= h.SaltBudget {
			return true
		}
		var s = base + nonce
		var good bool
		if parity {
			good = separates(alphabet, s)
		} else {
			good = disjoint(alphabet, s, max, ender)
		}
		if good && won.CompareAndSwap(false, true) {
			salt.Store(s)
			return true
		}
		return false
	})
	return salt.Load(), won.Load()
}

func separates(alphabet [2][]uint32, s uint32) bool {
	for j := range alphabet {
		for _, v := range alphabet[j] {
			if hash.Hash(v, s, 2) != uint32(j) {
				return false
			}
		}
	}
	return true
}

func disjoint(alphabet [2][]uint32, s, max uint32, ender parallel.LoopStopper) bool {
	var set0 = make(map[uint32]struct{}, len(alphabet[0]))
	for _, v := range alphabet[0] {
		set0[hash.Hash(v, s, max)] = struct{}{}
	}
	for i, v := range alphabet[1] {
		if i&1023 == 1023 && ender.Load() {
			return false
		}
		if _, ok := set0[hash.Hash(v, s, max)]; ok {
			return false
		}
	}
	return true
}
