package trainer

import (
	"context"
	"math/rand"

	"github.com/neurlang/lidbox/net/feedforward"
	"github.com/neurlang/lidbox/parallel"
)

// NewLoopFunc returns the retraining loop of a hashtron network. Each round
// visits the hashtrons in shuffled order and retrains one with trainWorst; a
// retrain making the evaluated success percent worse is undone. Pairs of
// network state and hashtron already tried at the current success are
// skipped. The loop ends after rounds rounds, after a round without
// improvement, or at 100 percent, and returns the final success.
func NewLoopFunc(net *feedforward.FeedforwardNetwork, rng *rand.Rand, rounds int,
	evaluate func(ctx context.Context) (int, [32]byte, error),
	trainWorst func(ctx context.Context, worst []int) (undo func(), err error)) func(ctx context.Context) (int, error) {

	return func(ctx context.Context) (int, error) {
		var m = parallel.NewMoveSet()
		success, state, err := evaluate(ctx)
		if err != nil {
			return 0, err
		}
		log.Debugf("retrain start %d%% state %x", success, state[:4])
		for round := 0; round < rounds && success < 100; round++ {
			var improved bool
			for _, worst := range net.Shuffle(rng, false) {
				if err := ctx.Err(); err != nil {
					return success, err
				}
				if m.Exists(state, worst, byte(success)) {
					continue
				}
				undo, err := trainWorst(ctx, []int{worst})
				if err != nil {
					return success, err
				}
				if undo != nil {
					thisSuccess, thisState, err := evaluate(ctx)
					if err != nil {
						undo()
						return success, err
					}
					if thisSuccess < success {
						undo()
					} else {
						improved = improved || thisSuccess > success || thisState != state
						success, state = thisSuccess, thisState
					}
				}
				m.Insert(state, worst, byte(success))
				log.Debugf("round %d hashtron %d: %d%%", round, worst, success)
			}
			if !improved {
				break
			}
		}
		return success, nil
	}
}
