package trainer

import (
	"context"

	"github.com/neurlang/quaternary"
	"github.com/pkg/errors"

	"github.com/neurlang/lidbox/datasets"
	"github.com/neurlang/lidbox/hashtron"
	"github.com/neurlang/lidbox/learning"
	"github.com/neurlang/lidbox/net/feedforward"
)

// NewTrainWorstFunc returns a trainWorst for NewLoopFunc. For every worst
// hashtron the votes of tallyFunc are reduced to the maxFeatures strongest
// features and a new program is learned for them. Each refit also carries the
// quaternary filter of its dataset; when several hashtrons are refit at once
// and all of them were trained before, the refit is refused if the filters
// grow. The returned undo restores the previous programs; nil means no vote
// could improve the network.
func NewTrainWorstFunc(net *feedforward.FeedforwardNetwork, h *learning.HyperParameters, maxFeatures int,
	tallyFunc func(ctx context.Context, worst int, t *datasets.Tally) error) func(ctx context.Context, worst []int) (undo func(), err error) {

	return func(ctx context.Context, worst []int) (func(), error) {
		if len(worst) == 0 {
			return nil, nil
		}
		var programs = make([]*hashtron.Hashtron, len(worst))
		var previousQ, newQ int
		var untrained bool
		for i, idx := range worst {
			var tally datasets.Tally
			tally.Init()
			if err := tallyFunc(ctx, idx, &tally); err != nil {
				return nil, err
			}
			if !tally.GetImprovementPossible() {
				return nil, nil
			}
			set := tally.Strongest(maxFeatures)
			tally.Free()
			ptr := net.GetHashtron(idx)
			if ptr == nil {
				return nil, errors.Errorf("trainer: no hashtron %d", idx)
			}
			log.Debugf("hashtron %d: learning %d features", idx, len(set))
			tron, err := h.Training(ctx, set)
			if err != nil {
				return nil, errors.Wrapf(err, "trainer: hashtron %d", idx)
			}
			tron.SetBits(ptr.Bits())
			tron.SetQuaternary([]byte(quaternary.Make(map[uint32]bool(set))))
			programs[i] = tron

			if ptr.LenQ() == 0 {
				untrained = true
			}
			previousQ += ptr.LenQ()
			newQ += tron.LenQ()
		}
		if len(worst) > 1 && !untrained && newQ > previousQ {
			log.Debugf("hashtrons %v: filters grow %d -> %d bytes", worst, previousQ, newQ)
			return nil, nil
		}

		var backups = make([]hashtron.Hashtron, len(worst))
		for i, idx := range worst {
			ptr := net.GetHashtron(idx)
			backups[i] = *ptr
			*ptr = *programs[i]
		}
		return func() {
			for i, idx := range worst {
				*net.GetHashtron(idx) = backups[i]
			}
		}, nil
	}
}
