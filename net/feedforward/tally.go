package feedforward

import "github.com/neurlang/lidbox/datasets"

// Tally tallies the network on input in with respect to the to-be-trained worst
// hashtron. The network output is computed with the worst hashtron answering
// false and answering true; the input feature of the worst hashtron is voted
// towards the answer with the lower loss. Equal losses cast no vote.
func (f *FeedforwardNetwork) Tally(in FeedforwardNetworkInput, worst int, tally *datasets.Tally,
	loss func(out FeedforwardNetworkInput) uint32) {
	l := f.GetLayer(worst)
	if l < 0 {
		return
	}
	pos := f.GetPosition(worst)
	for l_prev := 0; l_prev < l; l_prev += 2 {
		in, _ = f.Forward(in, l_prev, -1, 0)
	}
	ifw := f.feature(in, l, pos)

	var losses [2]uint32
	var computed [2]bool
	for neg := 0; neg < 2; neg++ {
		inter, bit := f.Forward(in, l, pos, neg)
		computed[neg] = bit
		if neg == 0 && inter.Disregard(pos) {
			return
		}
		for l_post := l + 2; l_post < f.LenLayers(); l_post += 2 {
			inter, _ = f.Forward(inter, l_post, -1, 0)
		}
		losses[neg] = loss(inter)
	}
	if losses[0] == losses[1] {
		return
	}
	var better = 0
	if losses[1] < losses[0] {
		better = 1
	}
	var vote int8 = -1
	if computed[better] {
		vote = 1
	}
	tally.AddToCorrect(ifw, vote, better == 1)
}
