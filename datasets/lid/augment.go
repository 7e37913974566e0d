package lid

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/neurlang/lidbox/audio"
	"github.com/neurlang/lidbox/hash"
)

// Augmentation derives a new utterance from a signal.
type Augmentation interface {
	Augment(rng *rand.Rand, id string, sig audio.Signal) (string, audio.Signal, error)
}

// SpeedAugmentation changes the speed by a ratio drawn uniformly from [Min, Max].
type SpeedAugmentation struct {
	Min, Max float64
}

// Augment appends -speed<ratio> to the id.
func (a SpeedAugmentation) Augment(rng *rand.Rand, id string, sig audio.Signal) (string, audio.Signal, error) {
	ratio := a.Min + rng.Float64()*(a.Max-a.Min)
	out, err := audio.SpeedPerturb(sig, ratio)
	return fmt.Sprintf("%s-speed%.3f", id, ratio), out, err
}

// SNRRange mixes noise of Type at an integer SNR drawn uniformly from
// [DBMin, DBMax], both ends included.
type SNRRange struct {
	Type         string
	DBMin, DBMax float64
}

// draw picks the SNR in whole decibels.
func (r SNRRange) draw(rng *rand.Rand) int {
	lo, hi := int(math.Ceil(r.DBMin)), int(math.Floor(r.DBMax))
	if hi < lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// NoiseAugmentation holds the background noise of every SNR range. Mixes
// returns the augmentations, one per range.
type NoiseAugmentation struct {
	noise  map[string][]audio.Signal
	ranges []SNRRange
}

// NewNoiseAugmentation loads the noise signals of dir, a manifest directory
// whose labels are noise types, resampled to rate. Every type in ranges must
// have at least one signal.
func NewNoiseAugmentation(dir string, rate int, ranges []SNRRange) (*NoiseAugmentation, error) {
	utts, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	var want = make(map[string]bool)
	for _, r := range ranges {
		want[r.Type] = true
	}
	var a = &NoiseAugmentation{noise: make(map[string][]audio.Signal), ranges: ranges}
	for _, u := range utts {
		if !want[u.Label] {
			continue
		}
		sig, err := audio.Load(u.Path)
		if err != nil {
			return nil, err
		}
		if sig, err = audio.Resample(sig, rate); err != nil {
			return nil, err
		}
		a.noise[u.Label] = append(a.noise[u.Label], sig)
	}
	for t := range want {
		if len(a.noise[t]) == 0 {
			return nil, errors.Errorf("lid: no noise of type %q in %s", t, dir)
		}
	}
	log.Infof("loaded noise of %d types from %s", len(a.noise), dir)
	return a, nil
}

// Mixes returns one augmentation per SNR range, all sharing the loaded noise.
func (a *NoiseAugmentation) Mixes() []Augmentation {
	var out = make([]Augmentation, len(a.ranges))
	for i, r := range a.ranges {
		out[i] = noiseMix{noise: a.noise[r.Type], r: r}
	}
	return out
}

// noiseMix adds noise of one SNR range.
type noiseMix struct {
	noise []audio.Signal
	r     SNRRange
}

// Augment appends -<type>_snr<db> to the id.
func (m noiseMix) Augment(rng *rand.Rand, id string, sig audio.Signal) (string, audio.Signal, error) {
	noise := m.noise[rng.Intn(len(m.noise))]
	snr := m.r.draw(rng)
	if noise.Rate != sig.Rate {
		return "", audio.Signal{}, errors.Errorf("lid: noise at %d Hz for a %d Hz signal", noise.Rate, sig.Rate)
	}
	mixed, err := audio.MixSNR(sig.Samples, noise.Samples, float64(snr), rng.Intn(len(noise.Samples)))
	if err != nil {
		return "", audio.Signal{}, errors.Wrap(err, id)
	}
	return fmt.Sprintf("%s-%s_snr%d", id, m.r.Type, snr), audio.Signal{Samples: mixed, Rate: sig.Rate}, nil
}

// utteranceRand seeds a generator from the utterance id so augmentations do
// not depend on the processing order.
func utteranceRand(seed int64, id string) *rand.Rand {
	return rand.New(rand.NewSource(seed ^ int64(hash.String(id, 0))))
}
