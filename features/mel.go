package features

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	melBreakFrequencyHertz = 700.0
	melHighFrequencyQ      = 1127.0
)

// HzToMel converts hertz to the HTK mel scale.
func HzToMel(hz float64) float64 {
	return melHighFrequencyQ * math.Log(1+hz/melBreakFrequencyHertz)
}

// MelToHz converts HTK mels back to hertz.
func MelToHz(mel float64) float64 {
	return melBreakFrequencyHertz * (math.Exp(mel/melHighFrequencyQ) - 1)
}

// MelWeights returns the bins by numMel matrix mapping a linear spectrogram of
// bins frequency bins to triangular mel bands between fmin and fmax. The
// triangles are built in mel space and the DC bin maps to nothing.
func MelWeights(numMel, bins, rate int, fmin, fmax float64) (*mat.Dense, error) {
	var nyquist = float64(rate) / 2
	if fmax == 0 {
		fmax = nyquist
	}
	switch {
	case numMel <= 0:
		return nil, errors.Errorf("features: %d mel bins", numMel)
	case bins < 2:
		return nil, errors.Errorf("features: %d spectrogram bins", bins)
	case fmin < 0 || fmin >= fmax:
		return nil, errors.Errorf("features: mel range %v..%v is empty", fmin, fmax)
	case fmax > nyquist:
		return nil, errors.Errorf("features: fmax %v above nyquist %v", fmax, nyquist)
	}

	var linear = make([]float64, bins)
	floats.Span(linear, 0, nyquist)
	var edges = make([]float64, numMel+2)
	floats.Span(edges, HzToMel(fmin), HzToMel(fmax))

	var w = mat.NewDense(bins, numMel, nil)
	for i := 1; i < bins; i++ {
		var mel = HzToMel(linear[i])
		for m := 0; m < numMel; m++ {
			lower, center, upper := edges[m], edges[m+1], edges[m+2]
			lo := (mel - lower) / (center - lower)
			hi := (upper - mel) / (upper - center)
			w.Set(i, m, math.Max(0, math.Min(lo, hi)))
		}
	}
	return w, nil
}

// MelSpectrograms maps linear spectrograms sampled at rate to mel bands.
func MelSpectrograms(specs []*mat.Dense, rate int, cfg MelConfig) ([]*mat.Dense, error) {
	cfg.Defaults()
	var out = make([]*mat.Dense, len(specs))
	var w *mat.Dense
	for i, s := range specs {
		_, bins := s.Dims()
		if w == nil || w.RawMatrix().Rows != bins {
			var err error
			if w, err = MelWeights(cfg.NumMelBins, bins, rate, cfg.FMin, cfg.FMax); err != nil {
				return nil, err
			}
		}
		var m mat.Dense
		m.Mul(s, w)
		out[i] = &m
	}
	return out, nil
}

// LogMel takes log(x + 1e-6) of every element.
func LogMel(m *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return math.Log(v + 1e-6) }, m)
	return &out
}

const (
	slaneyLinearHz = 200.0 / 3
	slaneyBreakHz  = 1000.0
	slaneyBreakMel = slaneyBreakHz / slaneyLinearHz
	slaneyLogStep  = 0.06875177742094912 // ln(6.4) / 27
)

// SlaneyHzToMel converts hertz to the Slaney mel scale, linear below 1 kHz
// and logarithmic above.
func SlaneyHzToMel(hz float64) float64 {
	if hz < slaneyBreakHz {
		return hz / slaneyLinearHz
	}
	return slaneyBreakMel + math.Log(hz/slaneyBreakHz)/slaneyLogStep
}

// SlaneyMelToHz converts Slaney mels back to hertz.
func SlaneyMelToHz(mel float64) float64 {
	if mel < slaneyBreakMel {
		return mel * slaneyLinearHz
	}
	return slaneyBreakHz * math.Exp(slaneyLogStep*(mel-slaneyBreakMel))
}

// SlaneyMelWeights returns the bins by numMel matrix of triangular bands
// equally spaced on the Slaney mel scale between fmin and fmax, built in
// hertz and scaled to equal area. fmax 0 means nyquist.
func SlaneyMelWeights(numMel, bins, rate int, fmin, fmax float64) (*mat.Dense, error) {
	var nyquist = float64(rate) / 2
	if fmax == 0 {
		fmax = nyquist
	}
	switch {
	case numMel <= 0:
		return nil, errors.Errorf("features: %d mel bins", numMel)
	case bins < 2:
		return nil, errors.Errorf("features: %d spectrogram bins", bins)
	case fmin < 0 || fmin >= fmax:
		return nil, errors.Errorf("features: mel range %v..%v is empty", fmin, fmax)
	}

	var linear = make([]float64, bins)
	floats.Span(linear, 0, nyquist)
	var edges = make([]float64, numMel+2)
	floats.Span(edges, SlaneyHzToMel(fmin), SlaneyHzToMel(fmax))
	for i, m := range edges {
		edges[i] = SlaneyMelToHz(m)
	}

	var w = mat.NewDense(bins, numMel, nil)
	for m := 0; m < numMel; m++ {
		lower, center, upper := edges[m], edges[m+1], edges[m+2]
		norm := 2 / (upper - lower)
		for i, f := range linear {
			lo := (f - lower) / (center - lower)
			hi := (upper - f) / (upper - center)
			w.Set(i, m, norm*math.Max(0, math.Min(lo, hi)))
		}
	}
	return w, nil
}

// reflectPad extends signal by n samples on both sides, mirrored around the
// first and last sample without repeating them.
func reflectPad(signal []float64, n int) []float64 {
	var l = len(signal)
	var out = make([]float64, l+2*n)
	if l == 1 {
		for i := range out {
			out[i] = signal[0]
		}
		return out
	}
	var period = 2 * (l - 1)
	for i := range out {
		j := (i - n) % period
		if j < 0 {
			j += period
		}
		if j >= l {
			j = period - j
		}
		out[i] = signal[j]
	}
	return out
}
