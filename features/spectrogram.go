// Package features computes spectral features of mono signals: spectrograms,
// mel spectrograms, MFCCs, deltas and their normalizations. Every feature
// matrix has one row per frame.
package features

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/window"
	"github.com/pkg/errors"
	"github.com/r9y9/gossp/stft"
	"gonum.org/v1/gonum/mat"
)

// windows maps window names to their generators.
var windows = map[string]func(int) []float64{
	"hann":     window.Hann,
	"hamming":  window.Hamming,
	"bartlett": window.Bartlett,
	"rect":     window.Rectangular,
}

// frames converts a duration in milliseconds to a sample count.
func frames(ms float64, rate int) int {
	return int(math.Round(ms * float64(rate) / 1000))
}

// Spectrogram computes the power spectrogram of one signal, frames by
// FFTLength/2+1 bins. The window covers FrameLengthMs and is zero padded to
// FFTLength. Signals shorter than one FFT are zero padded.
func Spectrogram(signal []float64, rate int, cfg SpectrogramConfig) (*mat.Dense, error) {
	cfg.Defaults()
	win, ok := windows[cfg.Window]
	if !ok {
		return nil, errors.Errorf("features: unknown window %q", cfg.Window)
	}
	var frameLen, step = frames(cfg.FrameLengthMs, rate), frames(cfg.FrameStepMs, rate)
	if frameLen <= 0 || step <= 0 {
		return nil, errors.Errorf("features: frame length %d and step %d must be positive", frameLen, step)
	}
	if frameLen > cfg.FFTLength {
		return nil, errors.Errorf("features: frame length %d exceeds fft length %d", frameLen, cfg.FFTLength)
	}
	if len(signal) == 0 {
		return nil, errors.New("features: empty signal")
	}

	s := stft.New(step, cfg.FFTLength)
	s.Window = make([]float64, cfg.FFTLength)
	copy(s.Window, win(frameLen))

	if len(signal) < cfg.FFTLength {
		padded := make([]float64, cfg.FFTLength)
		copy(padded, signal)
		signal = padded
	}
	spectrum := s.STFT(signal)

	var bins = cfg.FFTLength/2 + 1
	var out = mat.NewDense(len(spectrum), bins, nil)
	for i, frame := range spectrum {
		row := out.RawRowView(i)
		for j := range row {
			row[j] = math.Pow(cmplx.Abs(frame[j]), cfg.Power)
		}
	}
	return out, nil
}

// Spectrograms computes Spectrogram for every signal sampled at rate.
func Spectrograms(signals [][]float64, rate int, cfg SpectrogramConfig) ([]*mat.Dense, error) {
	var out = make([]*mat.Dense, len(signals))
	for i, sig := range signals {
		m, err := Spectrogram(sig, rate, cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "signal %d", i)
		}
		out[i] = m
	}
	return out, nil
}
