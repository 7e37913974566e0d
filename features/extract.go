package features

import (
	"context"
	"math"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/neurlang/lidbox/parallel"
)

var log = logging.MustGetLogger("features")

var (
	// ErrNonFinite is returned when a feature matrix holds NaN or Inf.
	ErrNonFinite = errors.New("features: non-finite values")
	// ErrSampleRateMismatch is returned when a batch mixes sample rates.
	ErrSampleRateMismatch = errors.New("features: sample rates differ")
)

// Extract runs the feature cascade of cfg over a batch of signals with equal
// sample rates. The spectrogram feeds the mel filterbank for mel, log mel and
// MFCC types, the logarithm for log mel and MFCC, and the DCT for MFCC, while
// the dB type converts the spectrogram directly. Optional scaling and window
// normalization follow.
func Extract(ctx context.Context, signals [][]float64, rates []int, cfg Config) ([]*mat.Dense, error) {
	cfg.Defaults()
	if len(signals) != len(rates) {
		return nil, errors.Errorf("features: %d signals but %d sample rates", len(signals), len(rates))
	}
	for i := range signals {
		if len(signals[i]) == 0 {
			return nil, errors.Errorf("features: signal %d is empty", i)
		}
		if rates[i] != rates[0] {
			return nil, errors.Wrapf(ErrSampleRateMismatch, "%d Hz and %d Hz", rates[0], rates[i])
		}
	}
	switch cfg.Type {
	case TypeSpectrogram, TypeMelSpectrogram, TypeLogMelSpectrogram, TypeMFCC, TypeDBSpectrogram:
	default:
		return nil, errors.Errorf("features: unknown feature type %q", cfg.Type)
	}

	var workers = cfg.Workers
	if workers <= 0 {
		workers = parallel.Threads()
	}
	var out = make([]*mat.Dense, len(signals))
	err := parallel.ForEachErr(ctx, len(signals), workers, func(ctx context.Context, i int) (err error) {
		out[i], err = extractOne(signals[i], rates[i], cfg)
		return errors.Wrapf(err, "signal %d", i)
	})
	if err != nil {
		return nil, err
	}
	log.Debugf("extracted %s from %d signals", cfg.Type, len(signals))
	return out, nil
}

func extractOne(signal []float64, rate int, cfg Config) (*mat.Dense, error) {
	m, err := Spectrogram(signal, rate, cfg.Spectrogram)
	if err != nil {
		return nil, err
	}
	switch cfg.Type {
	case TypeMelSpectrogram, TypeLogMelSpectrogram, TypeMFCC:
		mels, err := MelSpectrograms([]*mat.Dense{m}, rate, cfg.MelSpec)
		if err != nil {
			return nil, err
		}
		m = mels[0]
		if cfg.Type != TypeMelSpectrogram {
			m = LogMel(m)
		}
		if cfg.Type == TypeMFCC {
			mfccs, err := MFCCs([]*mat.Dense{m}, cfg.MFCC)
			if err != nil {
				return nil, err
			}
			m = mfccs[0]
		}
	case TypeDBSpectrogram:
		if m, err = PowerToDB(m, cfg.DB); err != nil {
			return nil, err
		}
	}
	if cfg.FeatScale != nil {
		if m, err = FeatureScaling(m, *cfg.FeatScale); err != nil {
			return nil, err
		}
	}
	if cfg.WindowNorm != nil {
		if m, err = WindowNormalization(m, *cfg.WindowNorm); err != nil {
			return nil, err
		}
	}
	if !Finite(m) {
		return nil, ErrNonFinite
	}
	return m, nil
}

// Finite reports whether every element of m is a finite number.
func Finite(m mat.Matrix) bool {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
