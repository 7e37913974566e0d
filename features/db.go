package features

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// PowerToDB converts a power spectrogram to decibels relative to its maximum
// (Ref "max") or to 1 (Ref "one"). With TopDB above zero the result is clipped
// below at its maximum minus TopDB.
func PowerToDB(m *mat.Dense, cfg DBConfig) (*mat.Dense, error) {
	cfg.Defaults()
	if cfg.Amin <= 0 {
		return nil, errors.Errorf("features: amin %v must be positive", cfg.Amin)
	}
	var ref float64
	switch cfg.Ref {
	case "max":
		ref = mat.Max(m)
	case "one":
		ref = 1
	default:
		return nil, errors.Errorf("features: unknown db reference %q", cfg.Ref)
	}
	var offset = 10 * math.Log10(math.Max(cfg.Amin, ref))

	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 {
		return 10*math.Log10(math.Max(cfg.Amin, v)) - offset
	}, m)
	if cfg.TopDB > 0 {
		var floor = mat.Max(&out) - cfg.TopDB
		out.Apply(func(_, _ int, v float64) float64 { return math.Max(v, floor) }, &out)
	}
	return &out, nil
}
