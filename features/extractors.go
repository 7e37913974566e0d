package features

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Kwargs are the keyword options of an utterance extractor.
type Kwargs map[string]interface{}

// Float reads a numeric option or returns def.
func (k Kwargs) Float(name string, def float64) (float64, error) {
	v, ok := k[name]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, errors.Errorf("features: option %s is %T, not a number", name, v)
}

// Int reads an integer option or returns def.
func (k Kwargs) Int(name string, def int) (int, error) {
	f, err := k.Float(name, float64(def))
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, errors.Errorf("features: option %s is %v, not an integer", name, f)
	}
	return int(f), nil
}

// Bool reads a boolean option or returns def.
func (k Kwargs) Bool(name string, def bool) (bool, error) {
	v, ok := k[name]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, errors.Errorf("features: option %s is %T, not a bool", name, v)
	}
	return b, nil
}

// Extractor computes a frames by features matrix from one utterance.
type Extractor func(signal []float64, rate int, kwargs Kwargs) (*mat.Dense, error)

// NamedExtractor is an entry of the extractor registry.
type NamedExtractor struct {
	Name    string
	Extract Extractor
}

// Extractors lists the utterance extractors in registration order.
var Extractors = []NamedExtractor{
	{"mfcc", MFCC},
	{"mfcc-deltas-012", MFCCDeltas012},
}

// LookupExtractor finds a registered extractor by name.
func LookupExtractor(name string) (Extractor, error) {
	for _, e := range Extractors {
		if e.Name == name {
			return e.Extract, nil
		}
	}
	return nil, errors.Errorf("features: unknown extractor %q", name)
}

// ExtractUtterance runs the named extractor and checks the result is a non-empty matrix.
func ExtractUtterance(signal []float64, rate int, extractor string, kwargs Kwargs) (*mat.Dense, error) {
	fn, err := LookupExtractor(extractor)
	if err != nil {
		return nil, err
	}
	m, err := fn(signal, rate, kwargs)
	if err != nil {
		return nil, errors.Wrap(err, extractor)
	}
	if m == nil {
		return nil, errors.Errorf("features: %s returned no matrix", extractor)
	}
	if r, c := m.Dims(); r == 0 || c == 0 {
		return nil, errors.Errorf("features: %s returned a %dx%d matrix", extractor, r, c)
	}
	return m, nil
}

// MFCC computes MFCCs the classic way: a power mel spectrogram raised to
// mel_spec_power, converted to dB relative to its maximum with an 80 dB
// floor, an orthonormal DCT keeping n_mfcc coefficients, and with normalize
// set every frame scaled to unit L2 norm. Frames are centred: the signal is
// reflect padded by n_fft/2 on both sides, giving 1 + len/hop_length frames.
// The mel bands are Slaney scaled with equal area. Options n_fft (2048),
// hop_length (512) and n_mels (128) are given in samples and bands.
func MFCC(signal []float64, rate int, kwargs Kwargs) (*mat.Dense, error) {
	var opt struct {
		normalize               bool
		power                   float64
		nMFCC, nFFT, hop, nMels int
	}
	var err error
	if opt.normalize, err = kwargs.Bool("normalize", false); err != nil {
		return nil, err
	}
	if opt.power, err = kwargs.Float("mel_spec_power", 1); err != nil {
		return nil, err
	}
	if opt.nMFCC, err = kwargs.Int("n_mfcc", 20); err != nil {
		return nil, err
	}
	if opt.nFFT, err = kwargs.Int("n_fft", 2048); err != nil {
		return nil, err
	}
	if opt.hop, err = kwargs.Int("hop_length", 512); err != nil {
		return nil, err
	}
	if opt.nMels, err = kwargs.Int("n_mels", 128); err != nil {
		return nil, err
	}
	if rate <= 0 || opt.nFFT <= 0 || opt.hop <= 0 {
		return nil, errors.Errorf("features: invalid mfcc framing at %d Hz", rate)
	}

	var ms = func(samples int) float64 { return 1000 * float64(samples) / float64(rate) }
	if len(signal) == 0 {
		return nil, errors.New("features: empty signal")
	}
	spec, err := Spectrogram(reflectPad(signal, opt.nFFT/2), rate, SpectrogramConfig{
		FrameLengthMs: ms(opt.nFFT),
		FrameStepMs:   ms(opt.hop),
		FFTLength:     opt.nFFT,
		Window:        "hann",
		Power:         2,
	})
	if err != nil {
		return nil, err
	}
	_, bins := spec.Dims()
	w, err := SlaneyMelWeights(opt.nMels, bins, rate, 0, 0)
	if err != nil {
		return nil, err
	}
	var mel mat.Dense
	mel.Mul(spec, w)
	if opt.power != 1 {
		mel.Apply(func(_, _ int, v float64) float64 { return math.Pow(v, opt.power) }, &mel)
	}
	db, err := PowerToDB(&mel, DBConfig{Ref: "max"})
	if err != nil {
		return nil, err
	}
	_, n := db.Dims()
	out, err := cepstrum(db, orthoBasis(n), 0, opt.nMFCC)
	if err != nil {
		return nil, err
	}
	if opt.normalize {
		out = L2Normalize(out)
	}
	return out, nil
}

// MFCCDeltas012 computes MFCC with its first order deltas (width 3) and
// second order deltas (width 5) interleaved per coefficient:
// c0, d(c0), dd(c0), c1, d(c1), dd(c1), ...
func MFCCDeltas012(signal []float64, rate int, kwargs Kwargs) (*mat.Dense, error) {
	c, err := MFCC(signal, rate, kwargs)
	if err != nil {
		return nil, err
	}
	d1, err := Deltas(c, 1, 3)
	if err != nil {
		return nil, err
	}
	d2, err := Deltas(c, 2, 5)
	if err != nil {
		return nil, err
	}
	rows, cols := c.Dims()
	var out = mat.NewDense(rows, 3*cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, 3*j, c.At(i, j))
			out.Set(i, 3*j+1, d1.At(i, j))
			out.Set(i, 3*j+2, d2.At(i, j))
		}
	}
	return out, nil
}
