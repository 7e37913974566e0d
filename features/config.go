package features

// Feature types understood by Extract.
const (
	TypeSpectrogram       = "spectrogram"
	TypeMelSpectrogram    = "melspectrogram"
	TypeLogMelSpectrogram = "logmelspectrogram"
	TypeMFCC              = "mfcc"
	TypeDBSpectrogram     = "db_spectrogram"
)

// SpectrogramConfig configures the short time Fourier transform.
type SpectrogramConfig struct {
	FrameLengthMs float64 `yaml:"frame_length_ms"`
	FrameStepMs   float64 `yaml:"frame_step_ms"`
	FFTLength     int     `yaml:"fft_length"`
	Window        string  `yaml:"window"`
	Power         float64 `yaml:"power"`
}

// Defaults fills zero fields.
func (c *SpectrogramConfig) Defaults() {
	if c.FrameLengthMs == 0 {
		c.FrameLengthMs = 25
	}
	if c.FrameStepMs == 0 {
		c.FrameStepMs = 10
	}
	if c.FFTLength == 0 {
		c.FFTLength = 512
	}
	if c.Window == "" {
		c.Window = "hann"
	}
	if c.Power == 0 {
		c.Power = 2
	}
}

// MelConfig configures the mel filterbank. FMax 0 means the Nyquist frequency.
type MelConfig struct {
	NumMelBins int     `yaml:"num_mel_bins"`
	FMin       float64 `yaml:"fmin"`
	FMax       float64 `yaml:"fmax"`
}

// Defaults fills zero fields.
func (c *MelConfig) Defaults() {
	if c.NumMelBins == 0 {
		c.NumMelBins = 40
	}
	if c.FMin == 0 {
		c.FMin = 60
	}
}

// MFCCConfig selects the cepstral coefficients [CoefBegin, CoefEnd).
type MFCCConfig struct {
	CoefBegin int `yaml:"coef_begin"`
	CoefEnd   int `yaml:"coef_end"`
}

// Defaults fills zero fields.
func (c *MFCCConfig) Defaults() {
	if c.CoefBegin == 0 && c.CoefEnd == 0 {
		c.CoefBegin, c.CoefEnd = 1, 13
	}
}

// DBConfig configures PowerToDB. Ref is "max" or "one". TopDB below zero disables clipping.
type DBConfig struct {
	Ref   string  `yaml:"ref"`
	Amin  float64 `yaml:"amin"`
	TopDB float64 `yaml:"top_db"`
}

// Defaults fills zero fields.
func (c *DBConfig) Defaults() {
	if c.Ref == "" {
		c.Ref = "max"
	}
	if c.Amin == 0 {
		c.Amin = 1e-10
	}
	if c.TopDB == 0 {
		c.TopDB = 80
	}
}

// ScaleConfig configures min-max FeatureScaling. A nil Axis scales the whole
// matrix, axis 0 scales every column and axis 1 every row.
type ScaleConfig struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Axis *int    `yaml:"axis"`
}

// Defaults fills zero fields.
func (c *ScaleConfig) Defaults() {
	if c.Min == 0 && c.Max == 0 {
		c.Max = 1
	}
}

// WindowNormConfig configures WindowNormalization. A WindowLength of -1 uses
// the whole utterance.
type WindowNormConfig struct {
	WindowLength      int  `yaml:"window_len"`
	NormalizeVariance bool `yaml:"normalize_variance"`
}

// Defaults fills zero fields.
func (c *WindowNormConfig) Defaults() {
	if c.WindowLength == 0 {
		c.WindowLength = 300
	}
}

// Config configures the Extract cascade. Nil FeatScale and WindowNorm skip those steps.
type Config struct {
	Type        string            `yaml:"type"`
	Spectrogram SpectrogramConfig `yaml:"spectrogram"`
	MelSpec     MelConfig         `yaml:"melspectrogram"`
	MFCC        MFCCConfig        `yaml:"mfcc"`
	DB          DBConfig          `yaml:"db_spectrogram"`
	FeatScale   *ScaleConfig      `yaml:"feat_scale"`
	WindowNorm  *WindowNormConfig `yaml:"window_norm"`
	Workers     int               `yaml:"workers"`
}

// Defaults fills zero fields of every section.
func (c *Config) Defaults() {
	if c.Type == "" {
		c.Type = TypeLogMelSpectrogram
	}
	c.Spectrogram.Defaults()
	c.MelSpec.Defaults()
	c.MFCC.Defaults()
	c.DB.Defaults()
	if c.FeatScale != nil {
		c.FeatScale.Defaults()
	}
	if c.WindowNorm != nil {
		c.WindowNorm.Defaults()
	}
}
