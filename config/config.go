// Package config reads lidbox experiment files.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/neurlang/lidbox/features"
)

// Dataset splits.
const (
	Training   = "training"
	Validation = "validation"
	Test       = "test"
)

// Classifier backends.
const (
	BackendDense    = "dense"
	BackendHashtron = "hashtron"
)

// Augmentation types.
const (
	AugmentResampling = "random_resampling"
	AugmentNoise      = "additive_noise"
)

// Config is one experiment.
type Config struct {
	Experiment string   `yaml:"experiment"`
	CacheDir   string   `yaml:"cache_dir"`
	Datasets   Datasets `yaml:"datasets"`
	Audio      Audio    `yaml:"audio"`
	Features   Features `yaml:"features"`
	Model      Model    `yaml:"model"`
}

// Datasets holds the manifest directory of every split.
type Datasets struct {
	Training   string `yaml:"training"`
	Validation string `yaml:"validation"`
	Test       string `yaml:"test"`
}

// Dir returns the manifest directory of split.
func (d Datasets) Dir(split string) (string, error) {
	var dir string
	switch split {
	case Training:
		dir = d.Training
	case Validation:
		dir = d.Validation
	case Test:
		dir = d.Test
	default:
		return "", errors.Errorf("config: unknown split %q", split)
	}
	if dir == "" {
		return "", errors.Errorf("config: datasets.%s is not set", split)
	}
	return dir, nil
}

// Splits lists the configured splits.
func (d Datasets) Splits() (out []string) {
	for _, s := range []string{Training, Validation, Test} {
		if _, err := d.Dir(s); err == nil {
			out = append(out, s)
		}
	}
	return
}

// Audio configures loading and chunking.
type Audio struct {
	SampleRate    int       `yaml:"sample_rate"`
	ChunkSeconds  float64   `yaml:"chunk_seconds"`
	MaxPadSeconds float64   `yaml:"max_pad_seconds"`
	Augment       []Augment `yaml:"augment"`
}

// Augment describes one augmentation applied to the listed splits.
type Augment struct {
	Type   string   `yaml:"type"`
	Splits []string `yaml:"splits"`
	Copies int      `yaml:"copies"`
	// Range bounds the random_resampling speed ratio.
	Range []float64 `yaml:"range"`
	// NoiseDir is a manifest directory whose labels are noise types.
	NoiseDir string   `yaml:"noise_dir"`
	SNR      []SNRDef `yaml:"snr_def"`
	Seed     int64    `yaml:"seed"`
}

// SNRDef mixes noise of Type at a random SNR within [DBMin, DBMax].
type SNRDef struct {
	Type  string  `yaml:"type"`
	DBMin float64 `yaml:"db_min"`
	DBMax float64 `yaml:"db_max"`
}

// Applies reports whether the augmentation runs on split.
func (a Augment) Applies(split string) bool {
	for _, s := range a.Splits {
		if s == split {
			return true
		}
	}
	return false
}

// Features selects the feature cascade or a named utterance extractor.
type Features struct {
	features.Config `yaml:",inline"`
	Extractor       string          `yaml:"extractor"`
	Kwargs          features.Kwargs `yaml:"kwargs"`
	BatchSize       int             `yaml:"batch_size"`
	ShardSize       int             `yaml:"shard_size"`
}

// Model configures the classifier and its training.
type Model struct {
	Name          string         `yaml:"name"`
	Backend       string         `yaml:"backend"`
	Hidden        []int          `yaml:"hidden"`
	Epochs        int            `yaml:"epochs"`
	BatchSize     int            `yaml:"batch_size"`
	LearningRate  float64        `yaml:"learning_rate"`
	WeightDecay   float64        `yaml:"weight_decay"`
	Seed          int64          `yaml:"seed"`
	EarlyStopping *EarlyStopping `yaml:"early_stopping"`
	Checkpoints   Checkpoints    `yaml:"checkpoints"`
	EvalThreads   int            `yaml:"eval_threads"`
	Hashtron      Hashtron       `yaml:"hashtron"`
}

// EarlyStopping stops when val_loss stops improving by MinDelta for Patience epochs.
type EarlyStopping struct {
	Patience    int     `yaml:"patience"`
	MinDelta    float64 `yaml:"min_delta"`
	RestoreBest bool    `yaml:"restore_best_weights"`
}

// Checkpoints controls weight saving during training.
type Checkpoints struct {
	Disabled     bool `yaml:"disabled"`
	SaveBestOnly bool `yaml:"save_best_only"`
}

// Hashtron configures the hashtron backend.
type Hashtron struct {
	Planes      int    `yaml:"planes"`
	Premodulo   uint32 `yaml:"premodulo"`
	MaxFeatures int    `yaml:"max_features"`
	Rounds      int    `yaml:"rounds"`
}

// Load reads, completes and validates the experiment at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config")
	}
	c, err := Parse(b)
	return c, errors.Wrap(err, path)
}

// Parse decodes an experiment strictly, fills defaults and validates it.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(b, &c); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	c.Defaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Defaults fills unset values.
func (c *Config) Defaults() {
	if c.CacheDir == "" {
		c.CacheDir = "lidbox-cache"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.ChunkSeconds == 0 {
		c.Audio.ChunkSeconds = 2
	}
	for i := range c.Audio.Augment {
		a := &c.Audio.Augment[i]
		if len(a.Splits) == 0 {
			a.Splits = []string{Training}
		}
		if a.Copies == 0 {
			a.Copies = 1
		}
	}
	if c.Features.Extractor == "" {
		c.Features.Config.Defaults()
	}
	if c.Features.BatchSize == 0 {
		c.Features.BatchSize = 64
	}
	if c.Features.ShardSize == 0 {
		c.Features.ShardSize = 1000
	}
	m := &c.Model
	if m.Name == "" {
		m.Name = c.Experiment
	}
	if m.Backend == "" {
		m.Backend = BackendDense
	}
	if m.Hidden == nil && m.Backend == BackendDense {
		m.Hidden = []int{256, 256}
	}
	if m.Epochs == 0 {
		m.Epochs = 10
	}
	if m.BatchSize == 0 {
		m.BatchSize = 32
	}
	if m.LearningRate == 0 {
		m.LearningRate = 1e-3
	}
	if m.EarlyStopping != nil && m.EarlyStopping.Patience == 0 {
		m.EarlyStopping.Patience = 3
	}
	if m.Hashtron.Planes == 0 {
		m.Hashtron.Planes = 16
	}
	if m.Hashtron.Premodulo == 0 {
		m.Hashtron.Premodulo = 1 << 16
	}
	if m.Hashtron.MaxFeatures == 0 {
		m.Hashtron.MaxFeatures = 4096
	}
	if m.Hashtron.Rounds == 0 {
		m.Hashtron.Rounds = 3
	}
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	if c.Experiment == "" {
		return errors.New("config: experiment is not set")
	}
	if c.Datasets.Training == "" {
		return errors.New("config: datasets.training is not set")
	}
	if c.Audio.SampleRate <= 0 {
		return errors.Errorf("config: audio.sample_rate %d must be positive", c.Audio.SampleRate)
	}
	if c.Audio.ChunkSeconds <= 0 || c.Audio.MaxPadSeconds < 0 || c.Audio.MaxPadSeconds >= c.Audio.ChunkSeconds {
		return errors.Errorf("config: audio.chunk_seconds %v and max_pad_seconds %v are invalid", c.Audio.ChunkSeconds, c.Audio.MaxPadSeconds)
	}
	for i, a := range c.Audio.Augment {
		if err := a.validate(); err != nil {
			return errors.Wrapf(err, "config: audio.augment[%d]", i)
		}
	}
	if c.Features.Extractor != "" {
		if _, err := features.LookupExtractor(c.Features.Extractor); err != nil {
			return errors.Wrap(err, "config: features.extractor")
		}
	} else {
		switch c.Features.Type {
		case features.TypeSpectrogram, features.TypeMelSpectrogram, features.TypeLogMelSpectrogram,
			features.TypeMFCC, features.TypeDBSpectrogram:
		default:
			return errors.Errorf("config: features.type %q is unknown", c.Features.Type)
		}
	}
	m := c.Model
	switch m.Backend {
	case BackendDense, BackendHashtron:
	default:
		return errors.Errorf("config: model.backend %q is unknown", m.Backend)
	}
	if m.Epochs < 0 || m.BatchSize < 0 || m.LearningRate < 0 || m.WeightDecay < 0 {
		return errors.New("config: model.epochs, batch_size, learning_rate and weight_decay must not be negative")
	}
	for _, h := range m.Hidden {
		if h <= 0 {
			return errors.Errorf("config: model.hidden %v must be positive", m.Hidden)
		}
	}
	if m.Hashtron.Planes < 1 || m.Hashtron.Planes > 32 {
		return errors.Errorf("config: model.hashtron.planes %d must be within 1 and 32", m.Hashtron.Planes)
	}
	return nil
}

func (a Augment) validate() error {
	for _, s := range a.Splits {
		if s != Training && s != Validation && s != Test {
			return errors.Errorf("unknown split %q", s)
		}
	}
	if a.Copies < 0 {
		return errors.Errorf("copies %d is negative", a.Copies)
	}
	switch a.Type {
	case AugmentResampling:
		if len(a.Range) != 2 || a.Range[0] <= 0 || a.Range[0] > a.Range[1] {
			return errors.Errorf("range %v must be two increasing positive ratios", a.Range)
		}
	case AugmentNoise:
		if a.NoiseDir == "" || len(a.SNR) == 0 {
			return errors.New("noise_dir and snr_def are required")
		}
		for _, d := range a.SNR {
			if d.Type == "" || d.DBMin > d.DBMax {
				return errors.Errorf("snr_def %+v is invalid", d)
			}
		}
	default:
		return errors.Errorf("unknown type %q", a.Type)
	}
	return nil
}

// ModelDir is the cache directory of the model.
func (c *Config) ModelDir() string {
	return filepath.Join(c.CacheDir, c.Model.Name)
}

// CheckpointDir holds the checkpoints of the model.
func (c *Config) CheckpointDir() string {
	return filepath.Join(c.ModelDir(), "checkpoints")
}

// SummaryDir holds the run directories of the model.
func (c *Config) SummaryDir() string {
	return filepath.Join(c.ModelDir(), "summary")
}

// FeatureDir holds the shards and meta of split.
func (c *Config) FeatureDir(split string) string {
	return filepath.Join(c.CacheDir, "features", split)
}
