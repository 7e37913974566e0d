package lid

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/neurlang/lidbox/features"
)

// MetaFile is the name of the shard sidecar inside a feature directory.
const MetaFile = "meta.yaml"

// Meta describes the feature shards of one dataset split.
type Meta struct {
	FeatureType string           `yaml:"feature_type"`
	FeatureDim  int              `yaml:"feature_dim"`
	SampleRate  int              `yaml:"sample_rate"`
	Labels      []string         `yaml:"labels"`
	NumExamples int              `yaml:"num_examples"`
	Shards      []string         `yaml:"shards"`
	Features    *features.Config `yaml:"features,omitempty"`
	Extractor   string           `yaml:"extractor,omitempty"`
	Kwargs      features.Kwargs  `yaml:"kwargs,omitempty"`
}

// WriteMeta writes m into dir/meta.yaml.
func WriteMeta(dir string, m *Meta) error {
	b, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "lid: meta")
	}
	return errors.Wrap(os.WriteFile(filepath.Join(dir, MetaFile), b, 0o644), "lid")
}

// ReadMeta reads dir/meta.yaml.
func ReadMeta(dir string) (*Meta, error) {
	var path = filepath.Join(dir, MetaFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "lid")
	}
	var m Meta
	if err := yaml.UnmarshalStrict(b, &m); err != nil {
		return nil, errors.Wrapf(err, "lid: %s", path)
	}
	if m.FeatureDim <= 0 {
		return nil, errors.Errorf("lid: %s: feature_dim must be positive", path)
	}
	return &m, nil
}

// ShardPaths resolves the shard names of m relative to dir.
func (m *Meta) ShardPaths(dir string) []string {
	var out = make([]string, len(m.Shards))
	for i, s := range m.Shards {
		out[i] = filepath.Join(dir, s)
	}
	return out
}

// Vocabulary builds the label vocabulary recorded in m.
func (m *Meta) Vocabulary() (*Vocabulary, error) {
	return NewVocabulary(m.Labels)
}
