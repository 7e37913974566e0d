package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/neurlang/lidbox/features"
)

const minimal = `
experiment: test
datasets:
  training: data/train
  validation: data/dev
`

func TestParse(t *testing.T) {
	Convey("A minimal experiment", t, func() {
		c, err := Parse([]byte(minimal))
		So(err, ShouldBeNil)

		Convey("gets defaults", func() {
			So(c.CacheDir, ShouldEqual, "lidbox-cache")
			So(c.Audio.SampleRate, ShouldEqual, 16000)
			So(c.Features.Type, ShouldEqual, features.TypeLogMelSpectrogram)
			So(c.Features.Spectrogram.FFTLength, ShouldEqual, 512)
			So(c.Model.Name, ShouldEqual, "test")
			So(c.Model.Backend, ShouldEqual, BackendDense)
			So(c.Model.Hidden, ShouldResemble, []int{256, 256})
			So(c.Model.EarlyStopping, ShouldBeNil)
		})

		Convey("resolves paths and splits", func() {
			So(c.CheckpointDir(), ShouldEqual, filepath.Join("lidbox-cache", "test", "checkpoints"))
			So(c.FeatureDir(Validation), ShouldEqual, filepath.Join("lidbox-cache", "features", "validation"))
			So(c.Datasets.Splits(), ShouldResemble, []string{Training, Validation})
			_, err := c.Datasets.Dir(Test)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("A full experiment", t, func() {
		path := filepath.Join(t.TempDir(), "exp.yaml")
		So(os.WriteFile(path, []byte(minimal+`
audio:
  sample_rate: 8000
  chunk_seconds: 3
  max_pad_seconds: 0.5
  augment:
    - type: random_resampling
      range: [0.9, 1.1]
    - type: additive_noise
      noise_dir: data/noise
      splits: [training, validation]
      snr_def:
        - {type: babble, db_min: 5, db_max: 15}
features:
  type: mfcc
  melspectrogram:
    num_mel_bins: 64
  window_norm:
    normalize_variance: true
model:
  backend: hashtron
  early_stopping:
    min_delta: 0.01
  hashtron:
    planes: 24
`), 0o644), ShouldBeNil)
		c, err := Load(path)
		So(err, ShouldBeNil)
		So(c.Audio.Augment[0].Splits, ShouldResemble, []string{Training})
		So(c.Audio.Augment[1].Applies(Validation), ShouldBeTrue)
		So(c.Audio.Augment[1].SNR[0].DBMax, ShouldEqual, 15.0)
		So(c.Features.MelSpec.NumMelBins, ShouldEqual, 64)
		So(c.Features.WindowNorm.WindowLength, ShouldEqual, 300)
		So(c.Model.EarlyStopping.Patience, ShouldEqual, 3)
		So(c.Model.Hashtron.Planes, ShouldEqual, 24)
		So(c.Model.Hidden, ShouldBeNil)
	})

	Convey("Invalid experiments are rejected", t, func() {
		for _, bad := range []string{
			"datasets: {training: x}",
			minimal + "unknown_key: 1\n",
			minimal + "model: {backend: svm}\n",
			minimal + "features: {type: chroma}\n",
			minimal + "features: {extractor: nope}\n",
			minimal + "audio: {chunk_seconds: 1, max_pad_seconds: 2}\n",
			minimal + "audio: {augment: [{type: random_resampling, range: [1.2, 1.1]}]}\n",
			minimal + "audio: {augment: [{type: additive_noise}]}\n",
			minimal + "model: {hashtron: {planes: 40}}\n",
		} {
			_, err := Parse([]byte(bad))
			So(err, ShouldNotBeNil)
		}
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		So(strings.Contains(err.Error(), "missing.yaml"), ShouldBeTrue)
	})
}
