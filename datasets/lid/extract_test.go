package lid

import (
	"context"
	"math"
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/neurlang/lidbox/audio"
	"github.com/neurlang/lidbox/datasets/stream"
	"github.com/neurlang/lidbox/features"
)

func writeTone(dir, name string, freq, seconds float64) string {
	const rate = 16000
	samples := make([]float64, int(seconds*rate))
	for i := range samples {
		samples[i] = 0.3 * math.Sin(2*math.Pi*freq*float64(i)/rate)
	}
	path := filepath.Join(dir, name)
	So(audio.Save(path, audio.Signal{Samples: samples, Rate: rate}), ShouldBeNil)
	return path
}

func TestExtract(t *testing.T) {
	ctx := context.Background()

	Convey("Extracting a manifest", t, func() {
		dir := t.TempDir()
		utts := []Utterance{
			{ID: "a", Path: writeTone(dir, "a.wav", 300, 1), Label: "en"},
			{ID: "b", Path: writeTone(dir, "b.wav", 900, 1), Label: "fi"},
			{ID: "c", Path: writeTone(dir, "c.wav", 500, 1), Label: "xx"},
			{ID: "d", Path: writeTone(dir, "d.wav", 500, 0.2), Label: "en"},
		}
		vocab, err := NewVocabulary([]string{"en", "fi"})
		So(err, ShouldBeNil)
		opts := ExtractOptions{
			SampleRate: 16000, ChunkSeconds: 0.5,
			Augment:   []Augmentation{SpeedAugmentation{Min: 0.9, Max: 0.95}},
			Copies:    1,
			Features:  features.Config{Type: features.TypeMFCC},
			BatchSize: 5, ShardSize: 3, Workers: 2,
		}
		out := filepath.Join(dir, "features")
		var progress int

		meta, err := Extract(ctx, out, utts, vocab, opts, func() { progress++ })
		So(err, ShouldBeNil)
		So(progress, ShouldEqual, 4)

		Convey("writes shards described by meta", func() {
			So(meta.NumExamples, ShouldEqual, 8)
			So(meta.FeatureDim, ShouldEqual, 12)
			So(meta.Shards, ShouldResemble, []string{"shard-00000.msgpack.zst", "shard-00001.msgpack.zst", "shard-00002.msgpack.zst"})
			So(meta.Features.Spectrogram.FFTLength, ShouldEqual, 512)

			back, err := ReadMeta(out)
			So(err, ShouldBeNil)
			exs, err := stream.Collect(ctx, ReadShards(back.ShardPaths(out)))
			So(err, ShouldBeNil)
			So(len(exs), ShouldEqual, 8)
			So(exs[0].ID, ShouldEqual, "a-000")
			So(exs[0].Label, ShouldEqual, 0)
			So(exs[7].Label, ShouldEqual, 1)
			So(strings.HasPrefix(exs[2].ID, "a-speed0.9"), ShouldBeTrue)

			sizes, err := CountDimSizes(ctx, stream.FromSlice(exs), 0, 2)
			So(err, ShouldBeNil)
			So(sizes[1], ShouldResemble, []DimSize{{Count: 8, Size: 12}})
		})

		Convey("is deterministic", func() {
			again, err := Extract(ctx, filepath.Join(dir, "again"), utts, vocab, opts, nil)
			So(err, ShouldBeNil)
			a, _ := stream.Collect(ctx, ReadShards(meta.ShardPaths(out)))
			b, _ := stream.Collect(ctx, ReadShards(again.ShardPaths(filepath.Join(dir, "again"))))
			for i := range a {
				So(b[i].ID, ShouldEqual, a[i].ID)
			}
		})

		Convey("supports named extractors", func() {
			opts.Extractor = "mfcc"
			opts.Augment = nil
			meta, err := Extract(ctx, filepath.Join(dir, "named"), utts[:2], vocab, opts, nil)
			So(err, ShouldBeNil)
			So(meta.FeatureType, ShouldEqual, "mfcc")
			So(meta.FeatureDim, ShouldEqual, 20)
			So(meta.Features, ShouldBeNil)
		})

		Convey("fails without usable utterances", func() {
			_, err := Extract(ctx, filepath.Join(dir, "none"), utts[3:], vocab, opts, nil)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("A short utterance is too short", t, func() {
		dir := t.TempDir()
		u := Utterance{ID: "d", Path: writeTone(dir, "d.wav", 500, 0.2), Label: "en"}
		_, _, err := LoadChunks(u, &ExtractOptions{SampleRate: 16000, ChunkSeconds: 0.5})
		So(errors.Cause(err), ShouldEqual, audio.ErrTooShort)
	})
}

func TestNoiseAugmentation(t *testing.T) {
	Convey("Noise augmentation", t, func() {
		dir := t.TempDir()
		noiseDir := filepath.Join(dir, "noise")
		So(WriteManifest(noiseDir, []Utterance{
			{ID: "n1", Path: writeTone(dir, "n1.wav", 3000, 0.3), Label: "babble"},
			{ID: "n2", Path: writeTone(dir, "n2.wav", 5000, 0.3), Label: "music"},
		}), ShouldBeNil)
		noise, err := NewNoiseAugmentation(noiseDir, 16000, []SNRRange{
			{Type: "babble", DBMin: 0.5, DBMax: 2.5},
			{Type: "music", DBMin: 10, DBMax: 10},
		})
		So(err, ShouldBeNil)
		mixes := noise.Mixes()
		So(len(mixes), ShouldEqual, 2)

		clean := audio.Signal{Samples: make([]float64, 4000), Rate: 16000}
		for i := range clean.Samples {
			clean.Samples[i] = 0.3 * math.Sin(float64(i)/10)
		}
		rng := rand.New(rand.NewSource(3))

		Convey("draws whole decibel SNRs named in the id", func() {
			for i := 0; i < 20; i++ {
				id, out, err := mixes[0].Augment(rng, "u", clean)
				So(err, ShouldBeNil)
				So(strings.HasPrefix(id, "u-babble_snr"), ShouldBeTrue)
				snr, err := strconv.Atoi(strings.TrimPrefix(id, "u-babble_snr"))
				So(err, ShouldBeNil)
				So(snr, ShouldBeIn, []int{1, 2})
				So(len(out.Samples), ShouldEqual, len(clean.Samples))
			}
			id, _, err := mixes[1].Augment(rng, "u", clean)
			So(err, ShouldBeNil)
			So(id, ShouldEqual, "u-music_snr10")
		})

		Convey("mixes every range into each utterance", func() {
			u := Utterance{ID: "a", Path: writeTone(dir, "a.wav", 300, 0.5), Label: "en"}
			ids, _, err := LoadChunks(u, &ExtractOptions{SampleRate: 16000, ChunkSeconds: 0.5, Augment: mixes, Copies: 1})
			So(err, ShouldBeNil)
			So(len(ids), ShouldEqual, 3)
			So(ids[0], ShouldEqual, "a-000")
			So(strings.HasPrefix(ids[1], "a-babble_snr"), ShouldBeTrue)
			So(ids[2], ShouldEqual, "a-music_snr10-000")
		})
	})
}
