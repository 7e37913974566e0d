package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func sine(freq float64, rate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return out
}

func TestSaveLoad(t *testing.T) {
	Convey("A saved signal", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "tone.wav")
		sig := Signal{Samples: sine(440, 16000, 1600), Rate: 16000}
		So(Save(path, sig), ShouldBeNil)

		Convey("loads back with the same rate and samples", func() {
			back, err := Load(path)
			So(err, ShouldBeNil)
			So(back.Rate, ShouldEqual, 16000)
			So(len(back.Samples), ShouldEqual, 1600)
			for i := 0; i < 1600; i += 97 {
				So(back.Samples[i], ShouldAlmostEqual, sig.Samples[i], 1e-3)
			}
			So(back.Duration(), ShouldAlmostEqual, 0.1, 1e-9)
		})

		Convey("keeps full scale amplitudes", func() {
			loud := filepath.Join(dir, "loud.wav")
			So(Save(loud, Signal{Samples: []float64{0.8, -0.8, 0.4, 1}, Rate: 8000}), ShouldBeNil)
			back, err := Load(loud)
			So(err, ShouldBeNil)
			So(len(back.Samples), ShouldEqual, 4)
			for i, want := range []float64{0.8, -0.8, 0.4, 1} {
				So(back.Samples[i], ShouldAlmostEqual, want, 1e-3)
			}
			So(pcmScale(2), ShouldAlmostEqual, 65535.0/32768, 1e-12)
			So(pcmScale(1), ShouldEqual, 1.0)
		})

		Convey("an unknown extension is rejected", func() {
			other := filepath.Join(dir, "tone.mp3")
			So(os.WriteFile(other, []byte("xx"), 0o644), ShouldBeNil)
			_, err := Load(other)
			So(errors.Cause(err), ShouldEqual, ErrUnsupportedFormat)
		})

		Convey("a missing file is an error", func() {
			_, err := Load(filepath.Join(dir, "missing.wav"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestResample(t *testing.T) {
	Convey("Resampling", t, func() {
		sig := Signal{Samples: sine(200, 16000, 16000), Rate: 16000}

		Convey("to the same rate is a no-op", func() {
			out, err := Resample(sig, 16000)
			So(err, ShouldBeNil)
			So(len(out.Samples), ShouldEqual, 16000)
		})
		Convey("to half the rate halves the length", func() {
			out, err := Resample(sig, 8000)
			So(err, ShouldBeNil)
			So(out.Rate, ShouldEqual, 8000)
			So(len(out.Samples), ShouldBeBetweenOrEqual, 7990, 8010)
		})
		Convey("to a non-positive rate fails", func() {
			_, err := Resample(sig, 0)
			So(err, ShouldNotBeNil)
		})
		Convey("speed perturbation keeps the rate", func() {
			out, err := SpeedPerturb(sig, 1.25)
			So(err, ShouldBeNil)
			So(out.Rate, ShouldEqual, 16000)
			So(len(out.Samples), ShouldBeBetweenOrEqual, 12790, 12810)
			_, err = SpeedPerturb(sig, 0)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestChunk(t *testing.T) {
	Convey("Chunking a 2.5 second signal at 10 Hz", t, func() {
		sig := Signal{Samples: make([]float64, 25), Rate: 10}
		for i := range sig.Samples {
			sig.Samples[i] = float64(i + 1)
		}

		Convey("with enough padding keeps the padded tail", func() {
			chunks := Chunk(sig, 1, 0.5)
			So(len(chunks), ShouldEqual, 3)
			So(chunks[2][4], ShouldEqual, 25.0)
			So(chunks[2][5], ShouldEqual, 0.0)
		})
		Convey("without padding drops the tail", func() {
			So(len(Chunk(sig, 1, 0.4)), ShouldEqual, 2)
		})
		Convey("a too short signal yields nothing", func() {
			So(Chunk(sig, 3, 0.4), ShouldBeEmpty)
			So(len(Chunk(sig, 3, 0.5)), ShouldEqual, 1)
		})
	})
}

func TestMixSNR(t *testing.T) {
	Convey("Mixing noise at 10 dB", t, func() {
		clean := sine(300, 8000, 8000)
		noise := sine(1234, 8000, 1000)
		mixed, err := MixSNR(clean, noise, 10, 250)
		So(err, ShouldBeNil)
		So(len(mixed), ShouldEqual, len(clean))

		residual := make([]float64, len(mixed))
		for i := range mixed {
			residual[i] = mixed[i] - clean[i]
		}
		snr := 10 * math.Log10(power(clean)/power(residual))
		So(snr, ShouldAlmostEqual, 10, 1e-6)

		Convey("empty noise is an error", func() {
			_, err := MixSNR(clean, nil, 10, 0)
			So(err, ShouldNotBeNil)
		})
	})
}
