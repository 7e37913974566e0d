package model

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/mat"

	"github.com/neurlang/lidbox/config"
	"github.com/neurlang/lidbox/datasets/lid"
)

const dim = 3

var meta = &lid.Meta{FeatureDim: dim, Labels: []string{"en", "fi", "sv"}}

// synthetic makes n examples per class; class c oscillates around 2 along dimension c.
func synthetic(n int) (out []lid.Example) {
	for i := 0; i < n; i++ {
		for c := 0; c < dim; c++ {
			x := mat.NewDense(6, dim, nil)
			for k := 0; k < 6; k++ {
				x.Set(k, c, 2+float64(1-2*(k%2)))
			}
			out = append(out, lid.Example{ID: string(rune('a'+c)) + string(rune('0'+i)), Label: c, Features: x})
		}
	}
	return
}

func TestDenseModel(t *testing.T) {
	ctx := context.Background()

	Convey("A dense model", t, func() {
		dir := t.TempDir()
		opts := Options{
			Backend: config.BackendDense, Hidden: []int{8}, Epochs: 30, BatchSize: 4,
			LearningRate: 0.05, Seed: 3, CheckpointDir: dir, SaveBestOnly: true,
		}
		m, err := New("test", opts)
		So(err, ShouldBeNil)

		Convey("must be prepared first", func() {
			_, _, err := m.Evaluate(ctx, synthetic(1))
			So(errors.Cause(err), ShouldEqual, ErrNotPrepared)
		})

		So(m.Prepare(meta), ShouldBeNil)
		So(m.Ext(), ShouldEqual, "dense")
		set := synthetic(4)

		Convey("learns the synthetic languages", func() {
			history, err := m.Fit(ctx, set, set)
			So(err, ShouldBeNil)
			So(len(history), ShouldEqual, 30)
			loss, acc, err := m.Evaluate(ctx, set)
			So(err, ShouldBeNil)
			So(acc, ShouldEqual, 1.0)
			So(loss, ShouldBeLessThan, history[0].ValLoss)

			c, err := m.EvaluateConfusionMatrix(ctx, set)
			So(err, ShouldBeNil)
			So(c.Counts, ShouldResemble, [][]int{{4, 0, 0}, {0, 4, 0}, {0, 0, 4}})

			probs, err := m.Predict(ctx, set[:1])
			So(err, ShouldBeNil)
			So(Argmax(probs[0]), ShouldEqual, 0)

			Convey("and its best checkpoint reloads", func() {
				best, err := BestCheckpoint(dir)
				So(err, ShouldBeNil)
				want, err := LossFromCheckpointName(best)
				So(err, ShouldBeNil)

				other, _ := New("test", opts)
				So(other.Prepare(meta), ShouldBeNil)
				So(other.LoadWeights(best), ShouldBeNil)
				got, _, err := other.Evaluate(ctx, set)
				So(err, ShouldBeNil)
				So(math.Abs(got-want), ShouldBeLessThanOrEqualTo, 0.006)
			})
		})

		Convey("cannot be exported", func() {
			So(m.Export(&bytes.Buffer{}, "lang"), ShouldNotBeNil)
		})

		Convey("rejects bad examples", func() {
			bad := lid.Example{ID: "x", Features: mat.NewDense(2, dim+1, nil)}
			_, err := m.Predict(ctx, []lid.Example{bad})
			So(err, ShouldNotBeNil)
			unknown := synthetic(1)[0]
			unknown.Label = 3
			_, err = m.Fit(ctx, []lid.Example{unknown}, nil)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Unknown backends are rejected", t, func() {
		_, err := New("x", Options{Backend: "svm"})
		So(err, ShouldNotBeNil)
	})

	Convey("A directory without checkpoints", t, func() {
		_, err := BestCheckpoint(t.TempDir())
		So(errors.Cause(err), ShouldEqual, ErrNoCheckpoints)
	})
}

func TestHashtronModel(t *testing.T) {
	ctx := context.Background()

	Convey("A hashtron model", t, func() {
		opts := Options{
			Backend: config.BackendHashtron, Epochs: 2, Seed: 5, EvalThreads: 2,
			Hashtron: config.Hashtron{Planes: 16, Premodulo: 1 << 16, MaxFeatures: 4096, Rounds: 3},
		}
		m, err := New("test", opts)
		So(err, ShouldBeNil)
		So(m.Prepare(meta), ShouldBeNil)
		set := synthetic(4)

		Convey("starts out uniform", func() {
			probs, err := m.Predict(ctx, set[:1])
			So(err, ShouldBeNil)
			So(probs[0], ShouldResemble, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3})
		})

		Convey("learns the synthetic languages", func() {
			_, err := m.Fit(ctx, set, nil)
			So(err, ShouldBeNil)
			_, acc, err := m.Evaluate(ctx, set)
			So(err, ShouldBeNil)
			So(acc, ShouldEqual, 1.0)

			Convey("caches frame codes of the training set only", func() {
				h := m.impl.(*hashtronBackend)
				So(h.cached(), ShouldEqual, len(set))
				for i := 0; i < 3; i++ {
					_, err := m.Predict(ctx, synthetic(2))
					So(err, ShouldBeNil)
				}
				So(h.cached(), ShouldEqual, len(set))
			})

			Convey("saves and reloads", func() {
				path := t.TempDir() + "/w.hashtron"
				So(m.SaveWeights(path), ShouldBeNil)
				other, _ := New("test", opts)
				So(other.Prepare(meta), ShouldBeNil)
				So(other.LoadWeights(path), ShouldBeNil)
				_, acc, _ := other.Evaluate(ctx, set)
				So(acc, ShouldEqual, 1.0)
			})

			Convey("exports Go source", func() {
				var buf bytes.Buffer
				So(m.Export(&buf, "lang"), ShouldBeNil)
				src := buf.String()
				So(src, ShouldStartWith, "package lang\n")
				So(src, ShouldContainSubstring, "var programL2 = [][2]uint32{")
				So(src, ShouldContainSubstring, "// sv\n")
			})
		})
	})
}
