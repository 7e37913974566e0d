package metrics

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestConfusion(t *testing.T) {
	Convey("A confusion matrix", t, func() {
		labels := []string{"en", "fi", "sv"}
		truth := []int{0, 0, 0, 1, 1, 2}
		pred := []int{0, 0, 1, 1, 1, 0}
		c, err := ConfusionMatrix(labels, truth, pred)
		So(err, ShouldBeNil)

		Convey("counts true rows by predicted columns", func() {
			So(c.Counts, ShouldResemble, [][]int{{2, 1, 0}, {0, 2, 0}, {1, 0, 0}})
			So(c.Total(), ShouldEqual, 6)
		})

		Convey("computes accuracy, recall and precision", func() {
			So(c.Accuracy(), ShouldAlmostEqual, 4.0/6.0)
			So(c.Recall(0), ShouldAlmostEqual, 2.0/3.0)
			So(c.Recall(2), ShouldEqual, 0.0)
			So(c.Precision(1), ShouldAlmostEqual, 2.0/3.0)
			So(c.Precision(2), ShouldEqual, 0.0)
		})

		Convey("renders a table", func() {
			s := c.String()
			So(s, ShouldContainSubstring, "recall")
			So(s, ShouldContainSubstring, "precision")
			So(strings.Count(s, "\n"), ShouldEqual, 5)
		})

		Convey("renders a heat map", func() {
			var buf bytes.Buffer
			So(c.WritePNG(&buf), ShouldBeNil)
			img, err := png.Decode(&buf)
			So(err, ShouldBeNil)
			So(img.Bounds().Dx(), ShouldEqual, 3*CellSize)
			r, _, _, _ := img.At(CellSize*2+1, CellSize*2+1).RGBA()
			So(r>>8, ShouldEqual, uint32(255))
			r, _, _, _ = img.At(1, CellSize*2+1).RGBA()
			So(r>>8, ShouldEqual, uint32(8))
		})

		Convey("rejects mismatched input", func() {
			_, err := ConfusionMatrix(labels, truth, pred[:2])
			So(err, ShouldNotBeNil)
			So(c.Add(3, 0), ShouldNotBeNil)
		})
	})

	Convey("An empty matrix has zero accuracy", t, func() {
		So(NewConfusion([]string{"a"}).Accuracy(), ShouldEqual, 0.0)
	})
}
