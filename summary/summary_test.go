package summary

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWriter(t *testing.T) {
	Convey("A summary writer", t, func() {
		root := t.TempDir()
		w, err := NewRun(root)
		So(err, ShouldBeNil)
		w.now = func() time.Time { return time.Unix(100, 0) }

		Convey("lives in a timestamped run directory", func() {
			So(filepath.Dir(w.Dir()), ShouldEqual, root)
			So(regexp.MustCompile(`^\d{4}-\d\d-\d\d_\d\d:\d\d:\d\d-[0-9a-f]{8}$`).MatchString(filepath.Base(w.Dir())), ShouldBeTrue)
		})

		Convey("logs scalars readable back", func() {
			So(w.Scalars(1, map[string]float64{"loss": 0.5, "accuracy": 0.75}), ShouldBeNil)
			So(w.Scalar(2, "loss", 0.25), ShouldBeNil)
			So(w.Close(), ShouldBeNil)

			got, err := ReadScalars(w.Dir())
			So(err, ShouldBeNil)
			want := []Point{
				{Step: 1, Tag: "accuracy", Value: 0.75, WallTime: 100},
				{Step: 1, Tag: "loss", Value: 0.5, WallTime: 100},
				{Step: 2, Tag: "loss", Value: 0.25, WallTime: 100},
			}
			So(cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-6)), ShouldBeEmpty)

			raw, _ := os.ReadFile(filepath.Join(w.Dir(), ScalarsFile))
			So(string(raw), ShouldStartWith, "1\taccuracy\t0.75\t100.000\n")
		})

		Convey("rejects tags with separators", func() {
			So(w.Scalar(1, "a\tb", 1), ShouldNotBeNil)
		})
	})
}
