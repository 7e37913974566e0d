package stream

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"
)

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPipeline(t *testing.T) {
	ctx := context.Background()

	Convey("A pipeline over 0..9", t, func() {
		Convey("collects everything", func() {
			got, err := Collect(ctx, FromSlice(ints(10)))
			So(err, ShouldBeNil)
			So(got, ShouldResemble, ints(10))
		})

		Convey("maps in order with many workers", func() {
			var running, peak atomic.Int32
			s := Map(FromSlice(ints(10)), 4, func(ctx context.Context, x int) (string, error) {
				if n := running.Add(1); n > peak.Load() {
					peak.Store(n)
				}
				time.Sleep(time.Duration(10-x) * time.Millisecond)
				running.Add(-1)
				return strconv.Itoa(x * x), nil
			})
			got, err := Collect(ctx, s)
			So(err, ShouldBeNil)
			want := []string{"0", "1", "4", "9", "16", "25", "36", "49", "64", "81"}
			So(cmp.Diff(want, got), ShouldBeEmpty)
			So(peak.Load(), ShouldBeLessThanOrEqualTo, 4)
		})

		Convey("filters, batches and takes", func() {
			even := Filter(FromSlice(ints(10)), func(x int) bool { return x%2 == 0 })
			got, err := Collect(ctx, Batch(even, 2, false))
			So(err, ShouldBeNil)
			So(got, ShouldResemble, [][]int{{0, 2}, {4, 6}, {8}})

			got, err = Collect(ctx, Batch(FromSlice(ints(5)), 2, true))
			So(err, ShouldBeNil)
			So(got, ShouldResemble, [][]int{{0, 1}, {2, 3}})

			few, err := Collect(ctx, Take(FromSlice(ints(10)), 3))
			So(err, ShouldBeNil)
			So(few, ShouldResemble, []int{0, 1, 2})
		})

		Convey("reduces", func() {
			sum, err := Reduce(ctx, FromSlice(ints(10)), 0, func(acc, x int) (int, error) { return acc + x, nil })
			So(err, ShouldBeNil)
			So(sum, ShouldEqual, 45)
		})

		Convey("stops at the first error", func() {
			boom := errors.New("boom")
			for _, workers := range []int{1, 3} {
				var seen []int
				s := Map(FromSlice(ints(10)), workers, func(ctx context.Context, x int) (int, error) {
					if x == 4 {
						return 0, boom
					}
					return x, nil
				})
				err := ForEach(ctx, s, func(x int) error {
					seen = append(seen, x)
					return nil
				})
				So(err, ShouldEqual, boom)
				So(len(seen), ShouldBeLessThan, 5)
				_, again := s(ctx)
				So(again, ShouldEqual, boom)
			}
		})

		Convey("honours cancellation", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := Collect(cctx, FromSlice(ints(10)))
			So(err, ShouldEqual, context.Canceled)
			_, err = FromSlice(ints(1))(cctx)
			So(err, ShouldEqual, context.Canceled)
		})

		Convey("ends with io.EOF", func() {
			s := FromSlice([]int{7})
			x, err := s(ctx)
			So(x, ShouldEqual, 7)
			So(err, ShouldBeNil)
			_, err = s(ctx)
			So(err, ShouldEqual, io.EOF)
		})
	})
}
