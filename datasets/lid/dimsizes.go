package lid

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/neurlang/lidbox/datasets/stream"
)

// Shaped is a dataset element made of components with shapes.
type Shaped interface {
	Shapes() [][]int
}

// DimSize is one histogram bucket: Count elements had Size along a dimension.
type DimSize struct {
	Count int
	Size  int
}

// CountDimSizes reads every element of ds and histograms the sizes of each
// of the ndims dimensions of component index. Per dimension, the non-empty
// buckets are returned by descending count, equal counts by ascending size.
func CountDimSizes[E Shaped](ctx context.Context, ds stream.Stream[E], index, ndims int) ([][]DimSize, error) {
	if ndims <= 0 {
		return nil, errors.Errorf("lid: ndims must be positive, got %d", ndims)
	}
	var counts = make([]map[int]int, ndims)
	for d := range counts {
		counts[d] = make(map[int]int)
	}
	var n int
	err := stream.ForEach(ctx, ds, func(e E) error {
		shapes := e.Shapes()
		if index < 0 || index >= len(shapes) {
			return errors.Errorf("lid: element %d has no component %d", n, index)
		}
		if len(shapes[index]) != ndims {
			return errors.Errorf("lid: element %d component %d has rank %d, want %d", n, index, len(shapes[index]), ndims)
		}
		for d, size := range shapes[index] {
			counts[d][size]++
		}
		n++
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out = make([][]DimSize, ndims)
	for d, hist := range counts {
		for size, count := range hist {
			out[d] = append(out[d], DimSize{Count: count, Size: size})
		}
		sort.Slice(out[d], func(i, j int) bool {
			a, b := out[d][i], out[d][j]
			if a.Count != b.Count {
				return a.Count > b.Count
			}
			return a.Size < b.Size
		})
	}
	return out, nil
}
