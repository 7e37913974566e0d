// Package stream implements a lazy, pull based dataset pipeline. A Stream
// yields one element per call and io.EOF after the last one. Transformations
// only run when a consumer pulls.
package stream

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"
)

// Stream yields the next element, or io.EOF when exhausted.
type Stream[T any] func(ctx context.Context) (T, error)

// FromSlice streams the elements of xs.
func FromSlice[T any](xs []T) Stream[T] {
	var i int
	return func(ctx context.Context) (x T, err error) {
		if err = ctx.Err(); err != nil {
			return
		}
		if i >= len(xs) {
			return x, io.EOF
		}
		i++
		return xs[i-1], nil
	}
}

// latch makes a stream keep returning its first error.
func latch[T any](s Stream[T]) Stream[T] {
	var failed error
	return func(ctx context.Context) (x T, err error) {
		if failed != nil {
			return x, failed
		}
		x, err = s(ctx)
		if err != nil {
			failed = err
		}
		return
	}
}

// Map applies fn to every element. With workers above one, up to workers
// elements are mapped concurrently; the output order always matches the input.
func Map[T, U any](s Stream[T], workers int, fn func(context.Context, T) (U, error)) Stream[U] {
	if workers <= 1 {
		return latch(func(ctx context.Context) (u U, err error) {
			x, err := s(ctx)
			if err != nil {
				return u, err
			}
			return fn(ctx, x)
		})
	}
	var (
		buf  []U
		pos  int
		done bool
	)
	return latch(func(ctx context.Context) (u U, err error) {
		if pos < len(buf) {
			pos++
			return buf[pos-1], nil
		}
		if done {
			return u, io.EOF
		}
		var in = make([]T, 0, workers)
		for len(in) < workers {
			x, err := s(ctx)
			if err == io.EOF {
				done = true
				break
			}
			if err != nil {
				return u, err
			}
			in = append(in, x)
		}
		if len(in) == 0 {
			return u, io.EOF
		}
		buf, pos = make([]U, len(in)), 0
		g, gctx := errgroup.WithContext(ctx)
		for i := range in {
			i := i
			g.Go(func() (err error) {
				buf[i], err = fn(gctx, in[i])
				return
			})
		}
		if err = g.Wait(); err != nil {
			return u, err
		}
		pos++
		return buf[0], nil
	})
}

// Filter keeps the elements for which keep reports true.
func Filter[T any](s Stream[T], keep func(T) bool) Stream[T] {
	return func(ctx context.Context) (x T, err error) {
		for {
			if x, err = s(ctx); err != nil || keep(x) {
				return
			}
		}
	}
}

// Batch groups consecutive elements into slices of n. The last short batch
// is dropped when dropRemainder is set.
func Batch[T any](s Stream[T], n int, dropRemainder bool) Stream[[]T] {
	if n < 1 {
		n = 1
	}
	return func(ctx context.Context) ([]T, error) {
		var batch = make([]T, 0, n)
		for len(batch) < n {
			x, err := s(ctx)
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			batch = append(batch, x)
		}
		if len(batch) == 0 || (dropRemainder && len(batch) < n) {
			return nil, io.EOF
		}
		return batch, nil
	}
}

// Take yields at most n elements.
func Take[T any](s Stream[T], n int) Stream[T] {
	var taken int
	return func(ctx context.Context) (x T, err error) {
		if taken >= n {
			return x, io.EOF
		}
		taken++
		return s(ctx)
	}
}

// Reduce folds the stream into an accumulator starting from init.
func Reduce[T, A any](ctx context.Context, s Stream[T], init A, fn func(A, T) (A, error)) (A, error) {
	var acc = init
	err := ForEach(ctx, s, func(x T) (err error) {
		acc, err = fn(acc, x)
		return
	})
	return acc, err
}

// Collect reads every element into a slice.
func Collect[T any](ctx context.Context, s Stream[T]) ([]T, error) {
	return Reduce(ctx, s, []T(nil), func(acc []T, x T) ([]T, error) {
		return append(acc, x), nil
	})
}

// ForEach calls fn for every element. It stops at the first error, which is returned.
func ForEach[T any](ctx context.Context, s Stream[T], fn func(T) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		x, err := s(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(x); err != nil {
			return err
		}
	}
}
