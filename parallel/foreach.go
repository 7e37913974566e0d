package parallel

import "context"
import "sync"

import "golang.org/x/sync/errgroup"

// ForEach executes a for loop with a limited number of concurrent goroutines.
// Each goroutine processes one integer, from 0 to length.
func ForEach(length, limit int, body func(i int)) {
	if limit <= 0 {
		limit = 1
	}
	if length <= 0 {
		return
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	wg.Add(length)

	for i := 0; i < length; i++ {
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			body(i)
		}(i)
	}

	wg.Wait()
}

// ForEachErr is ForEach for bodies which can fail. The first error cancels the
// context passed to the remaining bodies and is returned. Bodies not yet
// started when the context is done are skipped.
func ForEachErr(ctx context.Context, length, limit int, body func(ctx context.Context, i int) error) error {
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < length; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return body(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// gctx is always cancelled once Wait returns
	return ctx.Err()
}
