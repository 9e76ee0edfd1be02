package dataprocessing

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"sharkclean/pkg/contracts/domain"
)

// minChunk keeps tiny inputs on a single goroutine
const minChunk = 256

// ClassifyBatch classifies values in parallel chunks. The result has the same
// length and order as values. The only error is cancellation of ctx.
func (c *TimeClassifier) ClassifyBatch(ctx context.Context, values []domain.Value, workers int) ([]domain.TimeCategory, error) {
	out := make([]domain.TimeCategory, len(values))
	if len(values) == 0 {
		return out, ctx.Err()
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	chunk := (len(values) + workers - 1) / workers
	if chunk < minChunk {
		chunk = minChunk
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(values); start += chunk {
		start, end := start, start+chunk
		if end > len(values) {
			end = len(values)
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				out[i] = c.Classify(values[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ClassifyBatch classifies values with the shared default classifier
func ClassifyBatch(ctx context.Context, values []domain.Value, workers int) ([]domain.TimeCategory, error) {
	return defaultTimeClassifier.ClassifyBatch(ctx, values, workers)
}

// CountCategories tallies categories by code
func CountCategories(categories []domain.TimeCategory) map[string]int {
	counts := make(map[string]int, len(domain.AllTimeCategories))
	for _, c := range domain.AllTimeCategories {
		counts[c.Code()] = 0
	}
	for _, c := range categories {
		counts[c.Code()]++
	}
	return counts
}
