package geocode

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Batch geocodes addresses in parallel with bounded concurrency. Individual
// failures and misses yield a nil entry at that index rather than failing
// the batch.
func Batch(ctx context.Context, g Geocoder, addresses []string, concurrency int) []*Result {
	if len(addresses) == 0 {
		return nil
	}
	if concurrency < 1 {
		concurrency = 10
	}

	results := make([]*Result, len(addresses))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)

	for i, addr := range addresses {
		eg.Go(func() error {
			r, err := g.Geocode(gCtx, addr)
			if err != nil {
				zap.L().Debug("batch geocode: lookup failed",
					zap.String("address", addr),
					zap.Error(err),
				)
				return nil //nolint:nilerr // individual failures don't fail the batch
			}
			results[i] = r
			return nil
		})
	}

	_ = eg.Wait()
	return results
}
