package geocode

import (
	"context"

	"go.uber.org/zap"
)

// Chain tries a cascade of providers in priority order. The first provider
// that produces a match wins; provider errors and clean misses both fall
// through to the next provider. When no provider matches, the last error
// seen (if any) is returned.
type Chain struct {
	providers []Geocoder
}

// NewChain creates a Chain over the given providers, highest priority first.
func NewChain(providers ...Geocoder) *Chain {
	return &Chain{providers: providers}
}

// Name implements Geocoder.
func (*Chain) Name() string { return "chain" }

// Available implements Geocoder. The chain is available when any provider is.
func (c *Chain) Available() bool {
	for _, p := range c.providers {
		if p.Available() {
			return true
		}
	}
	return false
}

// Geocode implements Geocoder.
func (c *Chain) Geocode(ctx context.Context, address string) (*Result, error) {
	var lastErr error
	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		result, err := p.Geocode(ctx, address)
		if err != nil {
			zap.L().Warn("chain provider failed, trying next",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		if result != nil {
			return result, nil
		}
	}
	return nil, lastErr
}

// ReverseGeocode implements Geocoder.
func (c *Chain) ReverseGeocode(ctx context.Context, lat, lon float64) (*ReverseResult, error) {
	var lastErr error
	for _, p := range c.providers {
		if !p.Available() {
			continue
		}
		result, err := p.ReverseGeocode(ctx, lat, lon)
		if err != nil {
			zap.L().Warn("chain provider failed, trying next",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		if result != nil {
			return result, nil
		}
	}
	return nil, lastErr
}
