package geocode

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/caribdata/tt-addresses/internal/cache"
)

// Cached wraps a Geocoder with an in-memory TTL cache. Both matches and
// non-matches are cached so repeated lookups for unknown addresses skip the
// upstream provider.
type Cached struct {
	inner Geocoder
	cache *cache.TTLCache
}

// cachedResult distinguishes a cached miss from an absent cache entry.
type cachedResult struct {
	result *Result
}

type cachedReverse struct {
	result *ReverseResult
}

// NewCached wraps a Geocoder with a result cache using the given TTL.
func NewCached(inner Geocoder, ttl time.Duration) *Cached {
	return &Cached{
		inner: inner,
		cache: cache.New(ttl),
	}
}

// Name implements Geocoder.
func (c *Cached) Name() string { return c.inner.Name() }

// Available implements Geocoder.
func (c *Cached) Available() bool { return c.inner.Available() }

// Geocode implements Geocoder.
func (c *Cached) Geocode(ctx context.Context, address string) (*Result, error) {
	key := forwardKey(c.inner.Name(), address)

	if v, ok := c.cache.Get(key); ok {
		entry := v.(cachedResult)
		zap.L().Debug("geocode cache hit",
			zap.String("key", key[:12]),
			zap.Bool("matched", entry.result != nil),
		)
		return copyResult(entry.result), nil
	}

	result, err := c.inner.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	c.cache.Put(key, cachedResult{result: copyResult(result)})
	return result, nil
}

// ReverseGeocode implements Geocoder.
func (c *Cached) ReverseGeocode(ctx context.Context, lat, lon float64) (*ReverseResult, error) {
	key := reverseKey(c.inner.Name(), lat, lon)

	if v, ok := c.cache.Get(key); ok {
		entry := v.(cachedReverse)
		return copyReverse(entry.result), nil
	}

	result, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	c.cache.Put(key, cachedReverse{result: copyReverse(result)})
	return result, nil
}

// Stats reports cache statistics.
func (c *Cached) Stats() cache.Stats { return c.cache.Stats() }

// Flush drops all cached results.
func (c *Cached) Flush() { c.cache.InvalidateAll() }

// forwardKey returns SHA-256 hex of the provider and normalized address.
func forwardKey(provider, address string) string {
	normalized := provider + "|" + strings.ToLower(strings.TrimSpace(address))
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// reverseKey returns SHA-256 hex of the provider and coordinate pair.
func reverseKey(provider string, lat, lon float64) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s|rev|%.6f|%.6f", provider, lat, lon))
	return fmt.Sprintf("%x", h)
}

func copyResult(r *Result) *Result {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}

func copyReverse(r *ReverseResult) *ReverseResult {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}
