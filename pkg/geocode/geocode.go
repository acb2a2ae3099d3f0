// Package geocode provides address geocoding for Trinidad and Tobago via
// OpenStreetMap Nominatim or the Google Geocoding API.
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/caribdata/tt-addresses/internal/config"
	"github.com/caribdata/tt-addresses/internal/resilience"
)

// Geocoder represents a single geocoding backend. Geocode and ReverseGeocode
// return (nil, nil) when the provider found no match; an error means the
// lookup itself failed.
type Geocoder interface {
	Name() string
	Geocode(ctx context.Context, address string) (*Result, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (*ReverseResult, error)
	Available() bool
}

// Result holds the forward geocoding output for an address.
type Result struct {
	Latitude         float64
	Longitude        float64
	FormattedAddress string
	Accuracy         string // "rooftop", "range", "centroid", "approximate"
	Provider         string // "nominatim" or "google"
}

// ReverseResult holds the reverse geocoding output for a coordinate.
type ReverseResult struct {
	FormattedAddress string
	Street           string
	City             string
	Region           string
	Provider         string
}

// Option configures a provider.
type Option func(*providerOptions)

type providerOptions struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	retry      resilience.RetryConfig
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *providerOptions) {
		o.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second rate limit for upstream calls.
func WithRateLimit(rps float64) Option {
	return func(o *providerOptions) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBaseURL overrides the provider endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(o *providerOptions) {
		o.baseURL = u
	}
}

// WithRetry overrides the retry policy for upstream calls.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(o *providerOptions) {
		o.retry = cfg
	}
}

// withCountrySuffix appends ", <country>" to an address unless it already
// ends with the country name, compared case-insensitively.
func withCountrySuffix(address, country string) string {
	if country == "" {
		return address
	}
	if strings.HasSuffix(strings.ToLower(address), strings.ToLower(country)) {
		return address
	}
	return address + ", " + country
}

func newProviderOptions(defaultRPS float64, defaultBaseURL string, opts []Option) providerOptions {
	burst := int(defaultRPS)
	if burst < 1 {
		burst = 1
	}
	o := providerOptions{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(defaultRPS), burst),
		baseURL:    defaultBaseURL,
		retry:      resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FromConfig builds the configured Geocoder, wrapping it with a result cache
// when caching is enabled. The null driver is returned when geocoding is
// disabled regardless of the configured driver.
func FromConfig(cfg config.GeocodingConfig, countryCode, countryName string) (Geocoder, error) {
	if !cfg.Enabled {
		return NewNull(), nil
	}

	var g Geocoder
	switch cfg.Driver {
	case "null", "":
		g = NewNull()
	case "nominatim":
		g = NewNominatim(cfg.Nominatim.UserAgent, countryCode, countryName)
	case "google":
		if cfg.Google.APIKey == "" {
			return nil, eris.New("geocode: google driver requires an api key")
		}
		g = NewGoogle(cfg.Google.APIKey, countryCode, countryName)
	case "chain":
		providers := []Geocoder{NewNominatim(cfg.Nominatim.UserAgent, countryCode, countryName)}
		if cfg.Google.APIKey != "" {
			providers = append(providers, NewGoogle(cfg.Google.APIKey, countryCode, countryName))
		}
		g = NewChain(providers...)
	default:
		return nil, eris.Errorf("geocode: unknown driver %q", cfg.Driver)
	}

	if cfg.Cache.Enabled {
		g = NewCached(g, cfg.Cache.TTL())
	}
	return g, nil
}
