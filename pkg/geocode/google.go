package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/caribdata/tt-addresses/internal/resilience"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Google geocodes via the Google Geocoding API, with results restricted to
// the configured country through a components filter.
type Google struct {
	opts        providerOptions
	apiKey      string
	countryCode string
	countryName string
}

// NewGoogle creates a Google geocoder.
func NewGoogle(apiKey, countryCode, countryName string, opts ...Option) *Google {
	return &Google{
		opts:        newProviderOptions(50, googleGeocodeURL, opts),
		apiKey:      apiKey,
		countryCode: countryCode,
		countryName: countryName,
	}
}

// Name implements Geocoder.
func (*Google) Name() string { return "google" }

// Available implements Geocoder.
func (g *Google) Available() bool { return g.apiKey != "" }

// googleResponse is the JSON response from the Google Geocoding API.
type googleResponse struct {
	Results []googleResult `json:"results"`
	Status  string         `json:"status"`
}

type googleResult struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
		LocationType string `json:"location_type"`
	} `json:"geometry"`
	FormattedAddress  string                   `json:"formatted_address"`
	AddressComponents []googleAddressComponent `json:"address_components"`
}

type googleAddressComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

// Geocode implements Geocoder.
func (g *Google) Geocode(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}

	params := url.Values{
		"address":    {withCountrySuffix(address, g.countryName)},
		"components": {"country:" + strings.ToUpper(g.countryCode)},
	}

	resp, err := g.query(ctx, params)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Results) == 0 {
		return nil, nil
	}

	top := resp.Results[0]
	return &Result{
		Latitude:         top.Geometry.Location.Lat,
		Longitude:        top.Geometry.Location.Lng,
		FormattedAddress: top.FormattedAddress,
		Accuracy:         googleLocationTypeToAccuracy(top.Geometry.LocationType),
		Provider:         "google",
	}, nil
}

// ReverseGeocode implements Geocoder.
func (g *Google) ReverseGeocode(ctx context.Context, lat, lon float64) (*ReverseResult, error) {
	params := url.Values{
		"latlng": {fmt.Sprintf("%v,%v", lat, lon)},
	}

	resp, err := g.query(ctx, params)
	if err != nil {
		return nil, err
	}
	if resp == nil || len(resp.Results) == 0 {
		return nil, nil
	}

	top := resp.Results[0]
	rev := &ReverseResult{
		FormattedAddress: top.FormattedAddress,
		Provider:         "google",
	}

	var streetNumber, route string
	for _, comp := range top.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "street_number":
				streetNumber = comp.LongName
			case "route":
				route = comp.LongName
			case "locality":
				rev.City = comp.LongName
			case "administrative_area_level_1":
				rev.Region = comp.LongName
			}
		}
	}
	rev.Street = strings.TrimSpace(streetNumber + " " + route)

	return rev, nil
}

// query performs a geocode API call. A ZERO_RESULTS status returns (nil, nil);
// any other non-OK status is an error.
func (g *Google) query(ctx context.Context, params url.Values) (*googleResponse, error) {
	if g.apiKey == "" {
		return nil, eris.New("geocode: google api key not configured")
	}

	if err := g.opts.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: google rate limit")
	}

	params.Set("key", g.apiKey)

	retry := g.opts.retry
	retry.OnRetry = resilience.RetryLogger("google", "geocode")

	body, err := resilience.DoVal(ctx, retry, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.opts.baseURL+"?"+params.Encode(), nil)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: google build request")
		}

		resp, err := g.opts.httpClient.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: google request")
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("geocode: google returned status %d", resp.StatusCode)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: google read body")
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}

	var parsed googleResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "geocode: google parse response")
	}

	switch parsed.Status {
	case "OK":
		return &parsed, nil
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, eris.Errorf("geocode: google returned status %s", parsed.Status)
	}
}

// googleLocationTypeToAccuracy maps Google's location_type to our accuracy taxonomy.
func googleLocationTypeToAccuracy(locType string) string {
	switch strings.ToUpper(locType) {
	case "ROOFTOP":
		return "rooftop"
	case "RANGE_INTERPOLATED":
		return "range"
	case "GEOMETRIC_CENTER":
		return "centroid"
	default:
		return "approximate"
	}
}
