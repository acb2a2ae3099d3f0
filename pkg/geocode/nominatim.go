package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/caribdata/tt-addresses/internal/resilience"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org"

// Nominatim geocodes via the OpenStreetMap Nominatim API. Queries are
// scoped to Trinidad and Tobago and rate limited to 1 req/s per the
// Nominatim usage policy.
type Nominatim struct {
	opts        providerOptions
	userAgent   string
	countryCode string
	countryName string
}

// NewNominatim creates a Nominatim geocoder.
func NewNominatim(userAgent, countryCode, countryName string, opts ...Option) *Nominatim {
	return &Nominatim{
		opts:        newProviderOptions(1, nominatimBaseURL, opts),
		userAgent:   userAgent,
		countryCode: countryCode,
		countryName: countryName,
	}
}

// Name implements Geocoder.
func (*Nominatim) Name() string { return "nominatim" }

// Available implements Geocoder.
func (n *Nominatim) Available() bool { return n.userAgent != "" }

// nominatimPlace is a single entry in a Nominatim search response.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Class       string `json:"class"`
	Type        string `json:"type"`
}

// nominatimReverse is the Nominatim reverse geocoding response.
type nominatimReverse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		Road         string `json:"road"`
		Street       string `json:"street"`
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		State        string `json:"state"`
		County       string `json:"county"`
	} `json:"address"`
}

// Geocode implements Geocoder. The country name is appended to the query,
// when not already present, so ambiguous street names resolve inside
// Trinidad and Tobago.
func (n *Nominatim) Geocode(ctx context.Context, address string) (*Result, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}

	if err := n.opts.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim rate limit")
	}

	params := url.Values{
		"q":            {withCountrySuffix(address, n.countryName)},
		"format":       {"json"},
		"limit":        {"1"},
		"countrycodes": {strings.ToLower(n.countryCode)},
	}

	body, err := n.get(ctx, "/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse response")
	}
	if len(places) == 0 {
		return nil, nil
	}

	place := places[0]
	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim parse lat %q", place.Lat)
	}
	lon, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim parse lon %q", place.Lon)
	}

	return &Result{
		Latitude:         lat,
		Longitude:        lon,
		FormattedAddress: place.DisplayName,
		Accuracy:         nominatimTypeToAccuracy(place.Class, place.Type),
		Provider:         "nominatim",
	}, nil
}

// ReverseGeocode implements Geocoder.
func (n *Nominatim) ReverseGeocode(ctx context.Context, lat, lon float64) (*ReverseResult, error) {
	if err := n.opts.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim rate limit")
	}

	params := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', -1, 64)},
		"format": {"json"},
	}

	body, err := n.get(ctx, "/reverse?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var rev nominatimReverse
	if err := json.Unmarshal(body, &rev); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse reverse response")
	}
	if rev.Error != "" || rev.DisplayName == "" {
		return nil, nil
	}

	street := rev.Address.Road
	if street == "" {
		street = rev.Address.Street
	}
	city := firstNonEmpty(rev.Address.City, rev.Address.Town, rev.Address.Village, rev.Address.Municipality)
	region := firstNonEmpty(rev.Address.State, rev.Address.County)

	return &ReverseResult{
		FormattedAddress: rev.DisplayName,
		Street:           street,
		City:             city,
		Region:           region,
		Provider:         "nominatim",
	}, nil
}

// get performs a GET against the Nominatim endpoint with the required
// User-Agent header, retrying transient failures.
func (n *Nominatim) get(ctx context.Context, path string) ([]byte, error) {
	retry := n.opts.retry
	retry.OnRetry = resilience.RetryLogger("nominatim", path)

	return resilience.DoVal(ctx, retry, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.opts.baseURL+path, nil)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: nominatim build request")
		}
		req.Header.Set("User-Agent", n.userAgent)

		resp, err := n.opts.httpClient.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: nominatim request")
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("geocode: nominatim returned status %d", resp.StatusCode)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: nominatim read body")
		}
		return body, nil
	})
}

// nominatimTypeToAccuracy maps OSM class/type pairs to our accuracy taxonomy.
func nominatimTypeToAccuracy(class, osmType string) string {
	switch class {
	case "building":
		return "rooftop"
	case "highway":
		return "range"
	case "place":
		if osmType == "house" {
			return "rooftop"
		}
		return "centroid"
	default:
		return "approximate"
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
