package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGoogle(serverURL string) *Google {
	return NewGoogle("test-key", "TT", "Trinidad and Tobago",
		WithHTTPClient(newRewriteClient(serverURL, googleGeocodeURL)),
		WithRateLimit(1000),
		WithRetry(fastRetry()),
	)
}

func TestGoogleGeocode(t *testing.T) {
	var gotAddress, gotComponents, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAddress = r.URL.Query().Get("address")
		gotComponents = r.URL.Query().Get("components")
		gotKey = r.URL.Query().Get("key")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"geometry": {
					"location": {"lat": 10.2797, "lng": -61.4683},
					"location_type": "ROOFTOP"
				},
				"formatted_address": "Harris Promenade, San Fernando, Trinidad and Tobago"
			}]
		}`))
	}))
	defer server.Close()

	g := newTestGoogle(server.URL)
	result, err := g.Geocode(context.Background(), "Harris Promenade, San Fernando")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "Harris Promenade, San Fernando, Trinidad and Tobago", gotAddress)
	assert.Equal(t, "country:TT", gotComponents)
	assert.Equal(t, "test-key", gotKey)
	assert.InDelta(t, 10.2797, result.Latitude, 0.0001)
	assert.InDelta(t, -61.4683, result.Longitude, 0.0001)
	assert.Equal(t, "rooftop", result.Accuracy)
	assert.Equal(t, "google", result.Provider)
}

func TestGoogleGeocode_CountrySuffixNotDoubled(t *testing.T) {
	var gotAddress string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAddress = r.URL.Query().Get("address")
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer server.Close()

	g := newTestGoogle(server.URL)
	_, err := g.Geocode(context.Background(), "123 Main Street, TRINIDAD AND TOBAGO")
	require.NoError(t, err)
	assert.Equal(t, "123 Main Street, TRINIDAD AND TOBAGO", gotAddress)
}

func TestGoogleGeocode_ZeroResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer server.Close()

	g := newTestGoogle(server.URL)
	result, err := g.Geocode(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestGoogleGeocode_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "OVER_QUERY_LIMIT", "results": []}`))
	}))
	defer server.Close()

	g := newTestGoogle(server.URL)
	_, err := g.Geocode(context.Background(), "Port of Spain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OVER_QUERY_LIMIT")
}

func TestGoogleReverseGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("latlng"))

		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [{
				"geometry": {
					"location": {"lat": 10.6587, "lng": -61.5281},
					"location_type": "RANGE_INTERPOLATED"
				},
				"formatted_address": "42 Ariapita Avenue, Port of Spain, Trinidad and Tobago",
				"address_components": [
					{"long_name": "42", "types": ["street_number"]},
					{"long_name": "Ariapita Avenue", "types": ["route"]},
					{"long_name": "Port of Spain", "types": ["locality", "political"]},
					{"long_name": "City of Port of Spain", "types": ["administrative_area_level_1", "political"]},
					{"long_name": "Trinidad and Tobago", "types": ["country", "political"]}
				]
			}]
		}`))
	}))
	defer server.Close()

	g := newTestGoogle(server.URL)
	result, err := g.ReverseGeocode(context.Background(), 10.6587, -61.5281)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "42 Ariapita Avenue", result.Street)
	assert.Equal(t, "Port of Spain", result.City)
	assert.Equal(t, "City of Port of Spain", result.Region)
	assert.Equal(t, "42 Ariapita Avenue, Port of Spain, Trinidad and Tobago", result.FormattedAddress)
}

func TestGoogleGeocode_NoAPIKey(t *testing.T) {
	g := NewGoogle("", "TT", "Trinidad and Tobago")
	assert.False(t, g.Available())

	_, err := g.Geocode(context.Background(), "Port of Spain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key not configured")
}

func TestGoogleLocationTypeToAccuracy(t *testing.T) {
	tests := []struct {
		locType, want string
	}{
		{"ROOFTOP", "rooftop"},
		{"RANGE_INTERPOLATED", "range"},
		{"GEOMETRIC_CENTER", "centroid"},
		{"APPROXIMATE", "approximate"},
		{"something_else", "approximate"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, googleLocationTypeToAccuracy(tt.locType))
	}
}
