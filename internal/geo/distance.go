// Package geo provides great-circle distance math and bounding-box pre-filtering
// for the Trinidad and Tobago gazetteer.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by the Haversine formula.
const EarthRadiusKm = 6371.0

// kmPerDegreeLat approximates the north-south span of one degree of latitude.
const kmPerDegreeLat = 111.32

// HaversineKm returns the great-circle distance in kilometers between two
// points given in decimal degrees. Inputs are not validated; NaN propagates.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	latDelta := radians(lat2 - lat1)
	lonDelta := radians(lon2 - lon1)

	a := math.Pow(math.Sin(latDelta/2), 2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Pow(math.Sin(lonDelta/2), 2)

	return EarthRadiusKm * 2 * math.Asin(math.Sqrt(a))
}

// BBox is a latitude/longitude rectangle used as a coarse radius pre-filter.
// It may admit points slightly outside the true radius near the corners; the
// exact Haversine check removes those. It never excludes a point within the
// radius.
type BBox struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// BoundingBox returns the rectangle enclosing the circle of radiusKm around
// (lat, lon). A zero or negative radius yields an empty box that contains
// nothing, so callers get an empty result rather than an error.
func BoundingBox(lat, lon, radiusKm float64) BBox {
	if radiusKm <= 0 {
		return BBox{LatMin: 1, LatMax: -1, LonMin: 1, LonMax: -1}
	}

	latDelta := radiusKm / kmPerDegreeLat
	lonDelta := radiusKm / (kmPerDegreeLat * math.Cos(radians(lat)))

	return BBox{
		LatMin: lat - latDelta,
		LatMax: lat + latDelta,
		LonMin: lon - lonDelta,
		LonMax: lon + lonDelta,
	}
}

// Contains reports whether the point lies inside the box.
func (b BBox) Contains(lat, lon float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax && lon >= b.LonMin && lon <= b.LonMax
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
