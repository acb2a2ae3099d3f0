package gazetteer

import (
	"sort"

	"github.com/caribdata/tt-addresses/internal/geo"
	"github.com/caribdata/tt-addresses/internal/model"
)

// CityDistance pairs a city with its distance from a query point.
type CityDistance struct {
	City       model.City `json:"city"`
	DistanceKm float64    `json:"distance_km"`
}

// WithinRadius returns the cities within radiusKm of the point, nearest
// first. A non-positive radius yields no results; radii beyond the
// configured maximum are clamped to it. A bounding box prefilter keeps the
// haversine work proportional to the matches.
func (g *Gazetteer) WithinRadius(lat, lon, radiusKm float64) []CityDistance {
	if radiusKm <= 0 {
		return nil
	}
	if radiusKm > g.maxRadiusKm {
		radiusKm = g.maxRadiusKm
	}

	box := geo.BoundingBox(lat, lon, radiusKm)

	var out []CityDistance
	for i := range g.cities {
		c := &g.cities[i]
		if !c.HasCoordinates() || !box.Contains(*c.Latitude, *c.Longitude) {
			continue
		}
		d := geo.HaversineKm(lat, lon, *c.Latitude, *c.Longitude)
		if d <= radiusKm {
			out = append(out, CityDistance{City: *c, DistanceKm: d})
		}
	}

	sortByDistance(out)
	return out
}

// Nearest returns the city closest to the point, or nil when no city has
// coordinates.
func (g *Gazetteer) Nearest(lat, lon float64) *CityDistance {
	var best *CityDistance
	for i := range g.cities {
		c := &g.cities[i]
		if !c.HasCoordinates() {
			continue
		}
		d := geo.HaversineKm(lat, lon, *c.Latitude, *c.Longitude)
		if best == nil || d < best.DistanceKm {
			best = &CityDistance{City: *c, DistanceKm: d}
		}
	}
	return best
}

// NearestN returns the n cities closest to the point, nearest first. Cities
// without coordinates are skipped; fewer than n results mean the reference
// data ran out.
func (g *Gazetteer) NearestN(lat, lon float64, n int) []CityDistance {
	if n <= 0 {
		return nil
	}
	ordered := g.OrderByDistanceFrom(lat, lon, false)
	if len(ordered) > n {
		ordered = ordered[:n]
	}
	return ordered
}

// OrderByDistanceFrom returns every city with coordinates sorted by distance
// from the point, nearest first unless desc is set. Ties keep storage order.
func (g *Gazetteer) OrderByDistanceFrom(lat, lon float64, desc bool) []CityDistance {
	var out []CityDistance
	for i := range g.cities {
		c := &g.cities[i]
		if !c.HasCoordinates() {
			continue
		}
		out = append(out, CityDistance{
			City:       *c,
			DistanceKm: geo.HaversineKm(lat, lon, *c.Latitude, *c.Longitude),
		})
	}
	if desc {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].DistanceKm > out[j].DistanceKm
		})
	} else {
		sortByDistance(out)
	}
	return out
}

// DetectCity resolves a coordinate to the most plausible city. It first
// looks for the nearest city within radiusKm, then falls back to the
// globally nearest city so remote points still resolve. A non-positive
// radius uses the default detection radius.
func (g *Gazetteer) DetectCity(lat, lon, radiusKm float64) *CityDistance {
	if radiusKm <= 0 {
		radiusKm = defaultDetectRadiusKm
	}

	if within := g.WithinRadius(lat, lon, radiusKm); len(within) > 0 {
		return &within[0]
	}
	return g.Nearest(lat, lon)
}

// WithinServiceArea reports whether the point falls inside the service
// radius around a city. Cities without coordinates serve nothing.
func (g *Gazetteer) WithinServiceArea(lat, lon float64, cityID int, radius model.ServiceRadius) bool {
	c, ok := g.byID[cityID]
	if !ok || !c.HasCoordinates() {
		return false
	}
	d := geo.HaversineKm(*c.Latitude, *c.Longitude, lat, lon)
	return d <= float64(radius.Kilometers())
}

// ServiceCities returns the cities a provider based in the given city can
// reach within the service radius, nearest first. The base city itself is
// excluded.
func (g *Gazetteer) ServiceCities(cityID int, radius model.ServiceRadius) []CityDistance {
	c, ok := g.byID[cityID]
	if !ok || !c.HasCoordinates() {
		return nil
	}

	within := g.WithinRadius(*c.Latitude, *c.Longitude, float64(radius.Kilometers()))
	out := within[:0]
	for _, cd := range within {
		if cd.City.ID != cityID {
			out = append(out, cd)
		}
	}
	return out
}

// sortByDistance orders nearest first, breaking ties by storage order.
func sortByDistance(cities []CityDistance) {
	sort.SliceStable(cities, func(i, j int) bool {
		return cities[i].DistanceKm < cities[j].DistanceKm
	})
}
