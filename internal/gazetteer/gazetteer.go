// Package gazetteer answers geographic queries over an in-memory snapshot of
// the division and city reference data. The snapshot is immutable after
// construction, so all methods are safe for concurrent use.
package gazetteer

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/caribdata/tt-addresses/internal/cache"
	"github.com/caribdata/tt-addresses/internal/config"
	"github.com/caribdata/tt-addresses/internal/model"
)

const (
	defaultAutocompleteLimit = 10
	defaultMaxRadiusKm       = 100
	defaultDetectRadiusKm    = 25

	popularCacheKey = "popular_cities"
)

// Gazetteer holds the reference snapshot and derived search indexes.
type Gazetteer struct {
	divisions []model.Division
	cities    []model.City
	folded    []string // folded city names, parallel to cities

	byID     map[int]*model.City
	byDivID  map[int][]*model.City
	divByID  map[int]*model.Division
	divByAbb map[string]*model.Division

	autocompleteLimit int
	maxRadiusKm       float64
	popularNames      []string
	popularCache      *cache.TTLCache
}

// Option configures a Gazetteer.
type Option func(*Gazetteer)

// WithAutocompleteLimit caps the number of autocomplete suggestions.
func WithAutocompleteLimit(n int) Option {
	return func(g *Gazetteer) {
		if n > 0 {
			g.autocompleteLimit = n
		}
	}
}

// WithMaxSearchRadius caps the radius accepted by proximity queries.
func WithMaxSearchRadius(km float64) Option {
	return func(g *Gazetteer) {
		if km > 0 {
			g.maxRadiusKm = km
		}
	}
}

// WithPopularCities sets the curated suggestion list in display order.
func WithPopularCities(names []string) Option {
	return func(g *Gazetteer) {
		g.popularNames = names
	}
}

// New builds a Gazetteer over the given reference data.
func New(divisions []model.Division, cities []model.City, cfg config.SearchConfig, opts ...Option) *Gazetteer {
	g := &Gazetteer{
		divisions:         divisions,
		cities:            cities,
		autocompleteLimit: defaultAutocompleteLimit,
		maxRadiusKm:       defaultMaxRadiusKm,
		popularCache:      cache.New(cfg.PopularCitiesCacheTTL()),
	}
	if cfg.AutocompleteLimit > 0 {
		g.autocompleteLimit = cfg.AutocompleteLimit
	}
	for _, opt := range opts {
		opt(g)
	}

	g.folded = make([]string, len(cities))
	g.byID = make(map[int]*model.City, len(cities))
	g.byDivID = make(map[int][]*model.City)
	for i := range g.cities {
		c := &g.cities[i]
		g.folded[i] = Fold(c.Name)
		g.byID[c.ID] = c
		g.byDivID[c.DivisionID] = append(g.byDivID[c.DivisionID], c)
	}

	g.divByID = make(map[int]*model.Division, len(divisions))
	g.divByAbb = make(map[string]*model.Division, len(divisions))
	for i := range g.divisions {
		d := &g.divisions[i]
		g.divByID[d.ID] = d
		g.divByAbb[strings.ToUpper(d.Abbreviation)] = d
	}

	return g
}

// FromConfig builds a Gazetteer using the application configuration.
func FromConfig(divisions []model.Division, cities []model.City, cfg *config.Config) *Gazetteer {
	return New(divisions, cities, cfg.Search,
		WithMaxSearchRadius(cfg.Performance.MaxSearchRadiusKm),
		WithPopularCities(cfg.PopularCities),
	)
}

// foldTransformer strips diacritical marks so "Mahé" matches "Mahe".
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases a name, strips diacritics, and treats hyphens as spaces so
// "Port-of-Spain" matches "port of spain".
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	folded = strings.ReplaceAll(folded, "-", " ")
	return strings.ToLower(strings.TrimSpace(folded))
}

// Divisions returns all divisions in storage order.
func (g *Gazetteer) Divisions() []model.Division {
	out := make([]model.Division, len(g.divisions))
	copy(out, g.divisions)
	return out
}

// DivisionsForIsland returns the divisions on one island.
func (g *Gazetteer) DivisionsForIsland(island string) []model.Division {
	var out []model.Division
	for _, d := range g.divisions {
		if d.Island == island {
			out = append(out, d)
		}
	}
	return out
}

// DivisionByAbbreviation finds a division by its abbreviation, case-insensitively.
func (g *Gazetteer) DivisionByAbbreviation(abbr string) *model.Division {
	if d, ok := g.divByAbb[strings.ToUpper(strings.TrimSpace(abbr))]; ok {
		out := *d
		return &out
	}
	return nil
}

// DivisionByID finds a division by id.
func (g *Gazetteer) DivisionByID(id int) *model.Division {
	if d, ok := g.divByID[id]; ok {
		out := *d
		return &out
	}
	return nil
}

// Cities returns all cities in storage order.
func (g *Gazetteer) Cities() []model.City {
	out := make([]model.City, len(g.cities))
	copy(out, g.cities)
	return out
}

// CityByID finds a city by id.
func (g *Gazetteer) CityByID(id int) *model.City {
	if c, ok := g.byID[id]; ok {
		out := *c
		return &out
	}
	return nil
}

// CitiesInDivision returns the cities of one division sorted by name.
func (g *Gazetteer) CitiesInDivision(divisionID int) []model.City {
	ptrs := g.byDivID[divisionID]
	out := make([]model.City, 0, len(ptrs))
	for _, c := range ptrs {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CitiesOnIsland returns the cities located on one island.
func (g *Gazetteer) CitiesOnIsland(island string) []model.City {
	var out []model.City
	for _, c := range g.cities {
		if c.Island() == island {
			out = append(out, c)
		}
	}
	return out
}

// WithCoordinates returns the cities that carry coordinates.
func (g *Gazetteer) WithCoordinates() []model.City {
	var out []model.City
	for _, c := range g.cities {
		if c.HasCoordinates() {
			out = append(out, c)
		}
	}
	return out
}

// Popular returns the curated popular cities in configured order, limited
// to cities that carry coordinates. Names that match nothing are skipped.
func (g *Gazetteer) Popular() []model.City {
	var out []model.City
	for _, name := range g.popularNames {
		if c := g.findByFoldedName(Fold(name)); c != nil {
			out = append(out, *c)
		}
	}
	return out
}

// PopularCached returns the popular cities through a TTL cache. The cache
// holds a single entry and is refreshed on expiry or explicit invalidation.
func (g *Gazetteer) PopularCached() []model.City {
	v := g.popularCache.GetOrCompute(popularCacheKey, func() any {
		return g.Popular()
	})
	cities := v.([]model.City)
	out := make([]model.City, len(cities))
	copy(out, cities)
	return out
}

// InvalidatePopular drops the cached popular city list.
func (g *Gazetteer) InvalidatePopular() {
	g.popularCache.Invalidate(popularCacheKey)
}

// PopularCacheStats reports popular cache hit statistics.
func (g *Gazetteer) PopularCacheStats() cache.Stats {
	return g.popularCache.Stats()
}

// findByFoldedName returns the first coordinate-bearing city whose folded
// name equals the query. Duplicate names resolve to the first located match
// in storage order.
func (g *Gazetteer) findByFoldedName(folded string) *model.City {
	for i := range g.cities {
		if g.folded[i] == folded && g.cities[i].HasCoordinates() {
			return &g.cities[i]
		}
	}
	return nil
}
