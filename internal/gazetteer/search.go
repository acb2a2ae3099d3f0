package gazetteer

import (
	"sort"
	"strings"

	"github.com/caribdata/tt-addresses/internal/model"
)

// Search returns the cities whose name contains the query, ignoring case and
// diacritics. Results are sorted by name.
func (g *Gazetteer) Search(query string) []model.City {
	q := Fold(query)
	if q == "" {
		return nil
	}

	var out []model.City
	for i := range g.cities {
		if strings.Contains(g.folded[i], q) {
			out = append(out, g.cities[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Autocomplete match ranks, lower is better.
const (
	rankPrefix = iota
	rankWordStart
	rankSubstring
)

type rankedCity struct {
	city *model.City
	rank int
}

// Autocomplete returns suggestion options for a partial query, limited to
// cities that carry coordinates. Prefix matches
// rank above word-boundary matches, which rank above plain substring matches.
// Ties break by name so the ordering is deterministic.
func (g *Gazetteer) Autocomplete(query string) []model.AutocompleteOption {
	q := Fold(query)
	if q == "" {
		return nil
	}

	var matches []rankedCity
	for i := range g.cities {
		if !g.cities[i].HasCoordinates() {
			continue
		}
		folded := g.folded[i]
		switch {
		case strings.HasPrefix(folded, q):
			matches = append(matches, rankedCity{&g.cities[i], rankPrefix})
		case wordStartMatch(folded, q):
			matches = append(matches, rankedCity{&g.cities[i], rankWordStart})
		case strings.Contains(folded, q):
			matches = append(matches, rankedCity{&g.cities[i], rankSubstring})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].rank != matches[j].rank {
			return matches[i].rank < matches[j].rank
		}
		return matches[i].city.Name < matches[j].city.Name
	})

	limit := g.autocompleteLimit
	if len(matches) < limit {
		limit = len(matches)
	}

	out := make([]model.AutocompleteOption, 0, limit)
	for _, m := range matches[:limit] {
		out = append(out, m.city.AutocompleteOption())
	}
	return out
}

// wordStartMatch reports whether any word in name after the first starts
// with the query. Prefix matches of the whole name are handled separately.
func wordStartMatch(name, q string) bool {
	for i := 1; i < len(name); i++ {
		if isWordBreak(name[i-1]) && strings.HasPrefix(name[i:], q) {
			return true
		}
	}
	return false
}

func isWordBreak(b byte) bool {
	return b == ' ' || b == '-' || b == '\'' || b == '.'
}
