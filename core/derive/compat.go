package derive

import (
	"strings"

	"github.com/kilianp07/evsched/core/model"
)

// BrandMatcher decides whether a vehicle brand is accepted by a charger's
// list of compatible vehicle tokens.
type BrandMatcher interface {
	Compatible(brand string, tokens []string) bool
}

// HeuristicMatcher accepts a token when it occurs in the brand, when the
// brand prefix starts with it, or when it occurs in the prefix. The last two
// checks are subsumed by the first in most data sets but are kept so that
// results stay comparable with historical runs.
type HeuristicMatcher struct{}

func (HeuristicMatcher) Compatible(brand string, tokens []string) bool {
	prefix := model.Vehicle{Brand: brand}.BrandPrefix()
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if strings.Contains(brand, tok) || strings.HasPrefix(prefix, tok) || strings.Contains(prefix, tok) {
			return true
		}
	}
	return false
}

// TableMatcher accepts a token only when it equals the brand or its prefix,
// ignoring case.
type TableMatcher struct{}

func (TableMatcher) Compatible(brand string, tokens []string) bool {
	b := strings.TrimSpace(brand)
	prefix := model.Vehicle{Brand: brand}.BrandPrefix()
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if strings.EqualFold(tok, b) || strings.EqualFold(tok, prefix) {
			return true
		}
	}
	return false
}

// MatcherByName returns the matcher registered under name. Unknown names
// return false.
func MatcherByName(name string) (BrandMatcher, bool) {
	switch strings.ToLower(name) {
	case "", "heuristic":
		return HeuristicMatcher{}, true
	case "table", "exact":
		return TableMatcher{}, true
	default:
		return nil, false
	}
}

// Compatibility is a dense [vehicle][charger] matrix.
type Compatibility [][]bool

// Allowed reports whether vehicle i may use charger c.
func (m Compatibility) Allowed(i, c int) bool {
	return m[i][c]
}

// BuildCompatibility evaluates matcher over every vehicle and charger pair.
func BuildCompatibility(vehicles []model.Vehicle, chargers []model.Charger, matcher BrandMatcher) Compatibility {
	if matcher == nil {
		matcher = HeuristicMatcher{}
	}
	m := make(Compatibility, len(vehicles))
	for i, v := range vehicles {
		m[i] = make([]bool, len(chargers))
		for c, ch := range chargers {
			m[i][c] = matcher.Compatible(v.Brand, ch.CompatibleVehicles)
		}
	}
	return m
}
