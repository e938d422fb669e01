package search

import (
	"strconv"
	"strings"
)

// Filters narrows a search. Empty fields add no constraint.
type Filters struct {
	Cuisines    []string
	PriceRanges []string
	MinRating   float64
}

// IsEmpty reports whether f adds no constraint.
func (f Filters) IsEmpty() bool {
	return BuildFilter(f) == ""
}

// BuildFilter renders f in the index filter syntax. Values within a group
// are ORed; groups are ANDed.
//
//	(cuisine.EN:"Cantonese" OR cuisine.EN:"Thai") AND (priceRange:"$$") AND rating >= 4
func BuildFilter(f Filters) string {
	var groups []string
	if g := orGroup("cuisine.EN", f.Cuisines); g != "" {
		groups = append(groups, g)
	}
	if g := orGroup("priceRange", f.PriceRanges); g != "" {
		groups = append(groups, g)
	}
	if f.MinRating > 0 {
		groups = append(groups, "rating >= "+strconv.FormatFloat(f.MinRating, 'f', -1, 64))
	}
	return strings.Join(groups, " AND ")
}

func orGroup(attribute string, values []string) string {
	terms := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		terms = append(terms, attribute+":"+quote(v))
	}
	if len(terms) == 0 {
		return ""
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}

func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
