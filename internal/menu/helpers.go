package menu

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/hkeats/eats/internal/domain"
)

// None of the helpers modify their input slice.

// Group is the items of one category.
type Group struct {
	Category domain.MenuCategory
	Items    []domain.MenuItem
}

// FilterByCategory keeps items of exactly category.
func FilterByCategory(items []domain.MenuItem, category domain.MenuCategory) []domain.MenuItem {
	return filter(items, func(it domain.MenuItem) bool { return it.Category == category })
}

// GroupByCategory groups items by category. Groups appear in the order their
// category is first seen; items keep their relative order.
func GroupByCategory(items []domain.MenuItem) []Group {
	var groups []Group
	index := make(map[domain.MenuCategory]int)
	for _, it := range items {
		i, ok := index[it.Category]
		if !ok {
			i = len(groups)
			index[it.Category] = i
			groups = append(groups, Group{Category: it.Category})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

// FilterByAvailability keeps available items when availableOnly is set and
// returns a copy of everything otherwise.
func FilterByAvailability(items []domain.MenuItem, availableOnly bool) []domain.MenuItem {
	return filter(items, func(it domain.MenuItem) bool { return !availableOnly || it.IsAvailable })
}

// FilterByDietary keeps items carrying every one of tags.
func FilterByDietary(items []domain.MenuItem, tags ...domain.DietaryTag) []domain.MenuItem {
	return filter(items, func(it domain.MenuItem) bool {
		for _, tag := range tags {
			if !it.HasDietary(tag) {
				return false
			}
		}
		return true
	})
}

// Search matches query against names and descriptions. English text is
// matched case-insensitively; Chinese text is matched as written.
func Search(items []domain.MenuItem, query string) []domain.MenuItem {
	query = strings.TrimSpace(query)
	if query == "" {
		return filter(items, func(domain.MenuItem) bool { return true })
	}
	lower := strings.ToLower(query)
	return filter(items, func(it domain.MenuItem) bool {
		return strings.Contains(strings.ToLower(it.Name.EN), lower) ||
			strings.Contains(strings.ToLower(it.Description.EN), lower) ||
			strings.Contains(it.Name.TC, query) ||
			strings.Contains(it.Description.TC, query)
	})
}

// SortByPrice sorts by price. Items with equal prices keep their order.
func SortByPrice(items []domain.MenuItem, ascending bool) []domain.MenuItem {
	out := clone(items)
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].Price < out[j].Price
		}
		return out[i].Price > out[j].Price
	})
	return out
}

// SortByName sorts by English name using English collation, ignoring case.
func SortByName(items []domain.MenuItem) []domain.MenuItem {
	out := clone(items)
	c := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		return c.CompareString(out[i].Name.EN, out[j].Name.EN) < 0
	})
	return out
}

// PriceRange returns the cheapest and dearest price. ok is false for an empty list.
func PriceRange(items []domain.MenuItem) (min, max float64, ok bool) {
	if len(items) == 0 {
		return 0, 0, false
	}
	min, max = items[0].Price, items[0].Price
	for _, it := range items[1:] {
		if it.Price < min {
			min = it.Price
		}
		if it.Price > max {
			max = it.Price
		}
	}
	return min, max, true
}

// AveragePrice returns the mean price. ok is false for an empty list.
func AveragePrice(items []domain.MenuItem) (float64, bool) {
	if len(items) == 0 {
		return 0, false
	}
	var sum float64
	for _, it := range items {
		sum += it.Price
	}
	return sum / float64(len(items)), true
}

func filter(items []domain.MenuItem, keep func(domain.MenuItem) bool) []domain.MenuItem {
	out := make([]domain.MenuItem, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func clone(items []domain.MenuItem) []domain.MenuItem {
	return append([]domain.MenuItem(nil), items...)
}
