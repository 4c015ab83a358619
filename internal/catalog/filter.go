package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Searchable is any catalog record the text filter can match.
type Searchable interface {
	SearchName() string
	SearchCategory() string
}

// SortPolicy decides the order of search results.
type SortPolicy string

const (
	// SortCatalog keeps the catalog order.
	SortCatalog SortPolicy = "catalog"
	// SortAlphabetical orders results by name, case-insensitively.
	SortAlphabetical SortPolicy = "alphabetical"
)

func ParseSortPolicy(s string) (SortPolicy, error) {
	switch SortPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortCatalog:
		return SortCatalog, nil
	case SortAlphabetical:
		return SortAlphabetical, nil
	}
	return "", fmt.Errorf("unknown sort policy %q", s)
}

// Filter returns the entries matching pred, in their original order.
func Filter[T any](entries []T, pred func(T) bool) []T {
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// MatchQuery builds a case-insensitive substring predicate over name and category.
// A blank query matches everything.
func MatchQuery[T Searchable](query string) func(T) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	return func(e T) bool {
		if q == "" {
			return true
		}
		return strings.Contains(strings.ToLower(e.SearchName()), q) ||
			strings.Contains(strings.ToLower(e.SearchCategory()), q)
	}
}

// Search filters entries by query and orders them according to policy.
func Search[T Searchable](entries []T, query string, policy SortPolicy) []T {
	out := Filter(entries, MatchQuery[T](query))
	if policy == SortAlphabetical {
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].SearchName()) < strings.ToLower(out[j].SearchName())
		})
	}
	return out
}

// RewardsByTab keeps rewards listed under tab.
func RewardsByTab(rewards []Reward, tab Tab) []Reward {
	if tab == TabAll || tab == "" {
		return Filter(rewards, func(Reward) bool { return true })
	}
	return Filter(rewards, func(r Reward) bool { return Tab(r.Kind) == tab })
}
