package stats

import (
	"sort"
	"strings"

	lo "github.com/samber/lo"
)

// Filter keeps the rows of dependency for period. A non-empty objectType
// other than AllObjectTypes additionally restricts the Objeto column.
func Filter(rows []RawRow, dependency string, period PeriodCode, objectType string) []RawRow {
	dep := strings.TrimSpace(dependency)
	code := string(period)
	obj := strings.TrimSpace(objectType)
	byObject := obj != "" && obj != AllObjectTypes
	return lo.Filter(rows, func(r RawRow, _ int) bool {
		if Dependency(r) != dep || Period(r) != code {
			return false
		}
		return !byObject || ObjectType(r) == obj
	})
}

// Totals maps a category to its summed quantity.
type Totals map[string]int

// Aggregate filters rows and sums Quantity per Category.
func Aggregate(rows []RawRow, dependency string, period PeriodCode, objectType string) Totals {
	return Sum(Filter(rows, dependency, period, objectType))
}

// Sum groups already filtered rows by category.
func Sum(rows []RawRow) Totals {
	groups := lo.GroupBy(rows, Category)
	return lo.MapValues(groups, func(g []RawRow, _ string) int {
		return lo.SumBy(g, Quantity)
	})
}

// Total is the sum over all categories.
func (t Totals) Total() int {
	return lo.Sum(lo.Values(t))
}

// Categories returns the keys of t in alphabetical order.
func (t Totals) Categories() []string {
	keys := lo.Keys(t)
	sort.Strings(keys)
	return keys
}

// Top returns at most n entries sorted by value, highest first. Ties are
// broken by category name so output is stable.
func (t Totals) Top(n int) []DependencyStat {
	out := make([]DependencyStat, 0, len(t))
	for c, v := range t {
		out = append(out, DependencyStat{Category: c, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Category < out[j].Category
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
