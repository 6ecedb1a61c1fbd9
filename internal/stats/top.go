package stats

import (
	"cmp"
	"slices"
	"strings"

	"github.com/verte-zerg/dictype/internal/model"
)

// TopCharsByFrequency returns the n most practiced characters, ties broken
// alphabetically.
func TopCharsByFrequency(aggs []model.CharAggregate, n int) []string {
	if n <= 0 {
		return nil
	}
	sorted := slices.Clone(aggs)
	slices.SortFunc(sorted, func(a, b model.CharAggregate) int {
		if c := cmp.Compare(b.Correct+b.Incorrect, a.Correct+a.Incorrect); c != 0 {
			return c
		}
		return strings.Compare(a.Char, b.Char)
	})
	n = min(n, len(sorted))
	out := make([]string, 0, n)
	for _, agg := range sorted[:n] {
		out = append(out, agg.Char)
	}
	return out
}
