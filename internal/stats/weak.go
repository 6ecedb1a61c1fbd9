package stats

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/verte-zerg/dictype/internal/model"
)

const weakCharCount = 5

// SelectWeakChars returns up to top characters that were mistyped at least
// once, lowest accuracy first.
func SelectWeakChars(aggs []model.CharAggregate, top int) []string {
	candidates := make([]model.CharAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Incorrect > 0 {
			candidates = append(candidates, agg)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		ai := accuracy(candidates[i])
		aj := accuracy(candidates[j])
		if ai == aj {
			return candidates[i].Char < candidates[j].Char
		}
		return ai < aj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	out := make([]string, 0, top)
	for i := 0; i < top; i++ {
		out = append(out, candidates[i].Char)
	}
	return out
}

func accuracy(agg model.CharAggregate) float64 {
	total := agg.Correct + agg.Incorrect
	if total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(total)
}

// RenderWeakChars prints the characters most often mistyped recently.
func RenderWeakChars(w io.Writer, weak []string) error {
	if len(weak) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "Weak characters: %s\n\n", strings.Join(weak, " "))
	return err
}
