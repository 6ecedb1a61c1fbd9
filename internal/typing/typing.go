// Package typing validates typed input against a target string.
package typing

import "unicode"

// CharStatus is the display state of one target position.
type CharStatus int

const (
	Pending CharStatus = iota
	Correct
	Incorrect
)

// Result describes the outcome of one keystroke.
type Result struct {
	// Accepted is the input the session keeps: the longest correct prefix on growth,
	// the raw value otherwise.
	Accepted string
	// Display is what is shown until a rollback applies. On a rejected keystroke it
	// still carries the wrong character.
	Display string
	// Chars has one status per target rune.
	Chars []CharStatus
	// Mistake is set when growth hit a mismatched character.
	Mistake bool
	// MistakeIndex is the rune index of the first mismatch, or -1.
	MistakeIndex int
	// Grew reports whether the input got longer than previous.
	Grew bool
	// Complete reports an exact match with target.
	Complete bool
}

// Validate compares current against target. Only growth is checked: when the
// input shrinks it is accepted as is. On growth the whole input is checked from
// the first rune and acceptance stops at the first mismatch.
func Validate(current, previous, target string) Result {
	cur := []rune(current)
	tgt := []rune(target)
	res := Result{
		Accepted:     current,
		Display:      current,
		MistakeIndex: -1,
		Grew:         len(cur) > len([]rune(previous)),
	}

	if res.Grew {
		for i, r := range cur {
			if i >= len(tgt) || r != tgt[i] {
				res.Mistake = true
				res.MistakeIndex = i
				res.Accepted = string(cur[:i])
				break
			}
		}
	}

	res.Chars = Statuses(res.Display, target)
	res.Complete = !res.Mistake && current == target
	return res
}

// Statuses returns the per-position status of input against target.
func Statuses(input, target string) []CharStatus {
	in := []rune(input)
	tgt := []rune(target)
	out := make([]CharStatus, len(tgt))
	for i := range tgt {
		switch {
		case i >= len(in):
			out[i] = Pending
		case in[i] == tgt[i]:
			out[i] = Correct
		default:
			out[i] = Incorrect
		}
	}
	return out
}

// Reveal reports whether a pending target rune is shown muted. Punctuation and
// spacing are always visible; letters and digits only while the hint is shown.
func Reveal(r rune, hint bool) bool {
	if hint {
		return true
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)
}
