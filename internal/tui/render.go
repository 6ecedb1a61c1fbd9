package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/dictype/internal/model"
	"github.com/verte-zerg/dictype/internal/typing"
)

// blankRune stands in for a pending letter the user has not typed yet.
const blankRune = '_'

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledRunes renders the answer field over target. Typed positions show
// what was typed; pending letters stay blank unless hint is set, while
// punctuation and spaces are always shown.
func buildStyledRunes(targetRunes, displayRunes []rune, chars []typing.CharStatus, hint bool) []styledRune {
	cursorIndex := len(displayRunes)
	currentWord := wordForCursor(findWords(targetRunes), cursorIndex)

	out := make([]styledRune, 0, max(len(targetRunes), len(displayRunes)))
	for i, target := range targetRunes {
		status := typing.Pending
		if i < len(chars) {
			status = chars[i]
		}
		displayed := target
		style := pendingStyle
		switch status {
		case typing.Correct:
			style = correctStyle
		case typing.Incorrect:
			style = incorrectStyle
			if i < len(displayRunes) {
				displayed = displayRunes[i]
			}
			if displayed == ' ' || target == ' ' {
				displayed = '•'
			}
		default:
			if !typing.Reveal(target, hint) {
				displayed = blankRune
			}
			if currentWord != nil && i >= currentWord.start && i < currentWord.end {
				style = currentWordStyle
			}
			if i == cursorIndex {
				style = cursorStyle
			}
		}
		out = append(out, styledRune{
			s:       style.Render(string(displayed)),
			width:   runewidth.RuneWidth(displayed),
			isSpace: target == ' ',
		})
	}
	for i := len(targetRunes); i < len(displayRunes); i++ {
		r := displayRunes[i]
		if r == ' ' {
			r = '•'
		}
		out = append(out, styledRune{
			s:     incorrectStyle.Render(string(r)),
			width: runewidth.RuneWidth(r),
		})
	}
	return out
}

type wordRange struct {
	start int
	end   int
}

func findWords(targetRunes []rune) []wordRange {
	words := []wordRange{}
	start := -1
	for i, r := range targetRunes {
		if r == ' ' {
			if start != -1 {
				words = append(words, wordRange{start: start, end: i})
				start = -1
			}
			continue
		}
		if start == -1 {
			start = i
		}
	}
	if start != -1 {
		words = append(words, wordRange{start: start, end: len(targetRunes)})
	}
	return words
}

// wordForCursor returns the word containing the cursor, or the next one when
// the cursor sits on a space.
func wordForCursor(words []wordRange, cursorIndex int) *wordRange {
	for i, w := range words {
		if cursorIndex < w.end {
			return &words[i]
		}
	}
	return nil
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapStyledRunes breaks lines at the last space that fits width, or mid-word
// when a single word is wider than the line.
func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpace := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpace >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpace]))
				line = append([]styledRune{}, line[lastSpace+1:]...)
			} else {
				out.WriteString(renderStyledRunes(line))
				line = line[:0]
			}
			out.WriteRune('\n')
			lineWidth, lastSpace = measureLine(line)
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpace = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func measureLine(line []styledRune) (width, lastSpace int) {
	lastSpace = -1
	for i, item := range line {
		width += item.width
		if item.isSpace {
			lastSpace = i
		}
	}
	return width, lastSpace
}

// footerData is what the practice footer reports.
type footerData struct {
	index    int
	total    int
	stats    model.Stats
	hasLast  bool
	lastAcc  float64
	allAcc   float64
	sessions int
}

func renderFooter(d footerData) string {
	if d.total == 0 {
		return ""
	}
	progress := int(float64(d.index) / float64(d.total) * 100)
	segments := []string{
		fmt.Sprintf("Progress %d%%", progress),
		fmt.Sprintf("Correct %d · Missed %d", d.stats.CorrectItems, d.stats.WrongItems),
	}
	if d.hasLast {
		segments = append(segments,
			fmt.Sprintf("Last %.1f%%", d.lastAcc*100),
			fmt.Sprintf("All-time %.1f%% over %d sessions", d.allAcc*100, d.sessions),
		)
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
