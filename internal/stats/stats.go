// Package stats contains practice history calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/verte-zerg/dictype/internal/model"
)

const sparkChars = " .:-=+*#%@"

// SessionAccuracy returns the share of items answered cleanly.
func SessionAccuracy(correctItems, wrongItems int) float64 {
	total := correctItems + wrongItems
	if total <= 0 {
		return 0
	}
	return float64(correctItems) / float64(total)
}

// MistakesPerItem returns rejected keystrokes per answered item.
func MistakesPerItem(s model.SessionAggregate) float64 {
	answered := s.CorrectItems + s.WrongItems
	if answered <= 0 {
		return 0
	}
	return float64(s.Mistakes) / float64(answered)
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 || len(values) == 0 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(min(i+1, window))
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := minMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

func minMax(values []float64) (float64, float64) {
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	return minVal, maxVal
}

// RenderSummary prints totals across sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var totalAcc float64
	var best float64
	var correct, wrong, mistakes int
	var duration int64
	for _, s := range sessions {
		acc := SessionAccuracy(s.CorrectItems, s.WrongItems)
		totalAcc += acc
		best = math.Max(best, acc)
		correct += s.CorrectItems
		wrong += s.WrongItems
		mistakes += s.Mistakes
		duration += s.DurationMs
	}
	count := float64(len(sessions))
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Items: %d correct, %d missed", correct, wrong),
		fmt.Sprintf("Avg Accuracy: %.2f%%", totalAcc/count*100),
		fmt.Sprintf("Best Accuracy: %.2f%%", best*100),
		fmt.Sprintf("Rejected Keystrokes: %d", mistakes),
		fmt.Sprintf("Practice Time: %s", (time.Duration(duration) * time.Millisecond).Round(time.Second)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints smoothed accuracy and mistake trends fitted to width.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window, width int, useColor bool) error {
	if len(sessions) == 0 {
		return nil
	}
	accs := make([]float64, len(sessions))
	errs := make([]float64, len(sessions))
	for i, s := range sessions {
		accs[i] = SessionAccuracy(s.CorrectItems, s.WrongItems) * 100
		errs[i] = MistakesPerItem(s)
	}
	accs = lastN(MovingAverage(accs, window), sparkWidth(width))
	errs = lastN(MovingAverage(errs, window), sparkWidth(width))

	accLine := Sparkline(accs)
	errLine := Sparkline(errs)
	if useColor {
		accLine = color.New(color.FgGreen).Sprint(accLine)
		errLine = color.New(color.FgRed).Sprint(errLine)
	}
	accMin, accMax := minMax(accs)
	errMin, errMax := minMax(errs)
	lines := []string{
		"Trends",
		fmt.Sprintf("Accuracy  %s  %.0f%%..%.0f%%", accLine, accMin, accMax),
		fmt.Sprintf("Mistakes  %s  %.1f..%.1f per item", errLine, errMin, errMax),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// sparkWidth leaves room for the labels around a sparkline.
func sparkWidth(total int) int {
	if total <= 0 {
		total = defaultTerminalWidth
	}
	return max(10, total-30)
}

func lastN(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

// RenderSessions prints the most recent sessions, newest last.
func RenderSessions(w io.Writer, sessions []model.SessionAggregate, limit int) error {
	if len(sessions) == 0 {
		return nil
	}
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[len(sessions)-limit:]
	}
	headers := []string{"Date", "Library", "Scope", "Correct", "Missed", "Accuracy", "Time"}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			s.LibraryName,
			string(s.Scope),
			fmt.Sprintf("%d", s.CorrectItems),
			fmt.Sprintf("%d", s.WrongItems),
			fmt.Sprintf("%.0f%%", SessionAccuracy(s.CorrectItems, s.WrongItems)*100),
			(time.Duration(s.DurationMs) * time.Millisecond).Round(time.Second).String(),
		})
	}
	if _, err := fmt.Fprintln(w, "Recent Sessions"); err != nil {
		return err
	}
	table := Table{Headers: headers, Rows: rows, Right: map[int]bool{3: true, 4: true, 5: true, 6: true}, MaxCell: 24}
	if err := WriteTable(w, table); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCharTable prints the most practiced characters, weakest first.
func RenderCharTable(w io.Writer, aggs []model.CharAggregate, limit int) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No character stats found.")
		return err
	}
	byChar := make(map[string]model.CharAggregate, len(aggs))
	for _, agg := range aggs {
		byChar[agg.Char] = agg
	}
	if limit <= 0 {
		limit = len(aggs)
	}
	picked := make([]model.CharAggregate, 0, limit)
	for _, ch := range TopCharsByFrequency(aggs, limit) {
		picked = append(picked, byChar[ch])
	}
	sort.SliceStable(picked, func(i, j int) bool {
		ai, aj := accuracy(picked[i]), accuracy(picked[j])
		if ai == aj {
			return picked[i].Char < picked[j].Char
		}
		return ai < aj
	})

	if _, err := fmt.Fprintln(w, "Per-Character"); err != nil {
		return err
	}
	headers := []string{"Char", "Accuracy", "Correct", "Incorrect"}
	rows := make([][]string, 0, len(picked))
	for _, agg := range picked {
		rows = append(rows, []string{
			agg.Char,
			fmt.Sprintf("%.2f%%", accuracy(agg)*100),
			fmt.Sprintf("%d", agg.Correct),
			fmt.Sprintf("%d", agg.Incorrect),
		})
	}
	if err := WriteTable(w, Table{Headers: headers, Rows: rows, Right: map[int]bool{1: true, 2: true, 3: true}}); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
