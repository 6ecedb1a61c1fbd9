package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const cellTail = "..."

// Table is a plain-text grid printed under a header row.
type Table struct {
	Headers []string
	Rows    [][]string
	// Right marks count-like columns aligned to the right edge.
	Right map[int]bool
	// MaxCell caps the display width of body cells. Zero means no cap.
	MaxCell int
}

// WriteTable prints t with columns padded to terminal cells, so English
// sentences and Chinese translations line up in the same grid.
func WriteTable(w io.Writer, t Table) error {
	for _, line := range t.lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (t Table) lines() []string {
	cols := len(t.Headers)
	for _, row := range t.Rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return nil
	}

	body := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]string, cols)
		for i := 0; i < len(row); i++ {
			cells[i] = t.fit(row[i])
		}
		body = append(body, cells)
	}

	widths := make([]int, cols)
	for i, header := range t.Headers {
		widths[i] = displayWidth(header)
	}
	for _, cells := range body {
		for i, cell := range cells {
			widths[i] = max(widths[i], displayWidth(cell))
		}
	}

	out := make([]string, 0, len(body)+1)
	if len(t.Headers) > 0 {
		out = append(out, t.join(t.Headers, widths))
	}
	for _, cells := range body {
		out = append(out, t.join(cells, widths))
	}
	return out
}

// fit puts a cell on one line and shortens it to MaxCell.
func (t Table) fit(cell string) string {
	cell = strings.Join(strings.Fields(cell), " ")
	if t.MaxCell > 0 && displayWidth(cell) > t.MaxCell {
		return runewidth.Truncate(cell, t.MaxCell, cellTail)
	}
	return cell
}

func (t Table) join(cells []string, widths []int) string {
	var b strings.Builder
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		pad := strings.Repeat(" ", max(0, width-displayWidth(cell)))
		if t.Right[i] {
			b.WriteString(pad + cell)
		} else {
			b.WriteString(cell + pad)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// displayWidth counts terminal cells so CJK text lines up.
func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
