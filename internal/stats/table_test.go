package stats

import "testing"

func TestTableAlignsColumns(t *testing.T) {
	table := Table{
		Headers: []string{"Char", "Accuracy", "Correct"},
		Rows: [][]string{
			{"a", "97.50%", "12"},
			{",", "8.00%", "3"},
		},
		Right: map[int]bool{1: true, 2: true},
	}

	lines := table.lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Char Accuracy Correct" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "a      97.50%      12" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != ",       8.00%       3" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestTablePadsWideRunes(t *testing.T) {
	lines := Table{Headers: []string{"Name", "N"}, Rows: [][]string{{"日常", "1"}, {"Travel", "2"}}}.lines()
	if lines[1] != "日常   1" {
		t.Fatalf("expected CJK cells padded by display width, got %q", lines[1])
	}
}

func TestTableTruncatesLongItems(t *testing.T) {
	table := Table{
		Headers: []string{"English", "Chinese"},
		Rows:    [][]string{{"I would like a cup of coffee.", "我想要一杯咖啡。"}},
		MaxCell: 10,
	}
	lines := table.lines()
	if lines[0] != "English    Chinese" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "I would... 我想要..." {
		t.Fatalf("expected cells cut to 10 cells, got %q", lines[1])
	}
	for i, line := range lines {
		if w := displayWidth(line); w > 21 {
			t.Fatalf("line %d is %d cells wide", i, w)
		}
	}
}

func TestTableFlattensMultilineCells(t *testing.T) {
	lines := Table{Headers: []string{"English", "From"}, Rows: [][]string{{"See you\n  tomorrow.", "Daily"}}}.lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[1] != "See you tomorrow. Daily" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
}
