package stats

import (
	"testing"

	"github.com/verte-zerg/dictype/internal/model"
)

func TestTopCharsByFrequency(t *testing.T) {
	aggs := []model.CharAggregate{
		{Char: "b", Correct: 3, Incorrect: 1},
		{Char: "a", Correct: 2, Incorrect: 2},
		{Char: "c", Correct: 1, Incorrect: 0},
	}
	top := TopCharsByFrequency(aggs, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 chars, got %d", len(top))
	}
	if top[0] != "a" || top[1] != "b" {
		t.Fatalf("unexpected order: %v", top)
	}
	if aggs[0].Char != "b" {
		t.Fatalf("input must not be reordered")
	}
}

func TestTopCharsByFrequencyClampsN(t *testing.T) {
	aggs := []model.CharAggregate{{Char: "x", Correct: 1}}
	if got := TopCharsByFrequency(aggs, 5); len(got) != 1 || got[0] != "x" {
		t.Fatalf("unexpected result: %v", got)
	}
	if got := TopCharsByFrequency(aggs, 0); got != nil {
		t.Fatalf("expected nil for n=0, got %v", got)
	}
}
