package typing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateExactMatchCompletes(t *testing.T) {
	res := Validate("Hello", "Hell", "Hello")
	assert.True(t, res.Complete)
	assert.False(t, res.Mistake)
	assert.Equal(t, "Hello", res.Accepted)
	assert.Equal(t, []CharStatus{Correct, Correct, Correct, Correct, Correct}, res.Chars)
}

func TestValidateCaseMismatchRejectedAtZero(t *testing.T) {
	res := Validate("h", "", "Hello")
	assert.False(t, res.Complete)
	assert.True(t, res.Mistake)
	assert.Equal(t, 0, res.MistakeIndex)
	assert.Equal(t, "", res.Accepted)
	assert.Equal(t, "h", res.Display)
	assert.Equal(t, Incorrect, res.Chars[0])

	// A pasted full string is checked from the first rune as well.
	res = Validate("hello", "", "Hello")
	assert.False(t, res.Complete)
	assert.Equal(t, 0, res.MistakeIndex)
}

func TestValidateTruncatesToCorrectPrefix(t *testing.T) {
	res := Validate("Helxo", "Hel", "Hello")
	assert.True(t, res.Mistake)
	assert.Equal(t, 3, res.MistakeIndex)
	assert.Equal(t, "Hel", res.Accepted)
	assert.Equal(t, []CharStatus{Correct, Correct, Correct, Incorrect, Correct}, res.Chars)
}

func TestValidateBackspaceAccepted(t *testing.T) {
	res := Validate("Hx", "Hxy", "Hello")
	assert.False(t, res.Grew)
	assert.False(t, res.Mistake)
	assert.Equal(t, "Hx", res.Accepted)
	assert.False(t, res.Complete)
}

func TestValidateGrowthPastTarget(t *testing.T) {
	res := Validate("Hi!", "Hi", "Hi")
	assert.True(t, res.Mistake)
	assert.Equal(t, 2, res.MistakeIndex)
	assert.Equal(t, "Hi", res.Accepted)
}

func TestValidateMultibyte(t *testing.T) {
	res := Validate("café", "caf", "café")
	assert.True(t, res.Complete)
	assert.Len(t, res.Chars, 4)
}

func TestReveal(t *testing.T) {
	assert.True(t, Reveal(',', false))
	assert.True(t, Reveal(' ', false))
	assert.True(t, Reveal('?', false))
	assert.False(t, Reveal('a', false))
	assert.True(t, Reveal('a', true))
}
