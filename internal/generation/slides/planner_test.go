package slides

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedMeasure charges 10px per rune, spaces included.
func fixedMeasure(text string) int {
	return len(text) * 10
}

// ==========================
// 1. Pagination Behavior
// ==========================

func TestPlan_EmptyTranscript(t *testing.T) {
	assert.Empty(t, Plan("", fixedMeasure, 600, 3))
	assert.Empty(t, Plan("   \n\t  ", fixedMeasure, 600, 3))
}

func TestPlan_SingleShortLine(t *testing.T) {
	got := Plan("hello world", fixedMeasure, 600, 3)

	require.Len(t, got, 1)
	assert.Equal(t, []string{"hello world"}, got[0].Lines)
	assert.Equal(t, 0, got[0].Index)
}

func TestPlan_LineClosesOnOverflow(t *testing.T) {
	// 120px budget fits "aaaa bbbb" (90px) but not "aaaa bbbb cccc".
	got := Plan("aaaa bbbb cccc", fixedMeasure, 120, 3)

	require.Len(t, got, 1)
	assert.Equal(t, []string{"aaaa bbbb", "cccc"}, got[0].Lines)
}

func TestPlan_SlideClosesAtMaxLines(t *testing.T) {
	words := []string{"one", "two", "three", "four", "five", "six", "seven", "eight"}
	// 30px budget: every word gets its own line, slides of 3 lines each.
	got := Plan(strings.Join(words, " "), fixedMeasure, 30, 3)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"one", "two", "three"}, got[0].Lines)
	assert.Equal(t, []string{"four", "five", "six"}, got[1].Lines)
	assert.Equal(t, []string{"seven", "eight"}, got[2].Lines)
}

func TestPlan_OversizedWordGetsOwnLine(t *testing.T) {
	got := Plan("hi supercalifragilistic ok", fixedMeasure, 80, 3)

	require.Len(t, got, 1)
	assert.Equal(t, []string{"hi", "supercalifragilistic", "ok"}, got[0].Lines)
}

// ==========================
// 2. Properties
// ==========================

func TestPlan_WidthBound(t *testing.T) {
	transcript := "the quick brown fox jumps over the lazy dog again and again until done"
	for _, maxWidth := range []int{40, 90, 150, 300} {
		for _, slide := range Plan(transcript, fixedMeasure, maxWidth, 3) {
			for _, line := range slide.Lines {
				if len(strings.Fields(line)) == 1 {
					continue // single word may exceed the budget
				}
				assert.LessOrEqual(t, fixedMeasure(line), maxWidth,
					"line %q exceeds %dpx", line, maxWidth)
			}
		}
	}
}

func TestPlan_WordRoundTrip(t *testing.T) {
	transcript := "a small batch of words that must survive pagination in exact order"
	want := strings.Fields(transcript)

	for _, maxWidth := range []int{30, 60, 110, 600} {
		var got []string
		for _, slide := range Plan(transcript, fixedMeasure, maxWidth, 3) {
			got = append(got, slide.Words()...)
		}
		assert.Equal(t, want, got, "maxWidth=%d", maxWidth)
	}
}

func TestPlan_LineCap(t *testing.T) {
	transcript := strings.Repeat("word ", 50)
	for _, maxLines := range []int{1, 2, 3, 5} {
		for _, slide := range Plan(transcript, fixedMeasure, 100, maxLines) {
			assert.LessOrEqual(t, len(slide.Lines), maxLines)
		}
	}
}

func TestSlide_Text(t *testing.T) {
	s := Slide{Lines: []string{"first line", "second line"}}
	assert.Equal(t, "first line\nsecond line", s.Text())
}
