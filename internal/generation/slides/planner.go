// Package slides paginates a narration transcript into caption slides.
package slides

import (
	"strings"

	"golang.org/x/image/font"
)

// Slide is one caption page of the narration. Lines are rendered top to
// bottom and narrated as a single utterance.
type Slide struct {
	Index int
	Lines []string
}

// Text returns the slide's narration text, lines joined by newlines.
func (s Slide) Text() string {
	return strings.Join(s.Lines, "\n")
}

// Words returns the slide's words in narration order.
func (s Slide) Words() []string {
	return strings.Fields(strings.Join(s.Lines, " "))
}

// Measure reports the rendered pixel width of a line of text.
type Measure func(text string) int

// FaceMeasure builds a Measure from a parsed font face.
func FaceMeasure(face font.Face) Measure {
	return func(text string) int {
		return font.MeasureString(face, text).Ceil()
	}
}

// Plan splits transcript into slides of at most maxLines lines, each line
// measuring at most maxWidthPx. Words are appended greedily; a word that
// would overflow the current line closes it and starts the next one. A
// single word wider than maxWidthPx still gets a line of its own. Word
// order and content are preserved exactly.
func Plan(transcript string, measure Measure, maxWidthPx, maxLines int) []Slide {
	words := strings.Fields(transcript)
	if len(words) == 0 {
		return nil
	}

	var slides []Slide
	var lines []string
	line := ""

	flushSlide := func() {
		if len(lines) == 0 {
			return
		}
		slides = append(slides, Slide{Index: len(slides), Lines: lines})
		lines = nil
	}

	for _, word := range words {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}

		if line == "" || measure(candidate) <= maxWidthPx {
			line = candidate
			continue
		}

		lines = append(lines, line)
		line = word
		if len(lines) >= maxLines {
			flushSlide()
		}
	}

	if line != "" {
		lines = append(lines, line)
	}
	flushSlide()

	return slides
}
