// Package chunker splits document text into an ordered sequence of
// overlapping passages for embedding and retrieval.
package chunker

import (
	"strings"
	"unicode"
)

// DefaultTargetSize is the default passage size in runes.
const DefaultTargetSize = 1000

// DefaultOverlap is the default overlap between consecutive passages in runes.
const DefaultOverlap = 200

// Passage is one slice of the source text. Start and End are rune offsets
// into the source, so passages are literal substrings: the union of all
// [Start, End) ranges covers every rune of the input.
type Passage struct {
	Ordinal int    // Position in document (0, 1, 2...)
	Text    string // Exact substring of the source
	Start   int    // Inclusive rune offset
	End     int    // Exclusive rune offset
}

// Splitter produces deterministic overlapping passages. Boundaries prefer
// natural text breaks: paragraph break, then sentence end, then word
// break, then a hard cut at the size limit.
type Splitter struct {
	targetSize int
	overlap    int
}

// New creates a splitter. Non-positive sizes fall back to the defaults;
// an overlap that reaches the target size is clamped to a quarter of it
// so every passage contributes new text.
func New(targetSize, overlap int) *Splitter {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= targetSize {
		overlap = targetSize / 4
	}
	return &Splitter{targetSize: targetSize, overlap: overlap}
}

// Split cuts text into passages of at most targetSize runes, consecutive
// passages overlapping by the configured amount. Same input always yields
// byte-identical passages. Empty input yields no passages.
func (s *Splitter) Split(text string) []Passage {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var passages []Passage
	start := 0
	for {
		end := start + s.targetSize
		if end >= n {
			end = n
		} else {
			end = s.breakPoint(runes, start, end)
		}

		passages = append(passages, Passage{
			Ordinal: len(passages),
			Text:    string(runes[start:end]),
			Start:   start,
			End:     end,
		})

		if end == n {
			return passages
		}

		next := end - s.overlap
		if next <= start {
			// Progress guarantee for degenerate size/overlap pairs.
			next = start + 1
		}
		start = next
	}
}

// breakPoint picks the cut position inside runes[start:hardEnd], trying
// separators in decreasing granularity. A natural break is only accepted
// in the second half of the window, otherwise passages collapse to
// slivers around clustered separators.
func (s *Splitter) breakPoint(runes []rune, start, hardEnd int) int {
	min := start + (hardEnd-start)/2

	// Paragraph break: cut after the blank line.
	for i := hardEnd - 2; i >= min; i-- {
		if runes[i] == '\n' && runes[i+1] == '\n' {
			return i + 2
		}
	}

	// Sentence end, counting a line break as one.
	for i := hardEnd - 1; i >= min; i-- {
		switch runes[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}

	// Word break.
	for i := hardEnd - 1; i >= min; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}

	// No natural break in range: hard cut.
	return hardEnd
}

// Reconstruct rebuilds the original text from passages by dropping each
// passage's overlap with its predecessor. Used to verify the coverage
// invariant; returns the exact source text for any Split output.
func Reconstruct(passages []Passage) string {
	var b strings.Builder
	prevEnd := 0
	for _, p := range passages {
		runes := []rune(p.Text)
		skip := prevEnd - p.Start
		if skip < 0 {
			skip = 0
		}
		if skip > len(runes) {
			skip = len(runes)
		}
		b.WriteString(string(runes[skip:]))
		if p.End > prevEnd {
			prevEnd = p.End
		}
	}
	return b.String()
}
