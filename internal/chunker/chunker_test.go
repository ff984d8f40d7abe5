package chunker

import (
	"reflect"
	"strings"
	"testing"
)

// TestSplit_ThreeChunkScenario verifies the canonical 2500-rune document:
// target 1000, overlap 200 gives 3 chunks with 200-rune shared regions.
func TestSplit_ThreeChunkScenario(t *testing.T) {
	input := strings.Repeat("a", 2500)

	passages := New(1000, 200).Split(input)

	if len(passages) != 3 {
		t.Fatalf("Expected 3 passages, got %d", len(passages))
	}
	for i, p := range passages {
		if len([]rune(p.Text)) > 1000 {
			t.Errorf("Passage %d exceeds target size: %d runes", i, len([]rune(p.Text)))
		}
		if p.Ordinal != i {
			t.Errorf("Passage %d ordinal: expected %d, got %d", i, i, p.Ordinal)
		}
	}

	// Consecutive passages share a 200-rune overlapping region.
	first := []rune(passages[0].Text)
	second := []rune(passages[1].Text)
	if string(first[len(first)-200:]) != string(second[:200]) {
		t.Error("Passages 0 and 1 do not share a 200-rune overlap")
	}

	if got := Reconstruct(passages); got != input {
		t.Errorf("Reconstruction lost characters: %d of %d runes", len(got), len(input))
	}
}

// TestSplit_CoverageAndReconstruction checks the full-coverage invariant
// across parameter combinations: removing overlap regions from the ordered
// concatenation must rebuild the input exactly.
func TestSplit_CoverageAndReconstruction(t *testing.T) {
	input := "First paragraph with some sentences. Another sentence here!\n\n" +
		"Second paragraph follows. It has questions? And answers.\n\n" +
		strings.Repeat("Filler sentence to pad the document out. ", 40) +
		"\n\nFinal paragraph without trailing break"

	cases := []struct {
		name       string
		targetSize int
		overlap    int
	}{
		{"default-ish", 200, 40},
		{"tiny chunks", 25, 5},
		{"no overlap", 100, 0},
		{"large target", 5000, 500},
		{"degenerate", 2, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			passages := New(tc.targetSize, tc.overlap).Split(input)
			if len(passages) == 0 {
				t.Fatal("Expected at least one passage")
			}

			for i, p := range passages {
				if p.Ordinal != i {
					t.Fatalf("Ordinals not contiguous at %d", i)
				}
				if got := len([]rune(p.Text)); got > tc.targetSize && tc.targetSize >= 2 {
					t.Errorf("Passage %d has %d runes, target %d", i, got, tc.targetSize)
				}
			}

			if got := Reconstruct(passages); got != input {
				t.Errorf("Reconstruction mismatch: got %d runes, want %d", len(got), len(input))
			}
		})
	}
}

// TestSplit_Deterministic verifies byte-identical output on repeat runs.
func TestSplit_Deterministic(t *testing.T) {
	input := strings.Repeat("Sentences vary in length. Some are short. Others ramble on for a while before stopping. ", 30)

	splitter := New(300, 60)
	first := splitter.Split(input)
	second := splitter.Split(input)

	if !reflect.DeepEqual(first, second) {
		t.Error("Same input and parameters produced different passages")
	}
}

// TestSplit_PrefersParagraphBreak verifies boundary granularity order:
// a paragraph break in the second half of the window wins over the
// sentence ends around it.
func TestSplit_PrefersParagraphBreak(t *testing.T) {
	para := strings.Repeat("x", 70) + ".\n\n"
	input := para + strings.Repeat("y", 200)

	passages := New(100, 10).Split(input)

	if len(passages) < 2 {
		t.Fatalf("Expected multiple passages, got %d", len(passages))
	}
	if !strings.HasSuffix(passages[0].Text, ".\n\n") {
		t.Errorf("First passage should end at the paragraph break, got %q", passages[0].Text)
	}
}

// TestSplit_SentenceFallback: no paragraph break in the window, so the
// cut lands after the last sentence end.
func TestSplit_SentenceFallback(t *testing.T) {
	input := strings.Repeat("z", 60) + ". " + strings.Repeat("w", 200)

	passages := New(100, 10).Split(input)

	if len(passages) < 2 {
		t.Fatalf("Expected multiple passages, got %d", len(passages))
	}
	if !strings.HasSuffix(passages[0].Text, ". ") && !strings.HasSuffix(passages[0].Text, ".") {
		t.Errorf("First passage should end after the sentence, got suffix %q", passages[0].Text[len(passages[0].Text)-5:])
	}
}

func TestSplit_ShortInputSinglePassage(t *testing.T) {
	input := "fits in one passage"

	passages := New(1000, 200).Split(input)

	if len(passages) != 1 {
		t.Fatalf("Expected 1 passage, got %d", len(passages))
	}
	if passages[0].Text != input {
		t.Errorf("Single passage must equal input, got %q", passages[0].Text)
	}
	if passages[0].Ordinal != 0 {
		t.Errorf("Single passage ordinal must be 0, got %d", passages[0].Ordinal)
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	if passages := New(1000, 200).Split(""); passages != nil {
		t.Errorf("Empty input should yield no passages, got %d", len(passages))
	}
}

// TestSplit_MultibyteRunes ensures cuts never land inside a UTF-8 sequence.
func TestSplit_MultibyteRunes(t *testing.T) {
	input := strings.Repeat("héllø wörld – ünïcode tēxt. ", 50)

	passages := New(120, 30).Split(input)

	for i, p := range passages {
		if !strings.Contains(input, p.Text) {
			t.Errorf("Passage %d is not a literal substring of the input", i)
		}
	}
	if got := Reconstruct(passages); got != input {
		t.Error("Multibyte reconstruction mismatch")
	}
}

func TestNew_ClampsExcessiveOverlap(t *testing.T) {
	s := New(100, 100)
	if s.overlap != 25 {
		t.Errorf("Expected overlap clamped to 25, got %d", s.overlap)
	}

	s = New(100, 150)
	if s.overlap != 25 {
		t.Errorf("Expected overlap clamped to 25, got %d", s.overlap)
	}
}
