package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("hello world", 100, 20)
	if len(chunks) != 1 {
		t.Fatalf("chunk count = %d, want 1", len(chunks))
	}
	if chunks[0].Text != "hello world" {
		t.Errorf("chunk text = %q", chunks[0].Text)
	}
}

func TestSplitTextEmptyInput(t *testing.T) {
	if chunks := SplitText("   ", 100, 20); chunks != nil {
		t.Errorf("expected nil chunks for blank input, got %d", len(chunks))
	}
}

func TestSplitTextSentenceBoundary(t *testing.T) {
	text := "First sentence here. Second sentence follows. Third one closes the text."
	chunks := SplitText(text, 30, 5)

	if len(chunks) < 2 {
		t.Fatalf("chunk count = %d, want at least 2", len(chunks))
	}
	// The first chunk should end at a sentence boundary, not mid-word
	if !strings.HasSuffix(chunks[0].Text, "here.") {
		t.Errorf("first chunk = %q, want sentence-boundary break", chunks[0].Text)
	}
}

func TestSplitTextOverlap(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 50)
	chunks := SplitText(text, 100, 30)

	if len(chunks) < 2 {
		t.Fatalf("chunk count = %d, want at least 2", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start >= chunks[i-1].End {
			t.Errorf("chunk %d start %d not overlapping previous end %d", i, chunks[i].Start, chunks[i-1].End)
		}
	}
}

func TestSplitTextNoDelimiterMakesProgress(t *testing.T) {
	// A run with no delimiter anywhere: the splitter must still terminate
	// and cover the whole input
	text := strings.Repeat("x", 5000)
	chunks := SplitText(text, 1000, 200)

	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start <= chunks[i-1].Start {
			t.Fatalf("chunk %d start %d did not advance past %d", i, chunks[i].Start, chunks[i-1].Start)
		}
	}
	last := chunks[len(chunks)-1]
	if last.End != len(text) {
		t.Errorf("last chunk end = %d, want %d", last.End, len(text))
	}
}

func TestSplitTextBoundaryNearStartStillAdvances(t *testing.T) {
	// Delimiter only at the very beginning: end-overlap could rewind to or
	// before start; the clamp must force forward progress instead of looping
	text := "a " + strings.Repeat("z", 400)
	chunks := SplitText(text, 100, 90)

	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start <= chunks[i-1].Start {
			t.Fatalf("chunk %d start %d did not advance past %d", i, chunks[i].Start, chunks[i-1].Start)
		}
	}
}

func TestSplitTextOverlapLargerThanChunkFallsBack(t *testing.T) {
	text := strings.Repeat("word ", 200)
	chunks := SplitText(text, 50, 60) // invalid overlap, treated as 0

	if len(chunks) < 2 {
		t.Fatalf("chunk count = %d, want at least 2", len(chunks))
	}
}
