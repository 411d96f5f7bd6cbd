package retrieval

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplit_Empty(t *testing.T) {
	s := NewSplitter(1000, 200)
	if got := s.Split("", nil); got != nil {
		t.Fatalf("expected nil for empty input, got %d chunks", len(got))
	}
	if got := s.Split("   \n\t ", nil); got != nil {
		t.Fatalf("expected nil for whitespace input, got %d chunks", len(got))
	}
}

func TestSplit_SingleChunk(t *testing.T) {
	s := NewSplitter(1000, 200)
	md := map[string]string{"source": "https://x/1"}

	chunks := s.Split("short text", md)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "short text" {
		t.Fatalf("unexpected text: %q", chunks[0].Text)
	}
	if chunks[0].Source() != "https://x/1" {
		t.Fatalf("unexpected source: %q", chunks[0].Source())
	}
}

func TestSplit_MetadataCopied(t *testing.T) {
	s := NewSplitter(50, 10)
	md := map[string]string{"source": "https://x/1", "title": "t"}

	chunks := s.Split(strings.Repeat("abcde ", 40), md)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Mutating one chunk's metadata must not leak into another or the input.
	chunks[0].Metadata["title"] = "mutated"
	if chunks[1].Metadata["title"] != "t" {
		t.Fatal("metadata shared between chunks")
	}
	if md["title"] != "t" {
		t.Fatal("input metadata mutated")
	}
	for i, c := range chunks {
		if c.Source() != "https://x/1" {
			t.Fatalf("chunk %d lost its source", i)
		}
	}
}

func TestSplit_RoundTripModuloOverlap(t *testing.T) {
	const size, overlap = 100, 20
	s := NewSplitter(size, overlap)

	// No paragraph breaks: every boundary is a hard split with exact overlap.
	text := strings.Repeat("0123456789", 35)
	chunks := s.Split(text, nil)
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}

	rebuilt := chunks[0].Text
	for _, c := range chunks[1:] {
		if len(c.Text) <= overlap {
			t.Fatalf("chunk shorter than overlap: %q", c.Text)
		}
		if rebuilt[len(rebuilt)-overlap:] != c.Text[:overlap] {
			t.Fatal("chunk does not begin with the previous chunk's tail")
		}
		rebuilt += c.Text[overlap:]
	}
	if rebuilt != text {
		t.Fatalf("round trip failed: got %d bytes, want %d", len(rebuilt), len(text))
	}
}

func TestSplit_ChunkSizeBound(t *testing.T) {
	const size = 120
	s := NewSplitter(size, 30)
	text := strings.Repeat("lorem ipsum dolor sit amet ", 60)

	for i, c := range s.Split(text, nil) {
		if len(c.Text) > size {
			t.Fatalf("chunk %d exceeds window: %d > %d", i, len(c.Text), size)
		}
	}
}

func TestSplit_PrefersParagraphBreak(t *testing.T) {
	s := NewSplitter(100, 20)
	para1 := strings.Repeat("a", 60)
	para2 := strings.Repeat("b", 120)
	text := para1 + "\n\n" + para2

	chunks := s.Split(text, nil)
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	// The first window covers 100 chars of a's and b's, but must cut at the
	// paragraph break instead.
	if !strings.HasSuffix(chunks[0].Text, "\n\n") {
		t.Fatalf("first chunk should end at the paragraph break, got %q", chunks[0].Text)
	}
	if strings.Contains(chunks[0].Text, "b") {
		t.Fatal("first chunk crossed the paragraph boundary")
	}
}

func TestSplit_OrderPreserved(t *testing.T) {
	s := NewSplitter(50, 10)
	text := "first part comes before " + strings.Repeat("x", 100) + " and the very end"

	chunks := s.Split(text, nil)
	if !strings.HasPrefix(chunks[0].Text, "first part") {
		t.Fatalf("chunk order broken: %q", chunks[0].Text)
	}
	if !strings.HasSuffix(chunks[len(chunks)-1].Text, "very end") {
		t.Fatalf("chunk order broken at tail: %q", chunks[len(chunks)-1].Text)
	}
}

func TestSplit_NeverSplitsRunes(t *testing.T) {
	// 2-byte runes with an odd window size force every hard cut to land
	// mid-rune unless the boundary is adjusted.
	s := NewSplitter(101, 20)
	text := strings.Repeat("ä", 200)

	chunks := s.Split(text, nil)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c.Text) {
			t.Fatalf("chunk %d is invalid UTF-8: %q", i, c.Text)
		}
		if len(c.Text) > 101 {
			t.Fatalf("chunk %d exceeds window: %d", i, len(c.Text))
		}
	}
	if !strings.HasSuffix(chunks[len(chunks)-1].Text, "ä") {
		t.Fatalf("tail chunk corrupted: %q", chunks[len(chunks)-1].Text)
	}
}

func TestSplit_MultibyteMixedText(t *testing.T) {
	s := NewSplitter(50, 10)
	text := "intro text " + strings.Repeat("日本語テキスト", 20) + " outro"

	for i, c := range s.Split(text, nil) {
		if !utf8.ValidString(c.Text) {
			t.Fatalf("chunk %d is invalid UTF-8: %q", i, c.Text)
		}
	}
}
