package room

import (
	"strings"
	"testing"
)

func TestFormatReply_CapsAtThreeLinks(t *testing.T) {
	got := FormatReply("answer", []string{"https://x/1", "https://x/2", "https://x/3", "https://x/4"})

	if n := strings.Count(got, "<li>"); n != 3 {
		t.Fatalf("expected 3 links, got %d:\n%s", n, got)
	}
	if strings.Contains(got, "https://x/4") {
		t.Fatal("fourth source must not be rendered")
	}
	// First-seen ranking order preserved.
	if strings.Index(got, "https://x/1") > strings.Index(got, "https://x/2") {
		t.Fatal("link order broken")
	}
}

func TestFormatReply_EmptySourcesRendersEmptyList(t *testing.T) {
	got := FormatReply("answer", nil)

	if !strings.Contains(got, "References:") {
		t.Fatal("references block missing")
	}
	if !strings.Contains(got, "<ul style='font-size: 10px;'>") || !strings.Contains(got, "</ul>") {
		t.Fatal("empty list must still be rendered")
	}
	if strings.Contains(got, "<li>") {
		t.Fatal("no items expected")
	}
}

func TestFormatReply_EscapesAnswer(t *testing.T) {
	got := FormatReply("<script>alert(1)</script>", nil)
	if strings.Contains(got, "<script>") {
		t.Fatalf("answer not escaped:\n%s", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Fatalf("expected escaped answer:\n%s", got)
	}
}

func TestFormatPlainReply_AnswerAndSources(t *testing.T) {
	got := FormatPlainReply("Paris.", []string{"https://x/1", "https://x/2"})

	if strings.ContainsAny(got, "<>") {
		t.Fatalf("plain reply must not carry markup: %q", got)
	}
	want := "Paris.\n\nReferences:\n- https://x/1\n- https://x/2"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatPlainReply_NoSourcesNoReferences(t *testing.T) {
	got := FormatPlainReply("Paris.", nil)
	if got != "Paris." {
		t.Fatalf("expected bare answer, got %q", got)
	}
}

func TestFormatPlainReply_CapsAtThreeLinks(t *testing.T) {
	got := FormatPlainReply("a", []string{"https://x/1", "https://x/2", "https://x/3", "https://x/4"})
	if n := strings.Count(got, "\n- "); n != 3 {
		t.Fatalf("expected 3 sources, got %d: %q", n, got)
	}
}

func TestFormatReplyFor_PicksRenderingByRelay(t *testing.T) {
	sources := []string{"https://x/1"}
	if got := FormatReplyFor("telegram", "a", sources); strings.Contains(got, "<div") {
		t.Fatalf("telegram must get the plain form: %q", got)
	}
	if got := FormatReplyFor("websocket", "a", sources); !strings.Contains(got, "<div") {
		t.Fatalf("websocket must get the HTML block: %q", got)
	}
}

func TestFormatReply_LinkShape(t *testing.T) {
	got := FormatReply("a", []string{"https://x/1"})
	want := "<li><a href='https://x/1' target='_blank'>https://x/1</a></li>"
	if !strings.Contains(got, want) {
		t.Fatalf("expected %q in:\n%s", want, got)
	}
}
