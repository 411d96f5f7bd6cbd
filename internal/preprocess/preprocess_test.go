package preprocess

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"os"
	"testing"

	"ragroom/internal/domain"
)

type stubCaptioner struct {
	caption string
	err     error
	got     []byte
}

func (s *stubCaptioner) Caption(_ context.Context, image []byte) (string, error) {
	s.got = image
	return s.caption, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func imageDataURI(payload []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(payload)
}

func TestClassify(t *testing.T) {
	msg := Classify("hello", "alice", "lobby")
	if msg.Kind != domain.KindText {
		t.Fatalf("expected text kind, got %v", msg.Kind)
	}

	msg = Classify(imageDataURI([]byte("img")), "alice", "lobby")
	if msg.Kind != domain.KindImage {
		t.Fatalf("expected image kind, got %v", msg.Kind)
	}
	if msg.RoomID != "lobby" || msg.SenderID != "alice" {
		t.Fatalf("identity not carried: %+v", msg)
	}
}

func TestRewrite_TextPassesThrough(t *testing.T) {
	p := New(Config{Captioner: &stubCaptioner{}, ScratchDir: t.TempDir(), Logger: testLogger()})

	got, err := p.Rewrite(context.Background(), Classify("what is this", "alice", "lobby"))
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if got != "what is this" {
		t.Fatalf("text must pass through unchanged, got %q", got)
	}
}

func TestRewrite_ImageBecomesCaptionQuery(t *testing.T) {
	stub := &stubCaptioner{caption: "a dog running"}
	p := New(Config{Captioner: stub, ScratchDir: t.TempDir(), Logger: testLogger()})

	raw := []byte("fake image bytes")
	got, err := p.Rewrite(context.Background(), Classify(imageDataURI(raw), "alice", "lobby"))
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if got != "tell me about a dog running" {
		t.Fatalf("unexpected rewritten query: %q", got)
	}
	if string(stub.got) != string(raw) {
		t.Fatal("captioner did not receive the decoded image bytes")
	}
}

func TestRewrite_ScratchFileRemoved(t *testing.T) {
	dir := t.TempDir()
	p := New(Config{Captioner: &stubCaptioner{caption: "c"}, ScratchDir: dir, Logger: testLogger()})

	if _, err := p.Rewrite(context.Background(), Classify(imageDataURI([]byte("img")), "a", "r")); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("scratch file left behind: %v", entries)
	}
}

func TestRewrite_MalformedBase64(t *testing.T) {
	p := New(Config{Captioner: &stubCaptioner{}, ScratchDir: t.TempDir(), Logger: testLogger()})

	_, err := p.Rewrite(context.Background(), Classify("data:image/jpeg;base64,%%%not-base64%%%", "a", "r"))
	var decodeErr *domain.InputDecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected InputDecodeError, got %v", err)
	}
}

func TestRewrite_UnsupportedFormat(t *testing.T) {
	p := New(Config{Captioner: &stubCaptioner{}, ScratchDir: t.TempDir(), Logger: testLogger()})

	_, err := p.Rewrite(context.Background(), Classify("data:image/tiff;base64,AAAA", "a", "r"))
	var decodeErr *domain.InputDecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected InputDecodeError, got %v", err)
	}
}

func TestRewrite_MissingPayload(t *testing.T) {
	p := New(Config{Captioner: &stubCaptioner{}, ScratchDir: t.TempDir(), Logger: testLogger()})

	_, err := p.Rewrite(context.Background(), Classify("data:image/jpeg;base64", "a", "r"))
	var decodeErr *domain.InputDecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected InputDecodeError, got %v", err)
	}
}
