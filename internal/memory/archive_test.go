package memory

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"ragroom/internal/domain"
)

func newTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := NewArchive(filepath.Join(t.TempDir(), "archive.db"),
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchive_RecordAndHistory(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	turns := []domain.ConversationTurn{
		{Query: "q1", Answer: "a1"},
		{Query: "q2", Answer: "a2"},
		{Query: "q3", Answer: "a3"},
	}
	for _, turn := range turns {
		if err := a.RecordTurn(ctx, "lobby", turn, []string{"https://x/1"}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := a.History(ctx, "lobby", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(got))
	}
	for i, turn := range got {
		if turn != turns[i] {
			t.Fatalf("turn %d: expected %+v, got %+v", i, turns[i], turn)
		}
	}
}

func TestArchive_HistoryLimitKeepsNewest(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	for _, q := range []string{"q1", "q2", "q3", "q4"} {
		if err := a.RecordTurn(ctx, "lobby", domain.ConversationTurn{Query: q, Answer: "a"}, nil); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := a.History(ctx, "lobby", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 2 || got[0].Query != "q3" || got[1].Query != "q4" {
		t.Fatalf("expected newest two in order, got %+v", got)
	}
}

func TestArchive_RoomsAreSeparate(t *testing.T) {
	a := newTestArchive(t)
	ctx := context.Background()

	if err := a.RecordTurn(ctx, "a", domain.ConversationTurn{Query: "q", Answer: "a"}, nil); err != nil {
		t.Fatal(err)
	}

	got, err := a.History(ctx, "b", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no turns for other room, got %d", len(got))
	}
}
