// Package memory holds per-room conversation state: a bounded in-process
// window used for prompt construction, and a SQLite archive of answered
// turns.
package memory

import (
	"sync"

	"ragroom/internal/domain"
)

// DefaultWindowSize is the number of turns kept per room.
const DefaultWindowSize = 5

// Window is a bounded, ordered window of past conversation turns.
// Insertion order defines recency; the oldest turn is evicted first.
type Window struct {
	mu    sync.Mutex
	turns []domain.ConversationTurn
	size  int
}

func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Window{size: size}
}

// Append records a turn, evicting the oldest when the window is full.
func (w *Window) Append(turn domain.ConversationTurn) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.turns = append(w.turns, turn)
	if len(w.turns) > w.size {
		w.turns = w.turns[len(w.turns)-w.size:]
	}
}

// Recent returns the retained turns, oldest first. The slice is a copy.
func (w *Window) Recent() []domain.ConversationTurn {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]domain.ConversationTurn, len(w.turns))
	copy(out, w.turns)
	return out
}

// Clear empties the window. Invoked by the operator-facing reset only,
// never automatically mid-conversation.
func (w *Window) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns = nil
}
