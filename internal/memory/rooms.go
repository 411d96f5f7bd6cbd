package memory

import (
	"sync"

	"ragroom/internal/metrics"
)

// Room is the conversation state owned by one room identity. The embedded
// mutex serializes orchestration for the room: no two concurrent calls may
// interleave reads and appends of its window.
type Room struct {
	sync.Mutex
	ID     string
	Window *Window
}

// Rooms is the registry of per-room conversation state. State is
// constructed lazily on first use and torn down explicitly on room closure;
// it is never shared across independently-identified rooms.
type Rooms struct {
	mu         sync.Mutex
	windowSize int
	rooms      map[string]*Room
}

func NewRooms(windowSize int) *Rooms {
	return &Rooms{
		windowSize: windowSize,
		rooms:      make(map[string]*Room),
	}
}

// Get returns the room's state, creating it on first use.
func (r *Rooms) Get(roomID string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		room = &Room{ID: roomID, Window: NewWindow(r.windowSize)}
		r.rooms[roomID] = room
		metrics.ActiveRooms.Inc()
	}
	return room
}

// Close tears down a room's conversation state.
func (r *Rooms) Close(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomID]; ok {
		delete(r.rooms, roomID)
		metrics.ActiveRooms.Dec()
	}
}

// Len reports how many rooms currently hold state.
func (r *Rooms) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
