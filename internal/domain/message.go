package domain

import "time"

// BotUsername identifies the system in outbound broadcast payloads.
const BotUsername = "ai"

// MessageKind tags a chat message as plain text or an image payload.
// The kind is decided exactly once, at ingestion, and never re-sniffed.
type MessageKind int

const (
	KindText MessageKind = iota
	KindImage
)

func (k MessageKind) String() string {
	if k == KindImage {
		return "image"
	}
	return "text"
}

// ChatMessage is one inbound chat message as seen by the orchestrator.
// For KindImage, Text holds the raw data-URI payload. Immutable once built.
type ChatMessage struct {
	Text     string
	SenderID string
	RoomID   string
	Kind     MessageKind
}

// InboundMessage travels from a relay to the orchestrator over the bus.
type InboundMessage struct {
	Relay     string
	RoomID    string
	SenderID  string
	Content   string
	Timestamp time.Time
}

// OutboundMessage travels from the orchestrator to a relay for fan-out to
// all current members of the room, including the sender.
type OutboundMessage struct {
	Relay    string
	RoomID   string
	Message  string
	Username string
}

// MessageBus routes messages between relays and the orchestrator.
type MessageBus interface {
	Publish(msg InboundMessage)
	Subscribe() <-chan InboundMessage
	SendOutbound(msg OutboundMessage)
	OnOutbound(relayName string, handler func(OutboundMessage))
	Close()
}
