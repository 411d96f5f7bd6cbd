// Package room orchestrates one inbound chat message end to end: echo,
// preprocessing, synthesis, formatting, and the bot broadcast.
package room

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"ragroom/internal/config"
	"ragroom/internal/domain"
	"ragroom/internal/memory"
	"ragroom/internal/metrics"
	"ragroom/internal/preprocess"
)

const (
	defaultConcurrency = 5

	// clearCommand is the operator-facing memory reset for a room.
	clearCommand = "/clear"

	clearedReply        = "Conversation memory for this room has been cleared."
	couldNotAnswerReply = "Sorry, I could not answer that right now."
)

// Rewriter turns an inbound message into a text query.
type Rewriter interface {
	Rewrite(ctx context.Context, msg domain.ChatMessage) (string, error)
}

// Synthesizer produces a cited answer for a query against a room's memory.
type Synthesizer interface {
	Answer(ctx context.Context, roomID string, win *memory.Window, query string, profile config.Profile) (domain.AnswerResult, error)
}

// Orchestrator consumes inbound messages from the bus and broadcasts zero
// or one bot reply per message. All failures are contained here: one
// room's bad turn never affects the relay or other rooms.
type Orchestrator struct {
	bus         domain.MessageBus
	rooms       *memory.Rooms
	pre         Rewriter
	chain       Synthesizer
	profiles    *config.Profiles
	concurrency int
	logger      *slog.Logger
}

type Config struct {
	Bus         domain.MessageBus
	Rooms       *memory.Rooms
	Rewriter    Rewriter
	Synthesizer Synthesizer
	Profiles    *config.Profiles
	Concurrency int
	Logger      *slog.Logger
}

func New(cfg Config) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Profiles == nil {
		cfg.Profiles = config.DefaultProfiles()
	}
	return &Orchestrator{
		bus:         cfg.Bus,
		rooms:       cfg.Rooms,
		pre:         cfg.Rewriter,
		chain:       cfg.Synthesizer,
		profiles:    cfg.Profiles,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
}

// Run consumes inbound messages until ctx is cancelled. Messages are
// processed with bounded concurrency; work for one room is serialized at
// the synthesis step by the room's own lock.
func (o *Orchestrator) Run(ctx context.Context) {
	o.logger.Info("room orchestrator started", "concurrency", o.concurrency)

	sem := make(chan struct{}, o.concurrency)
	inbound := o.bus.Subscribe()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("room orchestrator stopping")
			return
		case msg, ok := <-inbound:
			if !ok {
				o.logger.Info("inbound channel closed, orchestrator stopping")
				return
			}
			sem <- struct{}{}
			go func(m domain.InboundMessage) {
				defer func() { <-sem }()
				o.Handle(ctx, m)
			}(msg)
		}
	}
}

// Handle processes a single inbound message. The user's own message is
// echoed to the room before any work that could fail.
func (o *Orchestrator) Handle(ctx context.Context, msg domain.InboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic while handling message",
				"room", msg.RoomID,
				"query", truncate(msg.Content, 80),
				"panic", r,
			)
			// A panic mid-turn is handled like a synthesis failure: the
			// echo is already out, so the room gets the visible reply.
			metrics.SynthesisFailures.Inc()
			o.reply(msg, couldNotAnswerReply)
		}
	}()

	metrics.MessagesReceived.Inc()

	o.bus.SendOutbound(domain.OutboundMessage{
		Relay:    msg.Relay,
		RoomID:   msg.RoomID,
		Message:  msg.Content,
		Username: msg.SenderID,
	})
	metrics.UserEchoes.Inc()

	if msg.Content == clearCommand {
		o.rooms.Get(msg.RoomID).Window.Clear()
		o.logger.Info("room memory cleared", "room", msg.RoomID)
		o.reply(msg, clearedReply)
		return
	}

	chatMsg := preprocess.Classify(msg.Content, msg.SenderID, msg.RoomID)

	query, err := o.pre.Rewrite(ctx, chatMsg)
	if err != nil {
		var decodeErr *domain.InputDecodeError
		if errors.As(err, &decodeErr) {
			// Policy: a payload we cannot decode is dropped silently.
			metrics.DecodeFailures.Inc()
			o.logger.Warn("dropping undecodable message",
				"room", msg.RoomID,
				"sender", msg.SenderID,
				"error", err,
			)
			return
		}
		// Caption or other collaborator failure: visible degradation, like
		// a synthesis failure.
		metrics.CaptionFailures.Inc()
		o.logger.Error("preprocessing failed",
			"room", msg.RoomID,
			"query", truncate(msg.Content, 80),
			"error", err,
		)
		o.reply(msg, couldNotAnswerReply)
		return
	}

	result, err := o.synthesize(ctx, msg.RoomID, query)
	if err != nil {
		// Policy: synthesis failure is visible so the sender does not
		// believe the message was lost. Memory is untouched.
		o.logger.Error("synthesis failed",
			"room", msg.RoomID,
			"query", truncate(query, 80),
			"error", err,
		)
		o.reply(msg, couldNotAnswerReply)
		return
	}

	o.reply(msg, FormatReplyFor(msg.Relay, result.Answer, result.Sources))
}

// synthesize runs the chain under the room's lock so concurrent turns for
// one room cannot interleave memory appends. The deferred unlock keeps the
// room usable if the chain panics.
func (o *Orchestrator) synthesize(ctx context.Context, roomID, query string) (domain.AnswerResult, error) {
	room := o.rooms.Get(roomID)
	room.Lock()
	defer room.Unlock()
	return o.chain.Answer(ctx, roomID, room.Window, query, o.profiles.For(roomID))
}

// CloseRoom tears down a room's conversation state when the relay reports
// the room is gone.
func (o *Orchestrator) CloseRoom(roomID string) {
	o.rooms.Close(roomID)
	o.logger.Info("room state torn down", "room", roomID)
}

func (o *Orchestrator) reply(msg domain.InboundMessage, text string) {
	o.bus.SendOutbound(domain.OutboundMessage{
		Relay:    msg.Relay,
		RoomID:   msg.RoomID,
		Message:  text,
		Username: domain.BotUsername,
	})
	metrics.BotReplies.Inc()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
