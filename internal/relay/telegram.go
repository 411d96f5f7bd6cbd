package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ragroom/internal/domain"
)

const (
	telegramMaxMsgLen      = 4000
	telegramMaxSendRetries = 3
)

// Telegram bridges a Telegram bot into the room pipeline. Each Telegram
// chat maps to one room, keyed by its chat ID. The chat surface already
// shows the sender's own message, so user echoes are not re-delivered.
type Telegram struct {
	token string

	bot    *tgbotapi.BotAPI
	bus    domain.MessageBus
	logger *slog.Logger
}

type TelegramConfig struct {
	Token  string
	Logger *slog.Logger
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Telegram{
		token:  cfg.Token,
		logger: cfg.Logger,
	}
}

func (t *Telegram) Name() string { return "telegram" }

// Start connects to Telegram and polls for updates until ctx is cancelled.
func (t *Telegram) Start(ctx context.Context, bus domain.MessageBus) error {
	t.bus = bus

	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}
	t.bot = bot
	t.logger.Info("telegram bot connected",
		"username", bot.Self.UserName,
		"id", bot.Self.ID,
	)

	bus.OnOutbound(t.Name(), func(msg domain.OutboundMessage) {
		// The user's message is already visible in the chat.
		if msg.Username != domain.BotUsername {
			return
		}
		chatID, err := strconv.ParseInt(msg.RoomID, 10, 64)
		if err != nil {
			t.logger.Error("invalid room ID for telegram outbound", "room", msg.RoomID, "err", err)
			return
		}
		t.sendMessage(chatID, msg.Message)
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	t.logger.Info("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram relay stopping")
			bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(update)
		}
	}
}

func (t *Telegram) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		return
	}

	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)
	if text == "" {
		return
	}

	t.logger.Info("telegram message received",
		"chat_id", chatID,
		"text_len", len(text),
	)

	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	_, _ = t.bot.Send(typing)

	t.bus.Publish(domain.InboundMessage{
		Relay:     t.Name(),
		RoomID:    strconv.FormatInt(chatID, 10),
		SenderID:  update.Message.From.UserName,
		Content:   text,
		Timestamp: time.Unix(int64(update.Message.Date), 0),
	})
}

func (t *Telegram) sendMessage(chatID int64, text string) {
	// Telegram caps messages at 4096 chars.
	for len(text) > 0 {
		chunk := text
		if len(chunk) > telegramMaxMsgLen {
			cutAt := strings.LastIndex(chunk[:telegramMaxMsgLen], "\n")
			if cutAt < telegramMaxMsgLen/2 {
				cutAt = telegramMaxMsgLen
			}
			chunk = text[:cutAt]
			text = text[cutAt:]
		} else {
			text = ""
		}

		t.sendChunk(chatID, chunk)
	}
}

// sendChunk sends one plain-text message, backing off on rate limits and
// transient errors. Replies are already rendered without markup for this
// surface, so no parse mode is set.
func (t *Telegram) sendChunk(chatID int64, text string) {
	for attempt := 0; attempt <= telegramMaxSendRetries; attempt++ {
		msg := tgbotapi.NewMessage(chatID, text)

		_, err := t.bot.Send(msg)
		if err == nil {
			return
		}

		errStr := err.Error()

		if strings.Contains(errStr, "Too Many Requests") || strings.Contains(errStr, "429") {
			retryAfter := time.Duration(attempt+1) * 3 * time.Second
			t.logger.Warn("telegram rate limited, backing off",
				"retry_after", retryAfter, "attempt", attempt+1,
			)
			time.Sleep(retryAfter)
			continue
		}

		if attempt < telegramMaxSendRetries {
			backoff := time.Duration(attempt+1) * time.Second
			t.logger.Warn("telegram send error, retrying", "err", err, "backoff", backoff)
			time.Sleep(backoff)
			continue
		}

		t.logger.Error("telegram send failed after retries", "err", err, "attempts", telegramMaxSendRetries+1)
	}
}
