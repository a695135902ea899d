package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// TelegramConfig holds the Telegram bot configuration
type TelegramConfig struct {
	BotToken       string
	PollingTimeout int
	Debug          bool

	// APIEndpoint overrides the Bot API endpoint format, for tests
	APIEndpoint string
}

// Telegram is a long-polling Telegram Bot API connection
type Telegram struct {
	config *TelegramConfig
	api    *tgbotapi.BotAPI
	events chan Message
	done   chan struct{}

	closeOnce sync.Once
}

// NewTelegram creates a Telegram platform. The connection is made by Open.
func NewTelegram(config *TelegramConfig) (*Telegram, error) {
	if config.BotToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	return &Telegram{
		config: config,
		events: make(chan Message),
		done:   make(chan struct{}),
	}, nil
}

// Name implements Platform
func (t *Telegram) Name() string { return "telegram" }

// Open authorizes the bot and starts long polling
func (t *Telegram) Open(_ context.Context) (string, error) {
	endpoint := t.config.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(t.config.BotToken, endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to create bot API: %w", err)
	}
	api.Debug = t.config.Debug
	t.api = api

	log.Info().
		Str("username", api.Self.UserName).
		Msg("Telegram bot authorized")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.config.PollingTimeout
	updates := api.GetUpdatesChan(u)

	go t.forward(updates)

	return strconv.FormatInt(api.Self.ID, 10), nil
}

// forward turns updates into messages, one at a time
func (t *Telegram) forward(updates tgbotapi.UpdatesChannel) {
	defer close(t.events)

	for {
		select {
		case <-t.done:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg, ok := fromTelegram(update)
			if !ok {
				continue
			}
			select {
			case t.events <- msg:
			case <-t.done:
				return
			}
		}
	}
}

// Events implements Platform
func (t *Telegram) Events() <-chan Message { return t.events }

// Send implements Platform
func (t *Telegram) Send(_ context.Context, channelID, text string) error {
	if t.api == nil {
		return fmt.Errorf("telegram bot is not connected")
	}
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", channelID, err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Close stops polling
func (t *Telegram) Close() error {
	t.closeOnce.Do(func() {
		log.Info().Msg("Stopping Telegram bot")
		close(t.done)
		if t.api != nil {
			t.api.StopReceivingUpdates()
		}
	})
	return nil
}

func fromTelegram(update tgbotapi.Update) (Message, bool) {
	m := update.Message
	if m == nil || m.From == nil || m.Chat == nil {
		return Message{}, false
	}
	return Message{
		ID:         strconv.Itoa(m.MessageID),
		ChannelID:  strconv.FormatInt(m.Chat.ID, 10),
		AuthorID:   strconv.FormatInt(m.From.ID, 10),
		AuthorName: m.From.UserName,
		Content:    m.Text,
	}, true
}
