package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// discordMessageLimit is the maximum length of one Discord message
const discordMessageLimit = 2000

// Discord is a Discord gateway connection for one bot token
type Discord struct {
	session *discordgo.Session
	events  chan Message
	done    chan struct{}

	closeOnce sync.Once
}

// NewDiscord creates a Discord platform for token. Events are dispatched
// synchronously: when the loop falls behind, the handler blocks and
// messages wait at the gateway.
func NewDiscord(token string) (*Discord, error) {
	if token == "" {
		return nil, fmt.Errorf("discord bot token is required")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.SyncEvents = true
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	d := &Discord{
		session: session,
		events:  make(chan Message, 64),
		done:    make(chan struct{}),
	}
	session.AddHandler(d.onMessageCreate)

	return d, nil
}

// Name implements Platform
func (d *Discord) Name() string { return "discord" }

// Open implements Platform
func (d *Discord) Open(_ context.Context) (string, error) {
	if err := d.session.Open(); err != nil {
		return "", fmt.Errorf("failed to open discord gateway: %w", err)
	}

	if d.session.State != nil && d.session.State.User != nil {
		return d.session.State.User.ID, nil
	}

	self, err := d.session.User("@me")
	if err != nil {
		return "", fmt.Errorf("failed to resolve bot user: %w", err)
	}
	return self.ID, nil
}

// Identity resolves the bot's user ID over REST without opening the
// gateway, so a peer bot can filter on it before either connects.
func (d *Discord) Identity(ctx context.Context) (string, error) {
	self, err := d.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to resolve bot user: %w", err)
	}
	return self.ID, nil
}

// Events implements Platform
func (d *Discord) Events() <-chan Message { return d.events }

// Send implements Platform. Replies longer than a Discord message are
// split.
func (d *Discord) Send(ctx context.Context, channelID, text string) error {
	for _, part := range splitMessage(text, discordMessageLimit) {
		if _, err := d.session.ChannelMessageSend(channelID, part, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("failed to send discord message: %w", err)
		}
	}
	return nil
}

// Close implements Platform
func (d *Discord) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.done)
		err = d.session.Close()
	})
	return err
}

func (d *Discord) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	msg, ok := fromDiscord(m)
	if !ok {
		return
	}

	select {
	case d.events <- msg:
	case <-d.done:
		log.Debug().Str("message_id", msg.ID).Msg("Discord connection closed, ignoring message")
	}
}

func fromDiscord(m *discordgo.MessageCreate) (Message, bool) {
	if m == nil || m.Message == nil || m.Author == nil {
		return Message{}, false
	}
	return Message{
		ID:         m.ID,
		ChannelID:  m.ChannelID,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		Content:    m.Content,
	}, true
}

// splitMessage cuts text into parts of at most limit runes
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > 0 {
		n := limit
		if len(runes) < n {
			n = len(runes)
		}
		parts = append(parts, string(runes[:n]))
		runes = runes[n:]
	}
	return parts
}
