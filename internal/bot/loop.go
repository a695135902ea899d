// Package bot runs the per-bot event loop: connect to a chat platform,
// filter inbound messages, run a conversation turn and post the reply.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ajitpratap0/degenbots/internal/config"
	"github.com/ajitpratap0/degenbots/internal/metrics"
)

// State is the connection state of a bot
type State int32

const (
	Disconnected State = iota
	Connecting
	Ready
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Drop reasons reported to metrics
const (
	dropNotReady     = "not_ready"
	dropWrongChannel = "wrong_channel"
	dropSelf         = "self"
	dropNotPeer      = "not_peer"
	dropEmpty        = "empty"
)

// ErrGatewayClosed is returned by Run when the platform stops delivering
// events without being asked to
var ErrGatewayClosed = errors.New("gateway event stream closed")

// Message is an inbound chat message
type Message struct {
	ID         string
	ChannelID  string
	AuthorID   string
	AuthorName string
	Content    string
}

// Platform is a chat gateway connection
type Platform interface {
	// Name identifies the platform in logs and metrics
	Name() string

	// Open connects to the gateway and returns the bot's own user ID
	Open(ctx context.Context) (string, error)

	// Events delivers inbound messages until the connection closes
	Events() <-chan Message

	Send(ctx context.Context, channelID, text string) error
	Close() error
}

// Conversation runs one agent turn
type Conversation interface {
	Converse(ctx context.Context, key, username, message string) string
}

// Filter decides which inbound messages a bot answers
type Filter struct {
	ChannelID string
	SelfID    string

	// PeerID, when set, is the only author the bot answers
	PeerID string
}

// Accept returns "" when msg should be handled, otherwise the drop reason
func (f Filter) Accept(msg Message) string {
	switch {
	case msg.ChannelID != f.ChannelID:
		return dropWrongChannel
	case msg.AuthorID == f.SelfID:
		return dropSelf
	case f.PeerID != "" && msg.AuthorID != f.PeerID:
		return dropNotPeer
	case msg.Content == "":
		return dropEmpty
	default:
		return ""
	}
}

// KeyFunc picks the memory key for an accepted message
type KeyFunc func(msg Message) string

// KeyByAuthor keys memory by author username, for multi-user bots.
// Authors without a username are keyed by their ID.
func KeyByAuthor(msg Message) string {
	if msg.AuthorName == "" {
		return "id:" + msg.AuthorID
	}
	return msg.AuthorName
}

// KeyByPlatformAuthor is KeyByAuthor scoped to one platform, so that
// equal usernames on different platforms get separate histories
func KeyByPlatformAuthor(platform string) KeyFunc {
	return func(msg Message) string {
		return platform + ":" + KeyByAuthor(msg)
	}
}

// Loop is the event loop of one bot identity. Messages are handled one
// at a time, in arrival order.
type Loop struct {
	Name         string
	Platform     Platform
	Filter       Filter
	Conversation Conversation

	// Delay is the simulated think-time before each reply
	Delay time.Duration

	// KeyFunc defaults to a single conversation keyed by Name
	KeyFunc KeyFunc

	// Opener, when set, is posted to the channel OpenerDelay after Ready
	Opener      string
	OpenerDelay time.Duration

	state   atomic.Int32
	log     zerolog.Logger
	logOnce sync.Once
}

func (l *Loop) initLogger() {
	l.logOnce.Do(func() {
		platform := "none"
		if l.Platform != nil {
			platform = l.Platform.Name()
		}
		l.log = config.NewBotLogger(l.Name, platform)
	})
}

// State returns the current connection state
func (l *Loop) State() State {
	return State(l.state.Load())
}

func (l *Loop) setState(s State) {
	l.initLogger()
	l.state.Store(int32(s))
	metrics.SetBotState(l.Name, int(s))
	l.log.Info().Str("state", s.String()).Msg("Bot state changed")
}

// Run connects and processes events until ctx is cancelled or the gateway
// fails. A gateway failure leaves the bot Disconnected and is returned.
func (l *Loop) Run(ctx context.Context) error {
	if l.Platform == nil || l.Conversation == nil {
		return errors.New("bot loop requires a platform and a conversation")
	}
	l.initLogger()

	l.setState(Connecting)
	selfID, err := l.Platform.Open(ctx)
	if err != nil {
		l.setState(Disconnected)
		return fmt.Errorf("%s: gateway connect failed: %w", l.Name, err)
	}
	if l.Filter.SelfID == "" {
		l.Filter.SelfID = selfID
	}
	l.setState(Ready)

	defer func() {
		if err := l.Platform.Close(); err != nil {
			l.log.Warn().Err(err).Msg("Failed to close gateway")
		}
		l.setState(Disconnected)
	}()

	if l.Opener != "" {
		if err := l.open(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}

	events := l.Platform.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%s: %w", l.Name, ErrGatewayClosed)
			}
			l.Handle(ctx, msg)
		}
	}
}

// open posts the opening message after OpenerDelay
func (l *Loop) open(ctx context.Context) error {
	if err := sleep(ctx, l.OpenerDelay); err != nil {
		return err
	}

	err := l.Platform.Send(ctx, l.Filter.ChannelID, l.Opener)
	metrics.RecordReply(l.Name, l.Platform.Name(), err)
	if err != nil {
		return fmt.Errorf("%s: failed to send opener: %w", l.Name, err)
	}
	l.log.Info().Str("channel", l.Filter.ChannelID).Msg("Conversation opened")
	return nil
}

// Handle processes one inbound message. It reports whether a reply was
// posted.
func (l *Loop) Handle(ctx context.Context, msg Message) bool {
	l.initLogger()

	platform := ""
	if l.Platform != nil {
		platform = l.Platform.Name()
	}
	metrics.RecordEvent(l.Name, platform)

	if l.State() != Ready {
		metrics.RecordDrop(l.Name, dropNotReady)
		return false
	}
	if reason := l.Filter.Accept(msg); reason != "" {
		metrics.RecordDrop(l.Name, reason)
		l.log.Debug().
			Str("reason", reason).
			Str("author", msg.AuthorID).
			Str("channel", msg.ChannelID).
			Msg("Dropped message")
		return false
	}

	l.log.Info().
		Str("author", msg.AuthorName).
		Str("message_id", msg.ID).
		Msg("Received message")

	if err := sleep(ctx, l.Delay); err != nil {
		return false
	}

	key := l.Name
	if l.KeyFunc != nil {
		key = l.KeyFunc(msg)
	}

	reply := l.Conversation.Converse(ctx, key, msg.AuthorName, msg.Content)

	err := l.Platform.Send(ctx, l.Filter.ChannelID, reply)
	metrics.RecordReply(l.Name, platform, err)
	if err != nil {
		l.log.Error().Err(err).Str("channel", l.Filter.ChannelID).Msg("Failed to send reply")
		return false
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
