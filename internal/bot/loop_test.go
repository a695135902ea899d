package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	channelID string
	text      string
}

type fakePlatform struct {
	mu      sync.Mutex
	selfID  string
	openErr error
	sendErr error
	events  chan Message
	sent    []sentMessage
	closed  bool
}

func newFakePlatform(selfID string) *fakePlatform {
	return &fakePlatform{selfID: selfID, events: make(chan Message, 16)}
}

func (p *fakePlatform) Name() string { return "fake" }

func (p *fakePlatform) Open(context.Context) (string, error) {
	if p.openErr != nil {
		return "", p.openErr
	}
	return p.selfID, nil
}

func (p *fakePlatform) Events() <-chan Message { return p.events }

func (p *fakePlatform) Send(_ context.Context, channelID, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return p.sendErr
	}
	p.sent = append(p.sent, sentMessage{channelID: channelID, text: text})
	return nil
}

func (p *fakePlatform) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePlatform) Sent() []sentMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]sentMessage, len(p.sent))
	copy(out, p.sent)
	return out
}

type converseCall struct {
	key, username, message string
}

type fakeConversation struct {
	mu    sync.Mutex
	reply string
	calls []converseCall
}

func (c *fakeConversation) Converse(_ context.Context, key, username, message string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, converseCall{key: key, username: username, message: message})
	return c.reply
}

func (c *fakeConversation) Calls() []converseCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]converseCall, len(c.calls))
	copy(out, c.calls)
	return out
}

func readyLoop(platform Platform, conv Conversation, filter Filter) *Loop {
	l := &Loop{Name: "bot1", Platform: platform, Conversation: conv, Filter: filter}
	l.setState(Ready)
	return l
}

func TestFilter_Accept(t *testing.T) {
	filter := Filter{ChannelID: "chan", SelfID: "me"}
	peerFilter := Filter{ChannelID: "chan", SelfID: "me", PeerID: "other-bot"}

	tests := []struct {
		name   string
		filter Filter
		msg    Message
		want   string
	}{
		{"accepted", filter, Message{ChannelID: "chan", AuthorID: "alice", Content: "gm"}, ""},
		{"wrong channel", filter, Message{ChannelID: "elsewhere", AuthorID: "alice", Content: "gm"}, dropWrongChannel},
		{"own message", filter, Message{ChannelID: "chan", AuthorID: "me", Content: "gm"}, dropSelf},
		{"empty content", filter, Message{ChannelID: "chan", AuthorID: "alice"}, dropEmpty},
		{"peer accepted", peerFilter, Message{ChannelID: "chan", AuthorID: "other-bot", Content: "wen moon"}, ""},
		{"not the peer", peerFilter, Message{ChannelID: "chan", AuthorID: "alice", Content: "hi"}, dropNotPeer},
		{"own message with peer", peerFilter, Message{ChannelID: "chan", AuthorID: "me", Content: "hi"}, dropSelf},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Accept(tt.msg))
		})
	}
}

func TestLoop_HandleNeverAnswersItself(t *testing.T) {
	platform := newFakePlatform("bot1-id")
	conv := &fakeConversation{reply: "LFG"}
	l := readyLoop(platform, conv, Filter{ChannelID: "chan", SelfID: "bot1-id", PeerID: "bot2-id"})

	handled := l.Handle(context.Background(), Message{ChannelID: "chan", AuthorID: "bot1-id", AuthorName: "bot1", Content: "my own reply"})
	assert.False(t, handled)
	assert.Empty(t, conv.Calls())
	assert.Empty(t, platform.Sent())

	handled = l.Handle(context.Background(), Message{ChannelID: "chan", AuthorID: "bot2-id", AuthorName: "bot2", Content: "wen lambo"})
	assert.True(t, handled)
	assert.Equal(t, []converseCall{{key: "bot1", username: "bot2", message: "wen lambo"}}, conv.Calls())
	assert.Equal(t, []sentMessage{{channelID: "chan", text: "LFG"}}, platform.Sent())
}

func TestLoop_HandleDropsWhenNotReady(t *testing.T) {
	platform := newFakePlatform("me")
	conv := &fakeConversation{reply: "x"}
	l := &Loop{Name: "bot", Platform: platform, Conversation: conv, Filter: Filter{ChannelID: "chan", SelfID: "me"}}

	assert.Equal(t, Disconnected, l.State())
	assert.False(t, l.Handle(context.Background(), Message{ChannelID: "chan", AuthorID: "alice", Content: "hi"}))
	assert.Empty(t, conv.Calls())
}

func TestLoop_HandleKeyByAuthor(t *testing.T) {
	platform := newFakePlatform("me")
	conv := &fakeConversation{reply: "hey"}
	l := readyLoop(platform, conv, Filter{ChannelID: "chan", SelfID: "me"})
	l.KeyFunc = KeyByAuthor

	l.Handle(context.Background(), Message{ChannelID: "chan", AuthorID: "1", AuthorName: "alice", Content: "gm"})
	l.Handle(context.Background(), Message{ChannelID: "chan", AuthorID: "2", AuthorName: "bob", Content: "gn"})

	calls := conv.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "alice", calls[0].key)
	assert.Equal(t, "bob", calls[1].key)
}

func TestKeyByAuthor_FallsBackToID(t *testing.T) {
	assert.Equal(t, "id:42", KeyByAuthor(Message{AuthorID: "42"}))
	assert.NotEqual(t, KeyByAuthor(Message{AuthorID: "42"}), KeyByAuthor(Message{AuthorID: "43"}))
}

func TestKeyByPlatformAuthor(t *testing.T) {
	discord := KeyByPlatformAuthor("discord")
	telegram := KeyByPlatformAuthor("telegram")

	msg := Message{AuthorID: "1", AuthorName: "alice"}
	assert.Equal(t, "discord:alice", discord(msg))
	assert.Equal(t, "telegram:alice", telegram(msg))
	assert.Equal(t, "telegram:id:7", telegram(Message{AuthorID: "7"}))
}

func TestLoop_HandleDelayHonoursCancellation(t *testing.T) {
	platform := newFakePlatform("me")
	conv := &fakeConversation{reply: "late"}
	l := readyLoop(platform, conv, Filter{ChannelID: "chan", SelfID: "me"})
	l.Delay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, l.Handle(ctx, Message{ChannelID: "chan", AuthorID: "alice", Content: "hi"}))
	assert.Empty(t, conv.Calls())
}

func TestLoop_HandleSendFailure(t *testing.T) {
	platform := newFakePlatform("me")
	platform.sendErr = errors.New("missing permissions")
	conv := &fakeConversation{reply: "hey"}
	l := readyLoop(platform, conv, Filter{ChannelID: "chan", SelfID: "me"})

	assert.False(t, l.Handle(context.Background(), Message{ChannelID: "chan", AuthorID: "alice", Content: "hi"}))
	assert.Len(t, conv.Calls(), 1)
}

func TestLoop_RunConnectFailure(t *testing.T) {
	platform := newFakePlatform("me")
	platform.openErr = errors.New("invalid token")
	l := &Loop{Name: "bot", Platform: platform, Conversation: &fakeConversation{}}

	err := l.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
	assert.Equal(t, Disconnected, l.State())
}

func TestLoop_RunRequiresCollaborators(t *testing.T) {
	assert.Error(t, (&Loop{Name: "bot"}).Run(context.Background()))
}

func TestLoop_RunProcessesEventsInOrder(t *testing.T) {
	platform := newFakePlatform("me")
	conv := &fakeConversation{reply: "ok"}
	l := &Loop{
		Name:         "bot",
		Platform:     platform,
		Conversation: conv,
		Filter:       Filter{ChannelID: "chan"},
		Opener:       "which meme coin is bullish?",
	}

	platform.events <- Message{ChannelID: "chan", AuthorID: "alice", AuthorName: "alice", Content: "first"}
	platform.events <- Message{ChannelID: "chan", AuthorID: "me", AuthorName: "bot", Content: "ignored"}
	platform.events <- Message{ChannelID: "chan", AuthorID: "bob", AuthorName: "bob", Content: "second"}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	require.Eventually(t, func() bool { return len(conv.Calls()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, Ready, l.State())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}

	calls := conv.Calls()
	assert.Equal(t, "first", calls[0].message)
	assert.Equal(t, "second", calls[1].message)

	sent := platform.Sent()
	require.Len(t, sent, 3)
	assert.Equal(t, "which meme coin is bullish?", sent[0].text)
	assert.Equal(t, Disconnected, l.State())
	assert.True(t, platform.closed)
}

func TestLoop_RunGatewayClosed(t *testing.T) {
	platform := newFakePlatform("me")
	close(platform.events)
	l := &Loop{Name: "bot", Platform: platform, Conversation: &fakeConversation{}, Filter: Filter{ChannelID: "chan"}}

	err := l.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGatewayClosed))
	assert.Equal(t, Disconnected, l.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "connecting", Connecting.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "unknown", State(9).String())
}
