package bot

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDiscord(t *testing.T) {
	_, err := NewDiscord("")
	assert.Error(t, err)

	d, err := NewDiscord("token")
	require.NoError(t, err)
	assert.Equal(t, "discord", d.Name())
	assert.True(t, d.session.SyncEvents)
	assert.NoError(t, d.Close())
}

func TestFromDiscord(t *testing.T) {
	_, ok := fromDiscord(nil)
	assert.False(t, ok)
	_, ok = fromDiscord(&discordgo.MessageCreate{Message: &discordgo.Message{ID: "1"}})
	assert.False(t, ok)

	msg, ok := fromDiscord(&discordgo.MessageCreate{Message: &discordgo.Message{
		ID:        "10",
		ChannelID: "chan",
		Content:   "wen moon",
		Author:    &discordgo.User{ID: "u1", Username: "degen"},
	}})
	require.True(t, ok)
	assert.Equal(t, Message{ID: "10", ChannelID: "chan", AuthorID: "u1", AuthorName: "degen", Content: "wen moon"}, msg)
}

func TestDiscord_OnMessageCreateAfterClose(t *testing.T) {
	d, err := NewDiscord("token")
	require.NoError(t, err)
	require.NoError(t, d.Close())

	// must not block once closed
	for i := 0; i < 100; i++ {
		d.onMessageCreate(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
			ID:     "x",
			Author: &discordgo.User{ID: "u"},
		}})
	}
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	parts := splitMessage(strings.Repeat("a", 25), 10)
	require.Len(t, parts, 3)
	assert.Equal(t, 10, len(parts[0]))
	assert.Equal(t, 5, len(parts[2]))

	// splits on runes, not bytes
	parts = splitMessage(strings.Repeat("🚀", 3), 2)
	assert.Equal(t, []string{"🚀🚀", "🚀"}, parts)
}
