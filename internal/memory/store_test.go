package memory

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RenderUnseenKey(t *testing.T) {
	s := NewStore()
	assert.Equal(t, NoHistory, s.Render("nobody"))
	assert.Equal(t, 0, s.Len("nobody"))
}

func TestStore_RenderFormat(t *testing.T) {
	s := NewStore()
	s.Append("bot1", UserTurn("which coin is pumping?"))
	s.Append("bot1", AssistantTurn("PEPE, obviously"))

	assert.Equal(t, "User: which coin is pumping?\nAssistant: PEPE, obviously", s.Render("bot1"))
}

func TestStore_EvictsOldestFirst(t *testing.T) {
	s := NewStore()
	for i := 0; i < 15; i++ {
		s.Append("k", UserTurn(fmt.Sprintf("msg-%d", i)))
	}

	turns := s.Turns("k")
	require.Len(t, turns, MaxTurns)
	assert.Equal(t, "msg-5", turns[0].Content)
	assert.Equal(t, "msg-14", turns[MaxTurns-1].Content)
}

func TestStore_RenderNeverExceedsCap(t *testing.T) {
	s := NewStore()
	for n := 1; n <= 25; n++ {
		role := UserTurn
		if n%2 == 0 {
			role = AssistantTurn
		}
		s.Append("k", role(fmt.Sprintf("turn %d", n)))

		lines := strings.Split(s.Render("k"), "\n")
		assert.LessOrEqual(t, len(lines), MaxTurns)

		// Lines are oldest first and contiguous up to the newest turn
		first := n - len(lines) + 1
		for i, line := range lines {
			assert.True(t, strings.HasSuffix(line, fmt.Sprintf("turn %d", first+i)), line)
		}
	}
}

func TestStore_KeysArePartitioned(t *testing.T) {
	s := NewStore()
	s.Append("alice", UserTurn("gm"))
	s.Append("bob", UserTurn("wagmi"))

	assert.Equal(t, "User: gm", s.Render("alice"))
	assert.Equal(t, "User: wagmi", s.Render("bob"))
	assert.Equal(t, 2, s.Keys())
}

func TestStore_TurnsReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Append("k", UserTurn("original"))

	turns := s.Turns("k")
	turns[0].Content = "mutated"

	assert.Equal(t, "original", s.Turns("k")[0].Content)
}

func TestStore_ConcurrentAppend(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Append("shared", UserTurn(fmt.Sprintf("%d", i)))
			_ = s.Render("shared")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, MaxTurns, s.Len("shared"))
}
