package memory

import (
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// MaxTurns is the number of most recent turns kept per conversation
const MaxTurns = 10

// NoHistory is rendered for a conversation with no turns
const NoHistory = "No previous conversation history."

// Role identifies who produced a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Label returns the capitalised role name used in rendered history
func (r Role) Label() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// Turn is a single role-tagged utterance. Turns are values and never
// mutated after creation.
type Turn struct {
	Role    Role
	Content string
}

// UserTurn builds a user turn
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn builds an assistant turn
func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// Store holds a bounded, ordered log of turns per conversation key.
// A key is a bot identity or, for multi-user agents, a username.
// Conversations are created on first append and live for the lifetime
// of the Store; nothing is persisted.
type Store struct {
	maxTurns      int
	conversations map[string][]Turn
	mu            sync.RWMutex
}

// NewStore creates an empty store capped at MaxTurns per key
func NewStore() *Store {
	return &Store{
		maxTurns:      MaxTurns,
		conversations: make(map[string][]Turn),
	}
}

// Append adds turn to the conversation for key, evicting the oldest
// turns until at most MaxTurns remain.
func (s *Store) Append(key string, turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.conversations[key], turn)
	if overflow := len(turns) - s.maxTurns; overflow > 0 {
		// Copy into a fresh slice so evicted turns are not retained by the backing array
		trimmed := make([]Turn, s.maxTurns)
		copy(trimmed, turns[overflow:])
		turns = trimmed
	}
	s.conversations[key] = turns

	log.Debug().
		Str("conversation", key).
		Str("role", string(turn.Role)).
		Int("turns", len(turns)).
		Msg("Appended turn to memory")
}

// Turns returns a copy of the conversation for key, oldest first
func (s *Store) Turns(key string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.conversations[key]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Len returns the number of turns held for key
func (s *Store) Len(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations[key])
}

// Keys returns the number of conversations tracked
func (s *Store) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conversations)
}

// Render formats the conversation for key as "Role: content" lines,
// oldest first. An unseen or empty conversation renders as NoHistory.
func (s *Store) Render(key string) string {
	turns := s.Turns(key)
	if len(turns) == 0 {
		return NoHistory
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, t.Role.Label()+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}
