// Package agent runs one conversational turn for a bot: it renders the
// persona with the bot's memory, hands the persona, the message and the
// bot's fixed tool set to the reasoning engine, and records the exchange.
package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/degenbots/internal/memory"
	"github.com/ajitpratap0/degenbots/internal/metrics"
)

// Fallback is the reply sent when the reasoning engine or a tool fails
const Fallback = "Let's continue our discussion about cryptocurrency."

// Reasoner turns a rendered persona, a user message and a tool set into
// one reply, invoking tools as it sees fit
type Reasoner interface {
	Reason(ctx context.Context, systemPrompt, userMessage string, tools []*Tool) (string, error)
}

// Session binds a persona and its tool set to a memory store. The tool
// set is fixed at construction.
type Session struct {
	name     string
	persona  Persona
	tools    []*Tool
	memory   *memory.Store
	reasoner Reasoner
}

// NewSession creates a session. name labels logs and metrics.
func NewSession(name string, persona Persona, tools []*Tool, store *memory.Store, reasoner Reasoner) (*Session, error) {
	if reasoner == nil {
		return nil, errors.New("session requires a reasoner")
	}
	if store == nil {
		store = memory.NewStore()
	}

	fixed := make([]*Tool, len(tools))
	copy(fixed, tools)

	return &Session{
		name:     name,
		persona:  persona,
		tools:    fixed,
		memory:   store,
		reasoner: reasoner,
	}, nil
}

// Name returns the session label
func (s *Session) Name() string { return s.name }

// Tools returns a copy of the session's tool set
func (s *Session) Tools() []*Tool {
	out := make([]*Tool, len(s.tools))
	copy(out, s.tools)
	return out
}

// Memory returns the session's memory store
func (s *Session) Memory() *memory.Store { return s.memory }

// Converse runs one turn for the conversation identified by key. username
// fills the persona's {username} placeholder. Failures never reach the
// caller: the reply degrades to Fallback, which is not stored in memory.
func (s *Session) Converse(ctx context.Context, key, username, message string) string {
	start := time.Now()

	s.memory.Append(key, memory.UserTurn(message))
	systemPrompt := s.persona.Render(s.memory.Render(key), username)

	reply, err := s.reasoner.Reason(ctx, systemPrompt, message, s.tools)
	reply = strings.TrimSpace(reply)

	fallback := err != nil || reply == ""
	metrics.RecordTurn(s.name, float64(time.Since(start).Milliseconds()), fallback)

	if fallback {
		if err != nil {
			log.Error().Err(err).Str("bot", s.name).Str("key", key).Msg("Conversation turn failed")
		} else {
			log.Warn().Str("bot", s.name).Str("key", key).Msg("Reasoning engine returned an empty reply")
		}
		return Fallback
	}

	s.memory.Append(key, memory.AssistantTurn(reply))

	log.Debug().
		Str("bot", s.name).
		Str("key", key).
		Int("reply_length", len(reply)).
		Dur("duration", time.Since(start)).
		Msg("Conversation turn completed")

	return reply
}
