package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Credential environment variable names. Values are never stored in code.
const (
	EnvOpenAIKey        = "OPENAI_API_KEY"
	EnvCohereKey        = "COHERE_API_KEY"
	EnvCryptoPanicKey   = "CRYPTOPANIC_API_KEY"
	EnvBot1Token        = "BOT1_TOKEN"
	EnvBot2Token        = "BOT2_TOKEN"
	EnvChannelID        = "CHANNEL_ID"
	EnvAgentBotToken    = "DISCORD_AI_AGENT_BOT_TOKEN"
	EnvAgentChannelID   = "DISCORD_BOT_CHANNEL_ID"
	EnvTelegramBotToken = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID   = "TELEGRAM_CHAT_ID"
	EnvDatabaseURL      = "DATABASE_URL"
)

// MissingCredentialError reports required credentials absent at startup
type MissingCredentialError struct {
	Names []string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Names, ", "))
}

// IsMissingCredential reports whether err is a MissingCredentialError
func IsMissingCredential(err error) bool {
	var mce *MissingCredentialError
	return errors.As(err, &mce)
}

// LoadDotEnv loads a .env file into the process environment when one exists.
// Variables already set in the environment win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			log.Warn().Err(err).Str("path", p).Msg("Failed to load env file")
			continue
		}
		log.Debug().Str("path", p).Msg("Loaded env file")
	}
}

// RequireEnv returns the values of the named variables, or a
// MissingCredentialError naming every one that is unset or empty.
func RequireEnv(names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	var missing []string

	for _, name := range names {
		value := strings.TrimSpace(os.Getenv(name))
		if value == "" {
			missing = append(missing, name)
			continue
		}
		values[name] = value
	}

	if len(missing) > 0 {
		return nil, &MissingCredentialError{Names: missing}
	}
	return values, nil
}

// OptionalEnv returns the trimmed value of an environment variable
func OptionalEnv(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

// ParseChatID parses a numeric chat/channel identifier from the environment
func ParseChatID(name, value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a numeric identifier: %w", name, err)
	}
	return id, nil
}
