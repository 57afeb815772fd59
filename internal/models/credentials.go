// Package models defines the Discord entities, credentials and preferences
// shared by the client packages.
package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/disgoorg/snowflake/v2"
)

// MinTokenLength is the shortest string accepted as a bot token. Real tokens
// are around 70 characters.
const MinTokenLength = 50

var guildIDPattern = regexp.MustCompile(`^[0-9]{17,19}$`)

// Credentials authenticate the session against one guild
type Credentials struct {
	BotToken string
	GuildID  snowflake.ID
}

// NewCredentials validates raw setup input and builds credentials from it.
// Nothing here touches the network.
func NewCredentials(token, guildID string) (Credentials, error) {
	token = strings.TrimSpace(token)
	guildID = strings.TrimSpace(guildID)

	if token == "" || guildID == "" {
		return Credentials{}, &ValidationError{Field: "credentials", Message: "please fill in all fields"}
	}
	if len(token) < MinTokenLength {
		return Credentials{}, &ValidationError{
			Field:   "token",
			Message: fmt.Sprintf("bot token looks too short (expected at least %d characters)", MinTokenLength),
		}
	}
	id, err := ParseGuildID(guildID)
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{BotToken: token, GuildID: id}, nil
}

// ParseGuildID accepts a 17 to 19 digit snowflake
func ParseGuildID(raw string) (snowflake.ID, error) {
	if !guildIDPattern.MatchString(raw) {
		return 0, &ValidationError{Field: "guild_id", Message: "server id must be a 17-19 digit number"}
	}
	id, err := snowflake.Parse(raw)
	if err != nil {
		return 0, &ValidationError{Field: "guild_id", Message: "server id is not a valid snowflake"}
	}
	return id, nil
}

// Valid reports whether both parts are present
func (c Credentials) Valid() bool {
	return c.BotToken != "" && c.GuildID != 0
}

// String masks the token so credentials can appear in logs
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{guild=%s token=%s}", c.GuildID, MaskToken(c.BotToken))
}

// MaskToken keeps the first four characters of a token
func MaskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + strings.Repeat("*", 8)
}
