package models

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/disgoorg/snowflake/v2"
)

// Guild represents a Discord guild (server)
type Guild struct {
	ID   snowflake.ID `json:"id"`
	Name string       `json:"name"`
	Icon *string      `json:"icon"`
}

// Initial returns the upper-cased first letter of the guild name
func (g Guild) Initial() string {
	return initial(g.Name)
}

// User represents a Discord user, either the bot itself or a message author
type User struct {
	ID         snowflake.ID `json:"id"`
	Username   string       `json:"username"`
	GlobalName *string      `json:"global_name"`
	Avatar     *string      `json:"avatar"`
	Bot        bool         `json:"bot"`
}

// DisplayName prefers the global display name over the username
func (u User) DisplayName() string {
	if u.GlobalName != nil && strings.TrimSpace(*u.GlobalName) != "" {
		return *u.GlobalName
	}
	return u.Username
}

// Initial returns the upper-cased first letter of the username
func (u User) Initial() string {
	return initial(u.Username)
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}
