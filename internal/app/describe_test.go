package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/parsascontentcorner/discordlite/internal/discord"
	"github.com/parsascontentcorner/discordlite/internal/models"
	"github.com/parsascontentcorner/discordlite/internal/session"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{
			name: "validation",
			err:  &models.ValidationError{Field: "token", Message: "bot token looks too short"},
			want: "bot token looks too short",
		},
		{
			name: "unauthorized",
			err:  fmt.Errorf("failed to connect to server: %w", &discord.APIError{Kind: discord.KindUnauthorized, Status: 401}),
			want: "Invalid bot token. Check the token and try again.",
		},
		{
			name: "forbidden",
			err:  &discord.APIError{Kind: discord.KindForbidden, Status: 403, Message: "Missing Access"},
			want: "The bot does not have permission to do that.",
		},
		{
			name: "not found",
			err:  &discord.APIError{Kind: discord.KindNotFound, Status: 404},
			want: "Not found. Check the server ID and that the bot has joined the server.",
		},
		{
			name: "rate limited",
			err:  &discord.APIError{Kind: discord.KindRateLimited, Status: 429, RetryAfter: 1500 * time.Millisecond},
			want: "Rate limited by Discord. Try again in 1.5s.",
		},
		{
			name: "server error",
			err:  &discord.APIError{Kind: discord.KindServerError, Status: 502},
			want: "Discord is having trouble (HTTP 502). Try again later.",
		},
		{
			name: "other upstream with message",
			err:  &discord.APIError{Kind: discord.KindOther, Status: 400, Message: "Invalid Form Body"},
			want: "Discord rejected the request: Invalid Form Body",
		},
		{
			name: "other upstream without message",
			err:  &discord.APIError{Kind: discord.KindOther, Status: 400},
			want: "Discord rejected the request (HTTP 400).",
		},
		{
			name: "network",
			err:  &discord.NetworkError{Route: "GET /users/@me", Hint: "check your internet connection", Err: errors.New("dial tcp: refused")},
			want: "Cannot reach Discord: check your internet connection",
		},
		{name: "cancelled", err: context.Canceled, want: "Request cancelled."},
		{name: "no channel", err: session.ErrNoActiveChannel, want: "Select a channel first."},
		{name: "fallback", err: errors.New("something odd"), want: "something odd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.err))
		})
	}
}
