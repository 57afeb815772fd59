package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/parsascontentcorner/discordlite/internal/discord"
	"github.com/parsascontentcorner/discordlite/internal/models"
	"github.com/parsascontentcorner/discordlite/internal/session"
)

// Describe turns an error from the controller into text for the user
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var validation *models.ValidationError
	var apiErr *discord.APIError
	var netErr *discord.NetworkError

	switch {
	case errors.As(err, &validation):
		return validation.Message
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	case errors.Is(err, session.ErrNoActiveChannel):
		return "Select a channel first."
	case errors.As(err, &netErr):
		return "Cannot reach Discord: " + netErr.Hint
	case errors.Is(err, discord.ErrUnauthorized):
		return "Invalid bot token. Check the token and try again."
	case errors.Is(err, discord.ErrForbidden):
		return "The bot does not have permission to do that."
	case errors.Is(err, discord.ErrNotFound):
		return "Not found. Check the server ID and that the bot has joined the server."
	case errors.As(err, &apiErr):
		return describeAPIError(apiErr)
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out."
	default:
		return err.Error()
	}
}

func describeAPIError(e *discord.APIError) string {
	switch e.Kind {
	case discord.KindRateLimited:
		if e.RetryAfter > 0 {
			return fmt.Sprintf("Rate limited by Discord. Try again in %.1fs.", e.RetryAfter.Seconds())
		}
		return "Rate limited by Discord. Try again shortly."
	case discord.KindServerError:
		return fmt.Sprintf("Discord is having trouble (HTTP %d). Try again later.", e.Status)
	}
	if e.Message != "" {
		return fmt.Sprintf("Discord rejected the request: %s", e.Message)
	}
	return fmt.Sprintf("Discord rejected the request (HTTP %d).", e.Status)
}
