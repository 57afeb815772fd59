// Package discord is a thin client for the Discord REST endpoints used by
// discordlite. It injects the bot token, paces requests and classifies
// failures; it holds no session state.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/parsascontentcorner/discordlite/internal/config"
	"github.com/parsascontentcorner/discordlite/internal/models"
	"github.com/parsascontentcorner/discordlite/internal/ratelimit"
)

// botTokenType makes oauth2 emit "Authorization: Bot <token>"
const botTokenType = "Bot"

// Client talks to the Discord HTTP API
type Client struct {
	baseURL     string
	userAgent   string
	base        http.RoundTripper
	rateLimiter *ratelimit.RateLimiter
	logger      *zap.Logger
}

// NewClient creates a Discord client from configuration
func NewClient(cfg *config.Config, rateLimiter *ratelimit.RateLimiter, logger *zap.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.Discord.APIBaseURL, "/"),
		userAgent:   cfg.Discord.UserAgent,
		base:        http.DefaultTransport,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// SetBaseURL sets the base URL for the Discord API (used for testing)
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// SetTransport replaces the underlying round tripper (used for testing)
func (c *Client) SetTransport(rt http.RoundTripper) {
	c.base = rt
}

// ResetRateLimits forgets every route bucket. Buckets belong to a token, so
// they are dropped when the session ends.
func (c *Client) ResetRateLimits() {
	if c.rateLimiter != nil {
		c.rateLimiter.Reset()
	}
}

// httpClient returns a client whose transport authenticates as the bot
func (c *Client) httpClient(creds models.Credentials) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: creds.BotToken,
				TokenType:   botTokenType,
			}),
			Base: c.base,
		},
	}
}

// GetGuild fetches the configured guild
func (c *Client) GetGuild(ctx context.Context, creds models.Credentials) (*models.Guild, error) {
	var guild models.Guild
	if err := c.do(ctx, creds, http.MethodGet, "/guilds/"+creds.GuildID.String(), nil, nil, &guild); err != nil {
		return nil, err
	}

	c.logger.Debug("fetched guild from Discord",
		zap.String("guild_id", guild.ID.String()),
		zap.String("guild_name", guild.Name),
	)
	return &guild, nil
}

// GetSelf fetches the bot user the token belongs to
func (c *Client) GetSelf(ctx context.Context, creds models.Credentials) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, creds, http.MethodGet, "/users/@me", nil, nil, &user); err != nil {
		return nil, err
	}

	c.logger.Debug("fetched bot user from Discord",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)
	return &user, nil
}

// ListChannels fetches the guild's channels, keeping text channels ordered
// by position
func (c *Client) ListChannels(ctx context.Context, creds models.Credentials) ([]models.Channel, error) {
	var channels []models.Channel
	path := "/guilds/" + creds.GuildID.String() + "/channels"
	if err := c.do(ctx, creds, http.MethodGet, path, nil, nil, &channels); err != nil {
		return nil, err
	}

	text := models.TextChannels(channels)
	c.logger.Debug("fetched guild channels from Discord",
		zap.String("guild_id", creds.GuildID.String()),
		zap.Int("channel_count", len(channels)),
		zap.Int("text_channel_count", len(text)),
	)
	return text, nil
}

// ListMessages fetches the most recent messages of a channel, oldest first.
// limit is clamped to 1..50; zero means 50.
func (c *Client) ListMessages(ctx context.Context, creds models.Credentials, channelID snowflake.ID, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > config.MaxMessageLimit {
		limit = config.MaxMessageLimit
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var page []models.Message
	path := "/channels/" + channelID.String() + "/messages"
	if err := c.do(ctx, creds, http.MethodGet, path, params, nil, &page); err != nil {
		return nil, err
	}

	c.logger.Debug("fetched channel messages from Discord",
		zap.String("channel_id", channelID.String()),
		zap.Int("message_count", len(page)),
	)
	return models.Chronological(page), nil
}

// PostMessage creates a message in a channel
func (c *Client) PostMessage(ctx context.Context, creds models.Credentials, channelID snowflake.ID, content string) (*models.Message, error) {
	var msg models.Message
	path := "/channels/" + channelID.String() + "/messages"
	if err := c.do(ctx, creds, http.MethodPost, path, nil, models.MessageCreate{Content: content}, &msg); err != nil {
		return nil, err
	}

	c.logger.Debug("posted message to Discord",
		zap.String("channel_id", channelID.String()),
		zap.String("message_id", msg.ID.String()),
	)
	return &msg, nil
}

// PatchMessage replaces the content of a message
func (c *Client) PatchMessage(ctx context.Context, creds models.Credentials, channelID, messageID snowflake.ID, content string) (*models.Message, error) {
	var msg models.Message
	path := "/channels/" + channelID.String() + "/messages/" + messageID.String()
	if err := c.do(ctx, creds, http.MethodPatch, path, nil, models.MessageCreate{Content: content}, &msg); err != nil {
		return nil, err
	}

	c.logger.Debug("edited message on Discord",
		zap.String("channel_id", channelID.String()),
		zap.String("message_id", messageID.String()),
	)
	return &msg, nil
}

// DeleteMessage deletes a message
func (c *Client) DeleteMessage(ctx context.Context, creds models.Credentials, channelID, messageID snowflake.ID) error {
	path := "/channels/" + channelID.String() + "/messages/" + messageID.String()
	if err := c.do(ctx, creds, http.MethodDelete, path, nil, nil, nil); err != nil {
		return err
	}

	c.logger.Debug("deleted message on Discord",
		zap.String("channel_id", channelID.String()),
		zap.String("message_id", messageID.String()),
	)
	return nil
}

// PatchChannel renames a channel and sets its topic
func (c *Client) PatchChannel(ctx context.Context, creds models.Credentials, channelID snowflake.ID, edit models.ChannelEdit) (*models.Channel, error) {
	var ch models.Channel
	if err := c.do(ctx, creds, http.MethodPatch, "/channels/"+channelID.String(), nil, edit, &ch); err != nil {
		return nil, err
	}

	c.logger.Debug("edited channel on Discord",
		zap.String("channel_id", channelID.String()),
		zap.String("name", ch.Name),
	)
	return &ch, nil
}

// do performs one paced request. A 2xx body is decoded into out when out is
// non-nil; anything else becomes an *APIError or *NetworkError.
func (c *Client) do(ctx context.Context, creds models.Credentials, method, path string, query url.Values, body, out any) error {
	route := method + " " + path

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx, route); err != nil {
			return fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient(creds).Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return newNetworkError(route, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if c.rateLimiter != nil {
		c.rateLimiter.UpdateFromHeaders(route, resp.Header)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp, route)
		if apiErr.Kind == KindRateLimited && c.rateLimiter != nil {
			c.rateLimiter.Observe429(route, apiErr.RetryAfter)
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", route, err)
	}
	return nil
}
