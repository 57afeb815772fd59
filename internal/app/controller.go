// Package app wires the gateway, session state, synchronizer and poller into
// the operations the user interface invokes.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parsascontentcorner/discordlite/internal/config"
	"github.com/parsascontentcorner/discordlite/internal/discord"
	"github.com/parsascontentcorner/discordlite/internal/models"
	"github.com/parsascontentcorner/discordlite/internal/msgsync"
	"github.com/parsascontentcorner/discordlite/internal/poller"
	"github.com/parsascontentcorner/discordlite/internal/session"
	"github.com/parsascontentcorner/discordlite/internal/store"
)

// Channel field limits enforced by Discord
const (
	MaxChannelName  = 100
	MaxChannelTopic = 1024
)

// ErrClosed is returned by operations after Close
var ErrClosed = errors.New("app: controller closed")

// Gateway is the Discord API surface the controller uses
type Gateway interface {
	msgsync.MessageLister
	GetGuild(ctx context.Context, creds models.Credentials) (*models.Guild, error)
	GetSelf(ctx context.Context, creds models.Credentials) (*models.User, error)
	ListChannels(ctx context.Context, creds models.Credentials) ([]models.Channel, error)
	PostMessage(ctx context.Context, creds models.Credentials, channelID snowflake.ID, content string) (*models.Message, error)
	PatchMessage(ctx context.Context, creds models.Credentials, channelID, messageID snowflake.ID, content string) (*models.Message, error)
	DeleteMessage(ctx context.Context, creds models.Credentials, channelID, messageID snowflake.ID) error
	PatchChannel(ctx context.Context, creds models.Credentials, channelID snowflake.ID, edit models.ChannelEdit) (*models.Channel, error)
	ResetRateLimits()
}

// CredentialStore remembers credentials between runs
type CredentialStore interface {
	Save(ctx context.Context, creds models.Credentials) error
	Load(ctx context.Context) (*store.SavedCredentials, error)
	Clear(ctx context.Context) error
}

// SettingsStore persists settings
type SettingsStore interface {
	Load(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, s models.Settings) error
}

// Controller owns the session. Its methods block on the network and are
// meant to be called off the UI event loop.
type Controller struct {
	gateway     Gateway
	credentials CredentialStore
	settings    SettingsStore
	state       *session.State
	poller      *poller.Poller
	sync        *msgsync.Synchronizer
	logger      *zap.Logger

	// mu serializes channel transitions
	mu           sync.Mutex
	cancelSelect context.CancelFunc
	closed       bool

	presenterMu sync.RWMutex
	view        Presenter

	settingsMu      sync.RWMutex
	currentSettings models.Settings
}

// NewController creates a controller polling at cfg.Polling.Interval
func NewController(cfg *config.Config, gateway Gateway, credentials CredentialStore, settings SettingsStore, logger *zap.Logger) *Controller {
	c := &Controller{
		gateway:         gateway,
		credentials:     credentials,
		settings:        settings,
		state:           session.New(),
		poller:          poller.New(cfg.Polling.Interval, logger),
		logger:          logger,
		view:            NopPresenter{},
		currentSettings: models.DefaultSettings(),
	}
	c.sync = msgsync.New(gateway, c.state, renderer{c: c}, cfg.Polling.MessageLimit, logger)
	return c
}

// SetPresenter installs the presenter; nil restores the no-op one
func (c *Controller) SetPresenter(p Presenter) {
	if p == nil {
		p = NopPresenter{}
	}
	c.presenterMu.Lock()
	defer c.presenterMu.Unlock()
	c.view = p
}

func (c *Controller) presenter() Presenter {
	c.presenterMu.RLock()
	defer c.presenterMu.RUnlock()
	return c.view
}

// State exposes the session state for reading
func (c *Controller) State() *session.State {
	return c.state
}

// Poller exposes the poller for inspection
func (c *Controller) Poller() *poller.Poller {
	return c.poller
}

// ============================================================================
// Connection
// ============================================================================

// Setup validates the entered credentials, connects and selects the first
// text channel. Validation failures return a *models.ValidationError
// without touching the network. Credentials are saved only when remember
// is set and the connection succeeded.
func (c *Controller) Setup(ctx context.Context, token, guildID string, remember bool) error {
	creds, err := models.NewCredentials(token, guildID)
	if err != nil {
		return err
	}

	if err := c.connect(ctx, creds); err != nil {
		return err
	}

	if remember {
		if err := c.credentials.Save(ctx, creds); err != nil {
			c.logger.Warn("failed to save credentials", zap.Error(err))
		}
	} else if err := c.credentials.Clear(ctx); err != nil {
		c.logger.Warn("failed to clear saved credentials", zap.Error(err))
	}

	c.selectFirst(ctx)
	return nil
}

// Resume connects with remembered credentials. ok is false when nothing
// usable was saved. Saved credentials rejected as unauthorized are
// forgotten.
func (c *Controller) Resume(ctx context.Context) (ok bool, err error) {
	saved, err := c.credentials.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load saved credentials: %w", err)
	}

	if err := c.connect(ctx, saved.Credentials); err != nil {
		if errors.Is(err, discord.ErrUnauthorized) {
			c.logger.Info("saved bot token was rejected, discarding it")
			if clearErr := c.credentials.Clear(ctx); clearErr != nil {
				c.logger.Warn("failed to clear saved credentials", zap.Error(clearErr))
			}
		}
		return false, err
	}

	c.selectFirst(ctx)
	return true, nil
}

// SavedCredentials returns what Resume would use
func (c *Controller) SavedCredentials(ctx context.Context) (*store.SavedCredentials, error) {
	return c.credentials.Load(ctx)
}

// connect fetches guild, bot user and channels, committing them only when
// all three succeeded
func (c *Controller) connect(ctx context.Context, creds models.Credentials) error {
	if c.isClosed() {
		return ErrClosed
	}

	log := c.logger.With(zap.String("guild_id", creds.GuildID.String()))

	// 1. Fetch the snapshot
	guild, err := c.gateway.GetGuild(ctx, creds)
	if err != nil {
		log.Warn("failed to fetch guild", zap.Error(err))
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	self, err := c.gateway.GetSelf(ctx, creds)
	if err != nil {
		log.Warn("failed to fetch bot user", zap.Error(err))
		return fmt.Errorf("failed to fetch bot user: %w", err)
	}
	channels, err := c.gateway.ListChannels(ctx, creds)
	if err != nil {
		log.Warn("failed to fetch channels", zap.Error(err))
		return fmt.Errorf("failed to fetch channels: %w", err)
	}

	// 2. Commit it, dropping any previous activation
	c.mu.Lock()
	c.stopLocked()
	c.state.Connect(creds, *guild, *self, channels)
	c.mu.Unlock()

	log.Info("connected to Discord",
		zap.String("session_id", uuid.NewString()),
		zap.String("guild_name", guild.Name),
		zap.String("bot", self.Username),
		zap.Int("channel_count", len(channels)),
	)

	// 3. Publish
	p := c.presenter()
	p.OnConnected(*guild, *self)
	p.OnChannelsChanged(c.state.Channels())
	return nil
}

func (c *Controller) selectFirst(ctx context.Context) {
	channels := c.state.Channels()
	if len(channels) == 0 {
		return
	}
	// A failed first fetch is already shown through OnMessagesError
	_ = c.SelectChannel(ctx, channels[0].ID)
}

// ============================================================================
// Channel selection
// ============================================================================

// SelectChannel makes channelID active: the previous poll handle is stopped,
// one Full sync runs, then background polling starts. Polling starts even if
// the first fetch failed, unless another selection superseded this one.
func (c *Controller) SelectChannel(ctx context.Context, channelID snowflake.ID) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	channel, ok := c.state.Channel(channelID)
	if !ok {
		c.mu.Unlock()
		return &models.ValidationError{Field: "channel", Message: "channel not found in this server"}
	}

	c.stopLocked()
	ticket := c.state.SetActiveChannel(channelID)
	syncCtx, cancel := context.WithCancel(ctx)
	c.cancelSelect = cancel
	c.mu.Unlock()
	defer cancel()

	c.logger.Debug("selected channel",
		zap.String("channel_id", channelID.String()),
		zap.String("channel_name", channel.Name),
	)
	c.presenter().OnChannelSelected(channel)

	_, syncErr := c.sync.Sync(syncCtx, ticket, msgsync.Full)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed && c.state.IsCurrent(ticket) {
		c.poller.Start(ticket, c.poll)
	}
	return syncErr
}

func (c *Controller) poll(ctx context.Context, ticket session.Ticket) {
	// Failures are logged by the synchronizer
	_, _ = c.sync.Sync(ctx, ticket, msgsync.Silent)
}

// stopLocked cancels an in-flight selection fetch and the poll handle.
// Callers hold c.mu.
func (c *Controller) stopLocked() {
	if c.cancelSelect != nil {
		c.cancelSelect()
		c.cancelSelect = nil
	}
	c.poller.Stop()
}

// Refresh runs a Full sync of the active channel
func (c *Controller) Refresh(ctx context.Context) error {
	ticket, ok := c.state.CurrentTicket()
	if !ok {
		return session.ErrNoActiveChannel
	}
	_, err := c.sync.Sync(ctx, ticket, msgsync.Full)
	return err
}

// ============================================================================
// Messages
// ============================================================================

// Send posts content to the active channel. Blank content, or no active
// channel, is a no-op.
func (c *Controller) Send(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if err := models.ValidateContent(content); err != nil {
		return err
	}
	ticket, ok := c.state.CurrentTicket()
	if !ok {
		return nil
	}

	if _, err := c.gateway.PostMessage(ctx, c.state.Credentials(), ticket.ChannelID, content); err != nil {
		c.logger.Warn("failed to send message",
			zap.String("channel_id", ticket.ChannelID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send message: %w", err)
	}

	c.resync(ctx, ticket)
	return nil
}

// Edit replaces the content of a buffered message. Blank content is a no-op.
func (c *Controller) Edit(ctx context.Context, messageID snowflake.ID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if err := models.ValidateContent(content); err != nil {
		return err
	}
	ticket, err := c.ticketFor(messageID)
	if err != nil {
		return err
	}

	if _, err := c.gateway.PatchMessage(ctx, c.state.Credentials(), ticket.ChannelID, messageID, content); err != nil {
		c.logger.Warn("failed to edit message",
			zap.String("channel_id", ticket.ChannelID.String()),
			zap.String("message_id", messageID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to edit message: %w", err)
	}

	c.resync(ctx, ticket)
	return nil
}

// Delete removes a buffered message
func (c *Controller) Delete(ctx context.Context, messageID snowflake.ID) error {
	ticket, err := c.ticketFor(messageID)
	if err != nil {
		return err
	}

	if err := c.gateway.DeleteMessage(ctx, c.state.Credentials(), ticket.ChannelID, messageID); err != nil {
		c.logger.Warn("failed to delete message",
			zap.String("channel_id", ticket.ChannelID.String()),
			zap.String("message_id", messageID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to delete message: %w", err)
	}

	c.resync(ctx, ticket)
	return nil
}

func (c *Controller) ticketFor(messageID snowflake.ID) (session.Ticket, error) {
	ticket, ok := c.state.CurrentTicket()
	if !ok {
		return session.Ticket{}, session.ErrNoActiveChannel
	}
	if _, ok := c.state.Message(messageID); !ok {
		return session.Ticket{}, &models.ValidationError{Field: "message", Message: "message is no longer in this channel"}
	}
	return ticket, nil
}

// resync follows a successful mutation with a Full sync. A failure there is
// rendered by the synchronizer; the mutation itself succeeded.
func (c *Controller) resync(ctx context.Context, ticket session.Ticket) {
	_, _ = c.sync.Sync(ctx, ticket, msgsync.Full)
}

// ============================================================================
// Channel editing
// ============================================================================

// NormalizeChannelName lowercases name and joins whitespace runs with dashes
func NormalizeChannelName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// RenameChannel edits the active channel's name and topic, then re-fetches
// the channel list. Polling is left running.
func (c *Controller) RenameChannel(ctx context.Context, name, topic string) error {
	name = NormalizeChannelName(name)
	if name == "" {
		return &models.ValidationError{Field: "name", Message: "channel name is required"}
	}
	if utf8.RuneCountInString(name) > MaxChannelName {
		return &models.ValidationError{Field: "name", Message: fmt.Sprintf("channel name must be %d characters or fewer", MaxChannelName)}
	}
	topic = strings.TrimSpace(topic)
	if utf8.RuneCountInString(topic) > MaxChannelTopic {
		return &models.ValidationError{Field: "topic", Message: fmt.Sprintf("topic must be %d characters or fewer", MaxChannelTopic)}
	}

	ticket, ok := c.state.CurrentTicket()
	if !ok {
		return session.ErrNoActiveChannel
	}

	edit := models.ChannelEdit{Name: name}
	if topic != "" {
		edit.Topic = &topic
	}

	creds := c.state.Credentials()
	if _, err := c.gateway.PatchChannel(ctx, creds, ticket.ChannelID, edit); err != nil {
		c.logger.Warn("failed to edit channel",
			zap.String("channel_id", ticket.ChannelID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to edit channel: %w", err)
	}

	channels, err := c.gateway.ListChannels(ctx, creds)
	if err != nil {
		// The edit went through; keep the old list rather than a partial one
		c.logger.Warn("failed to refresh channels after edit", zap.Error(err))
		return nil
	}

	c.state.SetChannels(channels)
	p := c.presenter()
	p.OnChannelsChanged(c.state.Channels())
	if ch, ok := c.state.ActiveChannel(); ok && c.state.IsCurrent(ticket) {
		p.OnChannelSelected(ch)
	}
	return nil
}

// ============================================================================
// Settings
// ============================================================================

// LoadSettings reads saved settings; call it before connecting
func (c *Controller) LoadSettings(ctx context.Context) models.Settings {
	s, err := c.settings.Load(ctx)
	if err != nil {
		c.logger.Warn("failed to load settings, using defaults", zap.Error(err))
		s = models.DefaultSettings()
	}

	c.settingsMu.Lock()
	c.currentSettings = s
	c.settingsMu.Unlock()
	return s
}

// Settings returns the current settings
func (c *Controller) Settings() models.Settings {
	c.settingsMu.RLock()
	defer c.settingsMu.RUnlock()
	return c.currentSettings
}

// UpdateSetting applies and persists one change
func (c *Controller) UpdateSetting(ctx context.Context, key, value string) (models.Settings, error) {
	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()

	next, err := c.currentSettings.Set(key, value)
	if err != nil {
		return c.currentSettings, err
	}
	if err := c.settings.Save(ctx, next); err != nil {
		return c.currentSettings, fmt.Errorf("failed to save settings: %w", err)
	}
	c.currentSettings = next
	return next, nil
}

// ============================================================================
// Teardown
// ============================================================================

// Logout stops polling, clears the session, drops the rate limit buckets of
// the old token and forgets saved credentials. Settings are kept.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.stopLocked()
	c.state.Clear()
	c.mu.Unlock()
	c.gateway.ResetRateLimits()

	err := c.credentials.Clear(ctx)
	if err != nil {
		c.logger.Warn("failed to clear saved credentials", zap.Error(err))
		err = fmt.Errorf("failed to clear saved credentials: %w", err)
	}

	c.logger.Info("logged out")
	c.presenter().OnLoggedOut()
	return err
}

// Close stops polling and cancels in-flight selection work. The controller
// cannot be used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.stopLocked()
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
