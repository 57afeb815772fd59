// Package session holds the state of the single connected client session:
// credentials, guild, channels, the active channel and its message buffer.
package session

import (
	"errors"
	"sync"

	"github.com/disgoorg/snowflake/v2"

	"github.com/parsascontentcorner/discordlite/internal/models"
)

// ErrStaleTicket is returned when a fetch result belongs to a channel
// activation that is no longer current.
var ErrStaleTicket = errors.New("session: stale ticket")

// ErrNoActiveChannel is returned by operations that need an active channel
var ErrNoActiveChannel = errors.New("session: no active channel")

// Ticket identifies one channel activation. Fetches carry the ticket they
// started under so late results can be recognised and dropped.
type Ticket struct {
	ChannelID snowflake.ID
	Epoch     uint64
}

// Valid reports whether the ticket names a channel
func (t Ticket) Valid() bool {
	return t.ChannelID != 0
}

// State is safe for concurrent use. Accessors return copies.
type State struct {
	mu          sync.RWMutex
	credentials models.Credentials
	guild       *models.Guild
	self        *models.User
	channels    []models.Channel
	active      snowflake.ID
	epoch       uint64
	messages    []models.Message
	// stale marks a buffer that no longer matches what is on screen
	stale bool
}

// New returns an empty, unauthenticated state
func New() *State {
	return &State{}
}

// SetCredentials stores credentials
func (s *State) SetCredentials(creds models.Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = creds
}

// SetGuild stores the guild snapshot
func (s *State) SetGuild(guild models.Guild) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guild = &guild
}

// SetSelf stores the bot identity
func (s *State) SetSelf(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.self = &user
}

// SetChannels replaces the channel list with a fully fetched one
func (s *State) SetChannels(channels []models.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = append([]models.Channel(nil), channels...)
}

// Connect installs a complete connection snapshot at once. Any previous
// activation is invalidated.
func (s *State) Connect(creds models.Credentials, guild models.Guild, self models.User, channels []models.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credentials = creds
	s.guild = &guild
	s.self = &self
	s.channels = append([]models.Channel(nil), channels...)
	s.active = 0
	s.messages = nil
	s.stale = false
	s.epoch++
}

// SetActiveChannel activates a channel, clears the message buffer and
// returns the ticket of the new activation.
func (s *State) SetActiveChannel(channelID snowflake.ID) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.active = channelID
	s.messages = nil
	s.stale = false
	return Ticket{ChannelID: channelID, Epoch: s.epoch}
}

// CurrentTicket returns the ticket of the active channel; ok is false when
// no channel is active.
func (s *State) CurrentTicket() (Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == 0 {
		return Ticket{}, false
	}
	return Ticket{ChannelID: s.active, Epoch: s.epoch}, true
}

// IsCurrent reports whether t is the ticket of the active channel
func (s *State) IsCurrent(t Ticket) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isCurrentLocked(t)
}

func (s *State) isCurrentLocked(t Ticket) bool {
	return t.Valid() && t.ChannelID == s.active && t.Epoch == s.epoch
}

// ReplaceMessages swaps the buffer for an oldest-first page fetched under t.
// With skipUnchanged the swap is skipped when the page's newest id equals the
// buffered newest id. changed reports whether the buffer was replaced.
func (s *State) ReplaceMessages(t Ticket, page []models.Message, skipUnchanged bool) (changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrentLocked(t) {
		return false, ErrStaleTicket
	}

	if skipUnchanged && !s.stale {
		newNewest, newOK := models.NewestID(page)
		oldNewest, oldOK := models.NewestID(s.messages)
		if newOK == oldOK && newNewest == oldNewest {
			return false, nil
		}
	}

	s.messages = append([]models.Message(nil), page...)
	s.stale = false
	return true, nil
}

// Invalidate marks the buffer of the activation t as no longer on screen,
// as after a fetch failure replaced the rendered list. The buffer itself is
// kept; the next ReplaceMessages under t always replaces, even with
// skipUnchanged.
func (s *State) Invalidate(t Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrentLocked(t) {
		return ErrStaleTicket
	}
	s.stale = true
	return nil
}

// Clear resets everything, as on logout
func (s *State) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.credentials = models.Credentials{}
	s.guild = nil
	s.self = nil
	s.channels = nil
	s.active = 0
	s.messages = nil
	s.stale = false
	s.epoch++
}

// Credentials returns the stored credentials
func (s *State) Credentials() models.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credentials
}

// Authenticated reports whether credentials are present
func (s *State) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credentials.Valid()
}

// Guild returns the guild snapshot
func (s *State) Guild() (models.Guild, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.guild == nil {
		return models.Guild{}, false
	}
	return *s.guild, true
}

// Self returns the bot identity
func (s *State) Self() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.self == nil {
		return models.User{}, false
	}
	return *s.self, true
}

// Channels returns a copy of the channel list
func (s *State) Channels() []models.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Channel(nil), s.channels...)
}

// Channel looks up a channel of the list by id
func (s *State) Channel(id snowflake.ID) (models.Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.channels {
		if ch.ID == id {
			return ch, true
		}
	}
	return models.Channel{}, false
}

// ActiveChannel returns the active channel, ok is false in Idle
func (s *State) ActiveChannel() (models.Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == 0 {
		return models.Channel{}, false
	}
	for _, ch := range s.channels {
		if ch.ID == s.active {
			return ch, true
		}
	}
	return models.Channel{ID: s.active}, true
}

// Messages returns a copy of the buffer, oldest first
func (s *State) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message(nil), s.messages...)
}

// Message looks up a buffered message by id
func (s *State) Message(id snowflake.ID) (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		if m.ID == id {
			return m, true
		}
	}
	return models.Message{}, false
}
