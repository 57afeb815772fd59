package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/disgoorg/snowflake/v2"

	"github.com/parsascontentcorner/discordlite/internal/models"
	"github.com/parsascontentcorner/discordlite/internal/msgsync"
)

// Messages delivered from the controller through Bridge
type (
	connectedMsg struct {
		guild models.Guild
		self  models.User
	}
	channelsMsg        struct{ channels []models.Channel }
	channelSelectedMsg struct{ channel models.Channel }
	frameMsg           struct{ frame msgsync.Frame }
	messagesErrorMsg   struct {
		channelID snowflake.ID
		err       error
	}
	loggedOutMsg struct{}
)

// Sender is satisfied by *tea.Program
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge is the controller's presenter. It turns every notification into a
// tea.Msg so the model only changes on the program's event loop.
type Bridge struct {
	sender Sender
}

// NewBridge creates a presenter sending to s
func NewBridge(s Sender) *Bridge {
	return &Bridge{sender: s}
}

func (b *Bridge) OnConnected(guild models.Guild, self models.User) {
	b.sender.Send(connectedMsg{guild: guild, self: self})
}

func (b *Bridge) OnChannelsChanged(channels []models.Channel) {
	b.sender.Send(channelsMsg{channels: channels})
}

func (b *Bridge) OnChannelSelected(channel models.Channel) {
	b.sender.Send(channelSelectedMsg{channel: channel})
}

func (b *Bridge) OnMessagesChanged(frame msgsync.Frame) {
	b.sender.Send(frameMsg{frame: frame})
}

func (b *Bridge) OnMessagesError(channelID snowflake.ID, err error) {
	b.sender.Send(messagesErrorMsg{channelID: channelID, err: err})
}

func (b *Bridge) OnLoggedOut() {
	b.sender.Send(loggedOutMsg{})
}
