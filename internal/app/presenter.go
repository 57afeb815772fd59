package app

import (
	"github.com/disgoorg/snowflake/v2"

	"github.com/parsascontentcorner/discordlite/internal/models"
	"github.com/parsascontentcorner/discordlite/internal/msgsync"
)

// Presenter is notified of state changes. Calls may arrive from any
// goroutine and must not block on the controller.
type Presenter interface {
	OnConnected(guild models.Guild, self models.User)
	OnChannelsChanged(channels []models.Channel)
	OnChannelSelected(channel models.Channel)
	OnMessagesChanged(frame msgsync.Frame)
	OnMessagesError(channelID snowflake.ID, err error)
	OnLoggedOut()
}

// NopPresenter ignores every notification
type NopPresenter struct{}

func (NopPresenter) OnConnected(models.Guild, models.User) {}
func (NopPresenter) OnChannelsChanged([]models.Channel) {}
func (NopPresenter) OnChannelSelected(models.Channel) {}
func (NopPresenter) OnMessagesChanged(msgsync.Frame) {}
func (NopPresenter) OnMessagesError(snowflake.ID, error) {}
func (NopPresenter) OnLoggedOut() {}

// renderer forwards synchronizer output to the current presenter
type renderer struct {
	c *Controller
}

func (r renderer) RenderMessages(frame msgsync.Frame) {
	r.c.presenter().OnMessagesChanged(frame)
}

func (r renderer) RenderMessagesError(channelID snowflake.ID, err error) {
	r.c.presenter().OnMessagesError(channelID, err)
}
