package models

import (
	"sort"

	"github.com/disgoorg/snowflake/v2"
)

// ChannelType represents Discord channel types
type ChannelType int

// Discord channel type constants
const (
	ChannelTypeGuildText          ChannelType = 0
	ChannelTypeDM                 ChannelType = 1
	ChannelTypeGuildVoice         ChannelType = 2
	ChannelTypeGroupDM            ChannelType = 3
	ChannelTypeGuildCategory      ChannelType = 4
	ChannelTypeGuildNews          ChannelType = 5
	ChannelTypeGuildNewsThread    ChannelType = 10
	ChannelTypeGuildPublicThread  ChannelType = 11
	ChannelTypeGuildPrivateThread ChannelType = 12
	ChannelTypeGuildStageVoice    ChannelType = 13
	ChannelTypeGuildForum         ChannelType = 15
)

// Channel represents a Discord guild channel
type Channel struct {
	ID            snowflake.ID  `json:"id"`
	GuildID       snowflake.ID  `json:"guild_id"`
	Type          ChannelType   `json:"type"`
	Name          string        `json:"name"`
	Position      int           `json:"position"`
	Topic         *string       `json:"topic"`
	NSFW          bool          `json:"nsfw"`
	LastMessageID *snowflake.ID `json:"last_message_id"`
}

// IsText reports whether the channel is a plain guild text channel
func (c Channel) IsText() bool {
	return c.Type == ChannelTypeGuildText
}

// TopicText returns the topic or an empty string
func (c Channel) TopicText() string {
	if c.Topic == nil {
		return ""
	}
	return *c.Topic
}

// TextChannels keeps only text channels, ordered by ascending position.
// Equal positions fall back to id order so the result is deterministic.
func TextChannels(channels []Channel) []Channel {
	text := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.IsText() {
			text = append(text, ch)
		}
	}
	sort.SliceStable(text, func(i, j int) bool {
		if text[i].Position != text[j].Position {
			return text[i].Position < text[j].Position
		}
		return text[i].ID < text[j].ID
	})
	return text
}

// ChannelEdit is the body of a channel modification
type ChannelEdit struct {
	Name  string  `json:"name"`
	Topic *string `json:"topic"`
}
