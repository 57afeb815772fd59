package models

import (
	"time"
	"unicode/utf8"

	"github.com/disgoorg/snowflake/v2"
)

// MessageType represents Discord message types
type MessageType int

// Discord message type constants
const (
	MessageTypeDefault              MessageType = 0
	MessageTypeChannelNameChange    MessageType = 4
	MessageTypeChannelPinnedMessage MessageType = 6
	MessageTypeGuildMemberJoin      MessageType = 7
	MessageTypeThreadCreated        MessageType = 18
	MessageTypeReply                MessageType = 19
	MessageTypeChatInputCommand     MessageType = 20
)

// MaxContentLength is Discord's limit for message content in runes
const MaxContentLength = 2000

// Message represents a Discord message
type Message struct {
	ID              snowflake.ID `json:"id"`
	ChannelID       snowflake.ID `json:"channel_id"`
	Author          User         `json:"author"`
	Content         string       `json:"content"`
	Timestamp       time.Time    `json:"timestamp"`
	EditedTimestamp *time.Time   `json:"edited_timestamp"`
	Type            MessageType  `json:"type"`
}

// Edited reports whether the message has been edited
func (m Message) Edited() bool {
	return m.EditedTimestamp != nil
}

// CreatedAt returns the message timestamp, falling back to the time encoded
// in the snowflake when the payload carried none.
func (m Message) CreatedAt() time.Time {
	if !m.Timestamp.IsZero() {
		return m.Timestamp
	}
	return m.ID.Time()
}

// MessageCreate is the body for creating or editing a message
type MessageCreate struct {
	Content string `json:"content"`
}

// ValidateContent checks content that is about to be sent. Callers trim it
// first; empty content never reaches here.
func ValidateContent(content string) error {
	if utf8.RuneCountInString(content) > MaxContentLength {
		return &ValidationError{Field: "content", Message: "message must be 2000 characters or fewer"}
	}
	return nil
}

// Chronological returns a copy of a newest-first page in oldest-first order
func Chronological(page []Message) []Message {
	out := make([]Message, len(page))
	for i, msg := range page {
		out[len(page)-1-i] = msg
	}
	return out
}

// NewestID returns the id of the last message of an oldest-first buffer
func NewestID(buffer []Message) (snowflake.ID, bool) {
	if len(buffer) == 0 {
		return 0, false
	}
	return buffer[len(buffer)-1].ID, true
}
