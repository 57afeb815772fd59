package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Message Tests
// ============================================================================

func TestMessage_UnmarshalDiscordPayload(t *testing.T) {
	payload := `{
		"id": "1200000000000000005",
		"channel_id": "1100000000000000001",
		"author": {"id": "1300000000000000001", "username": "alice", "global_name": "Alice", "avatar": null},
		"content": "hello",
		"timestamp": "2024-03-01T12:30:00.000000+00:00",
		"edited_timestamp": "2024-03-01T12:31:00.000000+00:00",
		"type": 0
	}`

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(payload), &msg))

	assert.Equal(t, snowflake.ID(1200000000000000005), msg.ID)
	assert.Equal(t, "alice", msg.Author.Username)
	assert.Equal(t, "Alice", msg.Author.DisplayName())
	assert.Equal(t, "hello", msg.Content)
	assert.True(t, msg.Edited())
	assert.Equal(t, 12, msg.CreatedAt().Hour())
}

func TestMessage_CreatedAtFallsBackToSnowflake(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := Message{ID: snowflake.New(at)}
	assert.True(t, msg.CreatedAt().Equal(at))
	assert.False(t, msg.Edited())
}

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"short message", "hello", false},
		{"exactly at limit", strings.Repeat("a", MaxContentLength), false},
		{"multibyte at limit", strings.Repeat("é", MaxContentLength), false},
		{"over limit", strings.Repeat("a", MaxContentLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContent(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

// ============================================================================
// Ordering Tests
// ============================================================================

func TestChronological(t *testing.T) {
	newestFirst := []Message{{ID: 3}, {ID: 2}, {ID: 1}}

	got := Chronological(newestFirst)

	assert.Equal(t, []snowflake.ID{1, 2, 3}, ids(got))
	assert.Equal(t, snowflake.ID(3), newestFirst[0].ID, "input must not be reordered")
	assert.Empty(t, Chronological(nil))
}

func TestNewestID(t *testing.T) {
	_, ok := NewestID(nil)
	assert.False(t, ok)

	id, ok := NewestID([]Message{{ID: 1}, {ID: 7}})
	assert.True(t, ok)
	assert.Equal(t, snowflake.ID(7), id)
}

func ids(msgs []Message) []snowflake.ID {
	out := make([]snowflake.ID, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}
