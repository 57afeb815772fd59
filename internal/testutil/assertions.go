package testutil

import (
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"

	"github.com/parsascontentcorner/discordlite/internal/models"
)

// AssertAscending checks that messages are ordered oldest first.
func AssertAscending(t *testing.T, msgs []models.Message) {
	t.Helper()

	for i := 1; i < len(msgs); i++ {
		assert.Less(t, uint64(msgs[i-1].ID), uint64(msgs[i].ID),
			"message %d (%s) should be older than message %d (%s)", i-1, msgs[i-1].ID, i, msgs[i].ID)
	}
}

// AssertMessageIDs compares message ids in order.
func AssertMessageIDs(t *testing.T, expected []snowflake.ID, msgs []models.Message) {
	t.Helper()

	assert.Equal(t, expected, MessageIDs(msgs), "message ids should match")
}

// MessageIDs extracts the ids of msgs in order.
func MessageIDs(msgs []models.Message) []snowflake.ID {
	out := make([]snowflake.ID, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

// AssertChannelNames compares channel names in order.
func AssertChannelNames(t *testing.T, expected []string, channels []models.Channel) {
	t.Helper()

	actual := make([]string, 0, len(channels))
	for _, ch := range channels {
		actual = append(actual, ch.Name)
	}
	assert.Equal(t, expected, actual, "channel names should match")
}

// AssertTimeAlmostEqual checks if two times are within a specified delta.
// Useful for timestamp comparisons where exact equality isn't expected.
func AssertTimeAlmostEqual(t *testing.T, expected, actual time.Time, delta time.Duration) {
	t.Helper()

	diff := expected.Sub(actual)
	if diff < 0 {
		diff = -diff
	}

	assert.True(t,
		diff <= delta,
		"Times should be within %v of each other. Expected: %v, Actual: %v, Diff: %v",
		delta, expected, actual, diff,
	)
}

// Eventually polls cond until it holds or timeout elapses.
func Eventually(t *testing.T, cond func() bool, timeout time.Duration, msg string) {
	t.Helper()
	assert.Eventually(t, cond, timeout, 5*time.Millisecond, msg)
}
