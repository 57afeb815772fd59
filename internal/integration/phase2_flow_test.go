package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parsascontentcorner/discordlite/internal/testutil"
)

// ============================================================================
// Phase 2 Integration Tests - Full Flow
// ============================================================================

func connectedSuite(t *testing.T) *testSuite {
	t.Helper()
	ts := setupTestSuite(t)
	require.NoError(t, ts.ctrl.Setup(context.Background(), testutil.TestBotToken, testutil.TestGuildID, true))
	return ts
}

func TestPhase2_MessageLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	ts := connectedSuite(t)
	require.True(t, ts.screen.isEmpty(), "new channel shows the empty placeholder")

	// Send
	require.NoError(t, ts.ctrl.Send(ctx, "first draft"))
	assert.Equal(t, []string{"first draft"}, ts.screen.contents())
	sent := ts.mock.Messages(testutil.GeneralChannelID)
	require.Len(t, sent, 1)
	assert.Equal(t, testutil.BotUserID, sent[0].Author.ID)

	// Edit
	require.NoError(t, ts.ctrl.Edit(ctx, sent[0].ID, "final wording"))
	assert.Equal(t, []string{"final wording"}, ts.screen.contents())
	edited := ts.ctrl.State().Messages()
	require.Len(t, edited, 1)
	assert.True(t, edited[0].Edited())

	// Delete
	require.NoError(t, ts.ctrl.Delete(ctx, sent[0].ID))
	assert.True(t, ts.screen.isEmpty())
	assert.Empty(t, ts.mock.Messages(testutil.GeneralChannelID))
}

func TestPhase2_PollingPicksUpOtherAuthors(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := connectedSuite(t)
	before := ts.screen.frameCount()

	ts.mock.AddMessage(testutil.GeneralChannelID, testutil.GenerateUser("bob"), "anyone around?")

	testutil.Eventually(t, func() bool { return ts.screen.shows("anyone around?") },
		2*time.Second, "poll should render the new message")

	// Unchanged polls do not re-render
	frames := ts.screen.frameCount()
	assert.Greater(t, frames, before)
	time.Sleep(5 * ts.cfg.Polling.Interval)
	assert.Equal(t, frames, ts.screen.frameCount())
	assert.Equal(t, 1, ts.ctrl.Poller().Alive())
}

func TestPhase2_SwitchingChannelsKeepsOnePoller(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	ts := connectedSuite(t)
	ts.mock.SeedMessages(testutil.RandomChannelID, 3)

	for i := 0; i < 5; i++ {
		require.NoError(t, ts.ctrl.SelectChannel(ctx, testutil.ArchiveChannelID))
		require.NoError(t, ts.ctrl.SelectChannel(ctx, testutil.RandomChannelID))
	}

	assert.Equal(t, 1, ts.ctrl.Poller().Alive())
	_, ticket, ok := ts.ctrl.Poller().Current()
	require.True(t, ok)
	assert.Equal(t, testutil.RandomChannelID, ticket.ChannelID)
	assert.Len(t, ts.screen.contents(), 3)

	// Only random is polled from here on
	ts.mock.AddMessage(testutil.ArchiveChannelID, testutil.GenerateUser("bob"), "in archive")
	time.Sleep(5 * ts.cfg.Polling.Interval)
	assert.Len(t, ts.screen.contents(), 3)
	testutil.AssertMessageIDs(t, testutil.MessageIDs(ts.mock.Messages(testutil.RandomChannelID)), ts.ctrl.State().Messages())
}

func TestPhase2_ShowsLatestFiftyOldestFirst(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	ts := connectedSuite(t)
	seeded := ts.mock.SeedMessages(testutil.RandomChannelID, 60)

	require.NoError(t, ts.ctrl.SelectChannel(ctx, testutil.RandomChannelID))

	shown := ts.ctrl.State().Messages()
	require.Len(t, shown, 50)
	testutil.AssertAscending(t, shown)
	assert.Equal(t, seeded[10].ID, shown[0].ID)
	assert.Equal(t, seeded[59].ID, shown[49].ID)
}

func TestPhase2_RenameChannel(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	ts := connectedSuite(t)

	require.NoError(t, ts.ctrl.RenameChannel(ctx, "Team Chat", "Planning and standups"))

	ch, ok := ts.mock.Channel(testutil.GeneralChannelID)
	require.True(t, ok)
	assert.Equal(t, "team-chat", ch.Name)
	assert.Equal(t, "Planning and standups", ch.TopicText())
	assert.Equal(t, "team-chat", ts.screen.activeChannel().Name)
	assert.Contains(t, ts.screen.channelNames(), "team-chat")
}

func TestPhase2_FetchFailureRecoversOnNextPoll(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	ts := connectedSuite(t)
	ts.mock.AddMessage(testutil.RandomChannelID, testutil.GenerateUser("bob"), "still here")
	ts.mock.Fail(testutil.OpListMessages, testutil.Failure{Status: http.StatusInternalServerError, Message: "oops", Once: true})

	err := ts.ctrl.SelectChannel(ctx, testutil.RandomChannelID)
	require.Error(t, err)

	testutil.Eventually(t, func() bool { return ts.screen.shows("still here") },
		2*time.Second, "the next poll should recover")
}

func TestPhase2_ResumeIntoPolling(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	ts := connectedSuite(t)
	ts.reopen()

	ok, err := ts.ctrl.Resume(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ts.mock.AddMessage(testutil.GeneralChannelID, testutil.GenerateUser("alice"), "welcome back")
	testutil.Eventually(t, func() bool { return ts.screen.shows("welcome back") },
		2*time.Second, "resumed session should poll")
	assert.Equal(t, 1, ts.ctrl.Poller().Alive())
}
