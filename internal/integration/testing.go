package integration

import (
	"sync"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parsascontentcorner/discordlite/internal/app"
	"github.com/parsascontentcorner/discordlite/internal/config"
	"github.com/parsascontentcorner/discordlite/internal/discord"
	"github.com/parsascontentcorner/discordlite/internal/models"
	"github.com/parsascontentcorner/discordlite/internal/msgsync"
	"github.com/parsascontentcorner/discordlite/internal/ratelimit"
	"github.com/parsascontentcorner/discordlite/internal/store"
	"github.com/parsascontentcorner/discordlite/internal/testutil"
)

// testSuite wires the real client, stores and controller against the mock
// Discord API. The data directory outlives individual controllers so a
// restart can be simulated with reopen.
type testSuite struct {
	t      *testing.T
	mock   *testutil.MockDiscordServer
	cfg    *config.Config
	kv     *store.Store
	ctrl   *app.Controller
	screen *screen
}

func setupTestSuite(t *testing.T) *testSuite {
	t.Helper()

	mock := testutil.NewMockDiscordServer()
	cfg := testutil.GenerateTestConfig(t.TempDir(), mock.BaseURL())
	// Generate the key file like a first run does
	cfg.Security.TokenEncryptionKey = nil

	ts := &testSuite{t: t, mock: mock, cfg: cfg}
	ts.open()
	t.Cleanup(ts.cleanup)
	return ts
}

// open builds a fresh controller over the data directory
func (ts *testSuite) open() {
	ts.t.Helper()
	logger := zap.NewNop()

	key, err := store.LoadOrCreateKey(ts.cfg.Storage.KeyPath())
	require.NoError(ts.t, err)
	cipher, err := store.NewCipher(key)
	require.NoError(ts.t, err)

	kv, err := store.Open(ts.cfg.Storage.DatabasePath(), logger)
	require.NoError(ts.t, err)

	client := discord.NewClient(ts.cfg, ratelimit.NewRateLimiter(ts.cfg.Discord.RateLimitPerSecond, logger), logger)
	ctrl := app.NewController(ts.cfg, client,
		store.NewCredentialStore(kv, cipher, ts.cfg.Storage.CredentialTTL(), logger),
		store.NewSettingsStore(kv, logger),
		logger,
	)
	ts.screen = &screen{}
	ctrl.SetPresenter(ts.screen)

	ts.kv = kv
	ts.ctrl = ctrl
}

// reopen simulates quitting and starting the application again
func (ts *testSuite) reopen() {
	ts.t.Helper()
	ts.closeController()
	ts.open()
}

func (ts *testSuite) closeController() {
	if ts.ctrl != nil {
		ts.ctrl.Close()
		ts.ctrl = nil
	}
	if ts.kv != nil {
		_ = ts.kv.Close()
		ts.kv = nil
	}
}

func (ts *testSuite) cleanup() {
	ts.closeController()
	ts.mock.Close()
}

// screen is a presenter that keeps what a user would currently see
type screen struct {
	mu        sync.Mutex
	connected bool
	guild     models.Guild
	channels  []models.Channel
	active    models.Channel
	frame     *msgsync.Frame
	lastErr   error
	frames    int
}

func (s *screen) OnConnected(guild models.Guild, _ models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	s.guild = guild
}

func (s *screen) OnChannelsChanged(channels []models.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = channels
}

func (s *screen) OnChannelSelected(channel models.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = channel
	s.frame = nil
	s.lastErr = nil
}

func (s *screen) OnMessagesChanged(frame msgsync.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if frame.ChannelID != s.active.ID {
		return
	}
	s.frame = &frame
	s.lastErr = nil
	s.frames++
}

func (s *screen) OnMessagesError(channelID snowflake.ID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channelID == s.active.ID {
		s.lastErr = err
	}
}

func (s *screen) OnLoggedOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.channels = nil
	s.active = models.Channel{}
	s.frame = nil
}

// contents returns the rendered message contents, oldest first
func (s *screen) contents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil
	}
	out := make([]string, 0, len(s.frame.Messages))
	for _, m := range s.frame.Messages {
		out = append(out, m.Content)
	}
	return out
}

func (s *screen) shows(content string) bool {
	for _, c := range s.contents() {
		if c == content {
			return true
		}
	}
	return false
}

func (s *screen) isEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame != nil && s.frame.Empty()
}

func (s *screen) activeChannel() models.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *screen) channelNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.channels))
	for _, ch := range s.channels {
		names = append(names, ch.Name)
	}
	return names
}

func (s *screen) isConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *screen) frameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
