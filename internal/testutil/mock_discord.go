package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/parsascontentcorner/discordlite/internal/models"
)

// Operation names used for call counters and failure injection
const (
	OpGetGuild      = "GetGuild"
	OpGetSelf       = "GetSelf"
	OpListChannels  = "ListChannels"
	OpListMessages  = "ListMessages"
	OpPostMessage   = "PostMessage"
	OpPatchMessage  = "PatchMessage"
	OpDeleteMessage = "DeleteMessage"
	OpPatchChannel  = "PatchChannel"
)

// DiscordErrorResponse is Discord's JSON error payload
type DiscordErrorResponse struct {
	Code       int     `json:"code"`
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after,omitempty"`
	Global     bool    `json:"global,omitempty"`
}

// Failure is an injected error response
type Failure struct {
	Status     int
	Code       int
	Message    string
	RetryAfter time.Duration
	Once       bool
}

// MockDiscordServer is an in-memory Discord REST API for tests. It keeps
// one guild with channels and messages and checks the bot authorization
// header on every request.
type MockDiscordServer struct {
	Server   *httptest.Server
	BotToken string
	Guild    models.Guild
	Self     models.User

	mu        sync.Mutex
	channels  []models.Channel
	messages  map[snowflake.ID][]models.Message // oldest first
	calls     map[string]int
	failures  map[string]Failure
	delays    map[string]time.Duration
	nextID    snowflake.ID
	lastAgent string
	lastBody  map[string][]byte
}

// NewMockDiscordServer creates a mock server seeded with the test guild,
// the bot user and GenerateChannels. Messages start empty.
func NewMockDiscordServer() *MockDiscordServer {
	mds := &MockDiscordServer{
		BotToken: TestBotToken,
		Guild:    GenerateGuild(),
		Self:     GenerateBotUser(),
		channels: GenerateChannels(),
		messages: make(map[snowflake.ID][]models.Message),
		calls:    make(map[string]int),
		failures: make(map[string]Failure),
		delays:   make(map[string]time.Duration),
		nextID:   snowflake.ID(1200000000000000000),
		lastBody: make(map[string][]byte),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v10/guilds/{guild_id}", mds.handle(OpGetGuild, mds.getGuild))
	mux.HandleFunc("GET /api/v10/guilds/{guild_id}/channels", mds.handle(OpListChannels, mds.listChannels))
	mux.HandleFunc("GET /api/v10/users/@me", mds.handle(OpGetSelf, mds.getSelf))
	mux.HandleFunc("GET /api/v10/channels/{channel_id}/messages", mds.handle(OpListMessages, mds.listMessages))
	mux.HandleFunc("POST /api/v10/channels/{channel_id}/messages", mds.handle(OpPostMessage, mds.postMessage))
	mux.HandleFunc("PATCH /api/v10/channels/{channel_id}/messages/{message_id}", mds.handle(OpPatchMessage, mds.patchMessage))
	mux.HandleFunc("DELETE /api/v10/channels/{channel_id}/messages/{message_id}", mds.handle(OpDeleteMessage, mds.deleteMessage))
	mux.HandleFunc("PATCH /api/v10/channels/{channel_id}", mds.handle(OpPatchChannel, mds.patchChannel))

	mds.Server = httptest.NewServer(mux)
	return mds
}

// Close closes the mock server.
func (mds *MockDiscordServer) Close() {
	if mds.Server != nil {
		mds.Server.Close()
	}
}

// BaseURL returns the API base URL to configure the client with.
func (mds *MockDiscordServer) BaseURL() string {
	return mds.Server.URL + "/api/v10"
}

// Calls returns how often an operation was served, including failures.
func (mds *MockDiscordServer) Calls(op string) int {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	return mds.calls[op]
}

// TotalCalls returns the number of requests served.
func (mds *MockDiscordServer) TotalCalls() int {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	total := 0
	for _, n := range mds.calls {
		total += n
	}
	return total
}

// ResetCallCounts resets the call counters.
func (mds *MockDiscordServer) ResetCallCounts() {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	mds.calls = make(map[string]int)
}

// Fail makes op respond with f until ClearFailures, or once if f.Once.
func (mds *MockDiscordServer) Fail(op string, f Failure) {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	mds.failures[op] = f
}

// ClearFailures removes all injected failures.
func (mds *MockDiscordServer) ClearFailures() {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	mds.failures = make(map[string]Failure)
}

// Delay makes op sleep before responding.
func (mds *MockDiscordServer) Delay(op string, d time.Duration) {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	mds.delays[op] = d
}

// LastUserAgent returns the User-Agent of the latest request.
func (mds *MockDiscordServer) LastUserAgent() string {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	return mds.lastAgent
}

// LastBody returns the raw request body last received by op.
func (mds *MockDiscordServer) LastBody(op string) []byte {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	return mds.lastBody[op]
}

// SetChannels replaces the guild's channels.
func (mds *MockDiscordServer) SetChannels(channels []models.Channel) {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	mds.channels = append([]models.Channel(nil), channels...)
}

// AddMessage appends a message by author to a channel and returns it.
func (mds *MockDiscordServer) AddMessage(channelID snowflake.ID, author models.User, content string) models.Message {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	return mds.addMessageLocked(channelID, author, content)
}

// SeedMessages adds n messages from GenerateUser to a channel.
func (mds *MockDiscordServer) SeedMessages(channelID snowflake.ID, n int) []models.Message {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	author := GenerateUser("alice")
	out := make([]models.Message, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, mds.addMessageLocked(channelID, author, "message "+strconv.Itoa(i+1)))
	}
	return out
}

// Messages returns a channel's messages, oldest first.
func (mds *MockDiscordServer) Messages(channelID snowflake.ID) []models.Message {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	return append([]models.Message(nil), mds.messages[channelID]...)
}

// Channel returns a channel by id.
func (mds *MockDiscordServer) Channel(channelID snowflake.ID) (models.Channel, bool) {
	mds.mu.Lock()
	defer mds.mu.Unlock()
	for _, ch := range mds.channels {
		if ch.ID == channelID {
			return ch, true
		}
	}
	return models.Channel{}, false
}

func (mds *MockDiscordServer) addMessageLocked(channelID snowflake.ID, author models.User, content string) models.Message {
	mds.nextID++
	msg := models.Message{
		ID:        mds.nextID,
		ChannelID: channelID,
		Author:    author,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Type:      models.MessageTypeDefault,
	}
	mds.messages[channelID] = append(mds.messages[channelID], msg)
	return msg
}

// handle wraps an endpoint with auth checking, counters, delays and
// injected failures.
func (mds *MockDiscordServer) handle(op string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mds.mu.Lock()
		mds.calls[op]++
		mds.lastAgent = r.UserAgent()
		failure, failing := mds.failures[op]
		if failing && failure.Once {
			delete(mds.failures, op)
		}
		delay := mds.delays[op]
		mds.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		if r.Header.Get("Authorization") != "Bot "+mds.BotToken {
			writeError(w, http.StatusUnauthorized, DiscordErrorResponse{Code: 0, Message: "401: Unauthorized"})
			return
		}

		if failing {
			resp := DiscordErrorResponse{Code: failure.Code, Message: failure.Message}
			if failure.Status == http.StatusTooManyRequests {
				retry := failure.RetryAfter
				if retry == 0 {
					retry = time.Second
				}
				resp.RetryAfter = retry.Seconds()
				w.Header().Set("Retry-After", strconv.FormatFloat(retry.Seconds(), 'f', -1, 64))
				w.Header().Set("X-RateLimit-Limit", "5")
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset-After", strconv.FormatFloat(retry.Seconds(), 'f', 3, 64))
			}
			writeError(w, failure.Status, resp)
			return
		}

		w.Header().Set("X-RateLimit-Limit", "50")
		w.Header().Set("X-RateLimit-Remaining", "49")
		w.Header().Set("X-RateLimit-Reset-After", "1.000")
		next(w, r)
	}
}

func (mds *MockDiscordServer) getGuild(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("guild_id") != mds.Guild.ID.String() {
		writeError(w, http.StatusNotFound, DiscordErrorResponse{Code: 10004, Message: "Unknown Guild"})
		return
	}
	writeJSON(w, http.StatusOK, mds.Guild)
}

func (mds *MockDiscordServer) getSelf(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, mds.Self)
}

func (mds *MockDiscordServer) listChannels(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("guild_id") != mds.Guild.ID.String() {
		writeError(w, http.StatusNotFound, DiscordErrorResponse{Code: 10004, Message: "Unknown Guild"})
		return
	}
	mds.mu.Lock()
	channels := append([]models.Channel(nil), mds.channels...)
	mds.mu.Unlock()
	writeJSON(w, http.StatusOK, channels)
}

func (mds *MockDiscordServer) listMessages(w http.ResponseWriter, r *http.Request) {
	mds.mu.Lock()
	defer mds.mu.Unlock()

	channelID, ok := mds.channelLocked(r.PathValue("channel_id"))
	if !ok {
		writeError(w, http.StatusNotFound, DiscordErrorResponse{Code: 10003, Message: "Unknown Channel"})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, DiscordErrorResponse{Code: 50035, Message: "Invalid Form Body"})
			return
		}
		limit = n
	}

	stored := mds.messages[channelID]
	page := make([]models.Message, 0, limit)
	for i := len(stored) - 1; i >= 0 && len(page) < limit; i-- {
		page = append(page, stored[i])
	}
	writeJSON(w, http.StatusOK, page)
}

func (mds *MockDiscordServer) postMessage(w http.ResponseWriter, r *http.Request) {
	body, ok := mds.readContent(w, r, OpPostMessage)
	if !ok {
		return
	}

	mds.mu.Lock()
	defer mds.mu.Unlock()

	channelID, ok := mds.channelLocked(r.PathValue("channel_id"))
	if !ok {
		writeError(w, http.StatusNotFound, DiscordErrorResponse{Code: 10003, Message: "Unknown Channel"})
		return
	}
	msg := mds.addMessageLocked(channelID, mds.Self, body.Content)
	writeJSON(w, http.StatusOK, msg)
}

func (mds *MockDiscordServer) patchMessage(w http.ResponseWriter, r *http.Request) {
	body, ok := mds.readContent(w, r, OpPatchMessage)
	if !ok {
		return
	}

	mds.mu.Lock()
	defer mds.mu.Unlock()

	msg, ok := mds.messageLocked(r.PathValue("channel_id"), r.PathValue("message_id"))
	if !ok {
		writeError(w, http.StatusNotFound, DiscordErrorResponse{Code: 10008, Message: "Unknown Message"})
		return
	}
	if msg.Author.ID != mds.Self.ID {
		writeError(w, http.StatusForbidden, DiscordErrorResponse{Code: 50005, Message: "Cannot edit a message authored by another user"})
		return
	}
	now := time.Now().UTC()
	msg.Content = body.Content
	msg.EditedTimestamp = &now
	writeJSON(w, http.StatusOK, *msg)
}

func (mds *MockDiscordServer) deleteMessage(w http.ResponseWriter, r *http.Request) {
	mds.mu.Lock()
	defer mds.mu.Unlock()

	channelID, ok := mds.channelLocked(r.PathValue("channel_id"))
	if !ok {
		writeError(w, http.StatusNotFound, DiscordErrorResponse{Code: 10003, Message: "Unknown Channel"})
		return
	}
	stored := mds.messages[channelID]
	for i := range stored {
		if stored[i].ID.String() == r.PathValue("message_id") {
			mds.messages[channelID] = append(stored[:i:i], stored[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, DiscordErrorResponse{Code: 10008, Message: "Unknown Message"})
}

func (mds *MockDiscordServer) patchChannel(w http.ResponseWriter, r *http.Request) {
	raw, ok := mds.readBody(w, r, OpPatchChannel)
	if !ok {
		return
	}
	var edit models.ChannelEdit
	if err := json.Unmarshal(raw, &edit); err != nil || strings.TrimSpace(edit.Name) == "" {
		writeError(w, http.StatusBadRequest, DiscordErrorResponse{Code: 50035, Message: "Invalid Form Body"})
		return
	}

	mds.mu.Lock()
	defer mds.mu.Unlock()

	for i := range mds.channels {
		if mds.channels[i].ID.String() == r.PathValue("channel_id") {
			mds.channels[i].Name = edit.Name
			mds.channels[i].Topic = edit.Topic
			writeJSON(w, http.StatusOK, mds.channels[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, DiscordErrorResponse{Code: 10003, Message: "Unknown Channel"})
}

func (mds *MockDiscordServer) channelLocked(raw string) (snowflake.ID, bool) {
	for _, ch := range mds.channels {
		if ch.ID.String() == raw {
			return ch.ID, true
		}
	}
	return 0, false
}

func (mds *MockDiscordServer) messageLocked(channelRaw, messageRaw string) (*models.Message, bool) {
	channelID, ok := mds.channelLocked(channelRaw)
	if !ok {
		return nil, false
	}
	stored := mds.messages[channelID]
	for i := range stored {
		if stored[i].ID.String() == messageRaw {
			return &stored[i], true
		}
	}
	return nil, false
}

func (mds *MockDiscordServer) readBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, DiscordErrorResponse{Code: 50109, Message: "The request body contains invalid JSON."})
		return nil, false
	}
	mds.mu.Lock()
	mds.lastBody[op] = raw
	mds.mu.Unlock()
	return raw, true
}

func (mds *MockDiscordServer) readContent(w http.ResponseWriter, r *http.Request, op string) (models.MessageCreate, bool) {
	raw, ok := mds.readBody(w, r, op)
	if !ok {
		return models.MessageCreate{}, false
	}
	var body models.MessageCreate
	if err := json.Unmarshal(raw, &body); err != nil || body.Content == "" {
		writeError(w, http.StatusBadRequest, DiscordErrorResponse{Code: 50006, Message: "Cannot send an empty message"})
		return models.MessageCreate{}, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, resp DiscordErrorResponse) {
	writeJSON(w, status, resp)
}
