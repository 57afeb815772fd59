// Package tui is the bubbletea front end. It never calls the controller on
// the event loop; every controller call runs inside a tea.Cmd and state
// changes come back as messages.
package tui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/disgoorg/snowflake/v2"

	"github.com/parsascontentcorner/discordlite/internal/app"
	"github.com/parsascontentcorner/discordlite/internal/appearance"
	"github.com/parsascontentcorner/discordlite/internal/models"
	"github.com/parsascontentcorner/discordlite/internal/store"
)

// Controller is the part of *app.Controller the UI drives
type Controller interface {
	Setup(ctx context.Context, token, guildID string, remember bool) error
	Resume(ctx context.Context) (bool, error)
	SavedCredentials(ctx context.Context) (*store.SavedCredentials, error)
	SelectChannel(ctx context.Context, channelID snowflake.ID) error
	Send(ctx context.Context, content string) error
	Edit(ctx context.Context, messageID snowflake.ID, content string) error
	Delete(ctx context.Context, messageID snowflake.ID) error
	RenameChannel(ctx context.Context, name, topic string) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	Settings() models.Settings
	UpdateSetting(ctx context.Context, key, value string) (models.Settings, error)
}

type screen int

const (
	screenLoading screen = iota
	screenSetup
	screenMain
)

type focusArea int

const (
	focusChannels focusArea = iota
	focusMessages
	focusInput
	focusCount
)

type overlay int

const (
	overlayNone overlay = iota
	overlayEditMessage
	overlayEditChannel
	overlayDelete
	overlayEmoji
	overlayHelp
	overlaySettings
)

type operation int

const (
	opSelect operation = iota
	opSend
	opEdit
	opDelete
	opRename
	opRefresh
	opLogout
)

func (o operation) String() string {
	switch o {
	case opSelect:
		return "select channel"
	case opSend:
		return "send"
	case opEdit:
		return "edit"
	case opDelete:
		return "delete"
	case opRename:
		return "edit channel"
	case opRefresh:
		return "refresh"
	case opLogout:
		return "logout"
	}
	return "unknown"
}

// Results of controller calls
type (
	resumeDoneMsg struct {
		ok  bool
		err error
	}
	setupDoneMsg struct {
		err      error
		remember bool
	}
	savedCredentialsMsg struct{ expiresAt time.Time }
	opDoneMsg           struct {
		op  operation
		err error
	}
	settingsMsg struct {
		key      string
		settings models.Settings
		err      error
	}
)

const (
	sidebarWidth = 26
	headerHeight = 1
	inputHeight  = 3
	statusHeight = 1
)

// Options tune the model
type Options struct {
	// RememberDays is shown next to the remember toggle
	RememberDays int
	// Clipboard replaces the system clipboard, mainly for tests
	Clipboard func(string) error
}

// Model is the root bubbletea model
type Model struct {
	ctx    context.Context
	ctrl   Controller
	keys   keyMap
	help   help.Model
	styles appearance.Styles
	opts   Options

	width  int
	height int
	screen screen
	focus  focusArea
	modal  overlay

	// Setup screen
	tokenInput textinput.Model
	guildInput textinput.Model
	remember   bool
	setupField int
	setupErr   string
	busy       bool

	// Main screen
	guild        models.Guild
	self         models.User
	channels     []models.Channel
	channelIndex int
	active       models.Channel
	messages     []models.Message
	messagesErr  string
	loaded       bool
	selected     int
	messageLines []int
	viewport     viewport.Model
	input        textinput.Model
	pendingSend  string
	status       string
	statusErr    bool
	expiresAt    *time.Time

	// Overlays
	editArea     textarea.Model
	editingID    snowflake.ID
	channelName  textinput.Model
	channelTopic textinput.Model
	channelField int
	modalErr     string
	emojiIndex   int
}

// New creates the model. Settings must already be loaded into ctrl.
func New(ctx context.Context, ctrl Controller, opts Options) *Model {
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.RememberDays <= 0 {
		opts.RememberDays = 30
	}

	token := textinput.New()
	token.Placeholder = "Bot token"
	token.EchoMode = textinput.EchoPassword
	token.EchoCharacter = '•'
	token.Focus()

	guild := textinput.New()
	guild.Placeholder = "Server ID"
	guild.CharLimit = 19

	input := textinput.New()
	input.Placeholder = "Message"
	input.CharLimit = models.MaxContentLength

	edit := textarea.New()
	edit.ShowLineNumbers = false
	edit.CharLimit = models.MaxContentLength
	edit.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	edit.SetHeight(5)

	name := textinput.New()
	name.Placeholder = "channel-name"
	name.CharLimit = app.MaxChannelName
	topic := textinput.New()
	topic.Placeholder = "Topic (optional)"
	topic.CharLimit = app.MaxChannelTopic

	h := help.New()
	h.ShowAll = true

	return &Model{
		ctx:          ctx,
		ctrl:         ctrl,
		keys:         defaultKeyMap(),
		help:         h,
		styles:       appearance.NewStyles(ctrl.Settings()),
		opts:         opts,
		screen:       screenLoading,
		focus:        focusInput,
		tokenInput:   token,
		guildInput:   guild,
		selected:     -1,
		viewport:     viewport.New(0, 0),
		input:        input,
		editArea:     edit,
		channelName:  name,
		channelTopic: topic,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.resumeCmd())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case resumeDoneMsg:
		return m, m.handleResume(msg)
	case setupDoneMsg:
		return m, m.handleSetupDone(msg)
	case savedCredentialsMsg:
		expires := msg.expiresAt
		m.expiresAt = &expires
		return m, nil
	case opDoneMsg:
		return m, m.handleOpDone(msg)
	case settingsMsg:
		m.handleSettings(msg)
		return m, nil

	case connectedMsg:
		m.handleConnected(msg)
		return m, m.input.Focus()
	case channelsMsg:
		m.handleChannels(msg.channels)
		return m, nil
	case channelSelectedMsg:
		m.handleChannelSelected(msg.channel)
		return m, nil
	case frameMsg:
		m.handleFrame(msg)
		return m, nil
	case messagesErrorMsg:
		m.handleMessagesError(msg)
		return m, nil
	case loggedOutMsg:
		return m, m.handleLoggedOut()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen {
		case screenSetup:
			return m, m.updateSetup(msg)
		case screenMain:
			return m, m.updateMain(msg)
		}
		return m, nil
	}

	return m, m.forward(msg)
}

// forward hands other messages (cursor blinks, mouse) to the focused widget
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case m.screen == screenSetup && m.setupField == 0:
		m.tokenInput, cmd = m.tokenInput.Update(msg)
	case m.screen == screenSetup && m.setupField == 1:
		m.guildInput, cmd = m.guildInput.Update(msg)
	case m.screen == screenMain && m.modal == overlayEditMessage:
		m.editArea, cmd = m.editArea.Update(msg)
	case m.screen == screenMain && m.modal == overlayEditChannel && m.channelField == 0:
		m.channelName, cmd = m.channelName.Update(msg)
	case m.screen == screenMain && m.modal == overlayEditChannel:
		m.channelTopic, cmd = m.channelTopic.Update(msg)
	case m.screen == screenMain && m.modal == overlayNone:
		var vcmd tea.Cmd
		m.viewport, vcmd = m.viewport.Update(msg)
		m.input, cmd = m.input.Update(msg)
		cmd = tea.Batch(cmd, vcmd)
	}
	return cmd
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	mainWidth := width - sidebarWidth
	if mainWidth < 20 {
		mainWidth = 20
	}
	vpHeight := height - headerHeight - inputHeight - statusHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = mainWidth
	m.viewport.Height = vpHeight
	m.input.Width = mainWidth - 6
	m.editArea.SetWidth(min(60, width-8))
	m.channelName.Width = min(50, width-12)
	m.channelTopic.Width = min(50, width-12)
	m.help.Width = width
	m.refreshViewport(m.viewport.AtBottom())
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// ============================================================================
// Controller commands
// ============================================================================

func (m *Model) resumeCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		ok, err := ctrl.Resume(ctx)
		return resumeDoneMsg{ok: ok, err: err}
	}
}

func (m *Model) setupCmd(token, guildID string, remember bool) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return setupDoneMsg{err: ctrl.Setup(ctx, token, guildID, remember), remember: remember}
	}
}

func (m *Model) savedCredentialsCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		saved, err := ctrl.SavedCredentials(ctx)
		if err != nil {
			return nil
		}
		return savedCredentialsMsg{expiresAt: saved.ExpiresAt}
	}
}

func (m *Model) opCmd(op operation, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m *Model) settingCmd(key, value string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		s, err := ctrl.UpdateSetting(ctx, key, value)
		return settingsMsg{key: key, settings: s, err: err}
	}
}

// ============================================================================
// Result handlers
// ============================================================================

func (m *Model) handleResume(msg resumeDoneMsg) tea.Cmd {
	if msg.ok {
		return m.savedCredentialsCmd()
	}
	m.screen = screenSetup
	if msg.err != nil {
		m.setupErr = app.Describe(msg.err)
	}
	return m.tokenInput.Focus()
}

func (m *Model) handleSetupDone(msg setupDoneMsg) tea.Cmd {
	m.busy = false
	if msg.err != nil {
		m.setupErr = app.Describe(msg.err)
		return nil
	}
	m.setupErr = ""
	m.tokenInput.Reset()
	m.guildInput.Reset()
	if msg.remember {
		return m.savedCredentialsCmd()
	}
	m.expiresAt = nil
	return nil
}

func (m *Model) handleOpDone(msg opDoneMsg) tea.Cmd {
	if msg.err != nil {
		text := app.Describe(msg.err)
		switch {
		case msg.op == opSelect && !models.IsValidationError(msg.err):
			// Shown in the message pane by OnMessagesError
			return nil
		case msg.op == opRename && m.modal == overlayEditChannel:
			m.modalErr = text
		case msg.op == opEdit && m.modal == overlayEditMessage:
			m.modalErr = text
		default:
			m.setStatus("Failed to "+msg.op.String()+": "+text, true)
		}
		return nil
	}

	switch msg.op {
	case opSend:
		if m.input.Value() == m.pendingSend {
			m.input.Reset()
		}
		m.pendingSend = ""
		m.setStatus("", false)
	case opEdit, opRename:
		m.closeModal()
		m.setStatus("Saved.", false)
	case opDelete:
		m.setStatus("Message deleted.", false)
	case opRefresh:
		m.setStatus("Refreshed.", false)
	}
	return nil
}

func (m *Model) handleSettings(msg settingsMsg) {
	if msg.err != nil {
		m.setStatus(app.Describe(msg.err), true)
		return
	}
	m.styles = appearance.NewStyles(msg.settings)
	m.refreshViewport(m.viewport.AtBottom())
	m.setStatus("Updated "+msg.key+".", false)
}

func (m *Model) handleConnected(msg connectedMsg) {
	m.guild = msg.guild
	m.self = msg.self
	m.screen = screenMain
	m.focus = focusInput
	m.modal = overlayNone
	m.setStatus("", false)
	m.tokenInput.Blur()
	m.guildInput.Blur()
}

func (m *Model) handleChannels(channels []models.Channel) {
	m.channels = channels
	for i, ch := range channels {
		if ch.ID == m.active.ID {
			m.active = ch
			m.channelIndex = i
			break
		}
	}
	if m.channelIndex >= len(channels) {
		m.channelIndex = max(0, len(channels)-1)
	}
	m.input.Placeholder = "Message #" + m.active.Name
}

func (m *Model) handleChannelSelected(ch models.Channel) {
	if ch.ID != m.active.ID {
		m.messages = nil
		m.messagesErr = ""
		m.loaded = false
		m.selected = -1
		m.viewport.GotoTop()
	}
	m.active = ch
	for i := range m.channels {
		if m.channels[i].ID == ch.ID {
			m.channelIndex = i
		}
	}
	m.input.Placeholder = "Message #" + ch.Name
	m.refreshViewport(true)
}

func (m *Model) handleFrame(msg frameMsg) {
	if msg.frame.ChannelID != m.active.ID {
		return
	}

	// Pin to the bottom if the reader was at either end
	pin := m.viewport.AtBottom() || m.viewport.AtTop()

	var selectedID snowflake.ID
	if m.selected >= 0 && m.selected < len(m.messages) {
		selectedID = m.messages[m.selected].ID
	}

	m.messages = msg.frame.Messages
	m.messagesErr = ""
	m.loaded = true
	m.selected = -1
	for i := range m.messages {
		if m.messages[i].ID == selectedID {
			m.selected = i
		}
	}
	if m.modal == overlayDelete || m.modal == overlayEditMessage {
		if _, ok := m.messageByID(m.editingID); !ok {
			m.closeModal()
			m.setStatus("That message is no longer in this channel.", true)
		}
	}
	m.refreshViewport(pin)
}

func (m *Model) handleMessagesError(msg messagesErrorMsg) {
	if msg.channelID != m.active.ID {
		return
	}
	m.messages = nil
	m.selected = -1
	m.loaded = true
	m.messagesErr = "Failed to load messages: " + app.Describe(msg.err)
	m.refreshViewport(true)
}

func (m *Model) handleLoggedOut() tea.Cmd {
	m.screen = screenSetup
	m.modal = overlayNone
	m.guild = models.Guild{}
	m.self = models.User{}
	m.channels = nil
	m.channelIndex = 0
	m.active = models.Channel{}
	m.messages = nil
	m.messagesErr = ""
	m.loaded = false
	m.selected = -1
	m.expiresAt = nil
	m.input.Reset()
	m.input.Blur()
	m.remember = false
	m.setupField = 0
	m.setupErr = ""
	m.setStatus("", false)
	m.viewport.SetContent("")
	return m.tokenInput.Focus()
}

func (m *Model) messageByID(id snowflake.ID) (models.Message, bool) {
	for _, msg := range m.messages {
		if msg.ID == id {
			return msg, true
		}
	}
	return models.Message{}, false
}
