package tui

import (
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/parsascontentcorner/discordlite/internal/models"
	"github.com/parsascontentcorner/discordlite/internal/msgsync"
)

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

func (m *Model) View() string {
	switch m.screen {
	case screenLoading:
		return m.styles.Status.Render("Connecting...")
	case screenSetup:
		return m.viewSetup()
	}

	sidebar := m.viewSidebar()
	pane := lipgloss.JoinVertical(lipgloss.Left,
		m.viewHeader(),
		m.viewport.View(),
		m.viewInput(),
		m.viewStatus(),
	)
	layout := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, pane)

	if m.modal == overlayNone {
		return layout
	}
	modal := m.viewModal()
	if m.width == 0 {
		return layout + "\n" + modal
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}

func (m *Model) viewSidebar() string {
	st := m.styles
	inner := sidebarWidth - 2

	var b strings.Builder
	b.WriteString(st.GuildBadge.Render(m.guild.Initial()) + " " +
		st.GuildName.Render(truncate(m.guild.Name, inner-4)) + "\n\n")
	b.WriteString(st.Status.Render("TEXT CHANNELS") + "\n")

	for i, ch := range m.channels {
		label := truncate("# "+ch.Name, inner)
		switch {
		case m.focus == focusChannels && i == m.channelIndex:
			label = st.ChannelSelected.Width(inner).Render(label)
		case ch.ID == m.active.ID:
			label = st.ChannelActive.Render(label)
		default:
			label = st.Channel.Render(label)
		}
		b.WriteString(label + "\n")
	}

	b.WriteString("\n" + st.Status.Render(truncate(m.signedInAs(), inner)))

	style := st.Sidebar.Width(sidebarWidth)
	if m.height > 0 {
		style = style.Height(m.height)
	}
	return style.Render(b.String())
}

func (m *Model) signedInAs() string {
	name := m.self.DisplayName()
	if s := m.ctrl.Settings(); s.DisplayName != "" {
		name = s.DisplayName
	}
	return "@" + name
}

func (m *Model) viewHeader() string {
	st := m.styles
	width := m.viewport.Width
	if m.active.ID == 0 {
		return st.Header.Width(width).Render("No channel selected")
	}

	title := "# " + m.active.Name
	if topic := m.active.TopicText(); topic != "" {
		room := width - runewidth.StringWidth(title) - 5
		if room > 0 {
			title += st.Topic.Render("  |  " + truncate(topic, room))
		}
	}
	return st.Header.Width(width).Render(title)
}

func (m *Model) viewInput() string {
	style := m.styles.Input
	if m.focus == focusInput && m.modal == overlayNone {
		style = m.styles.InputFocused
	}
	if m.viewport.Width > 2 {
		style = style.Width(m.viewport.Width - 2)
	}
	return style.Render(m.input.View())
}

func (m *Model) viewStatus() string {
	st := m.styles
	switch {
	case m.status != "" && m.statusErr:
		return st.Error.Render(m.status)
	case m.status != "":
		return st.Status.Render(m.status)
	case m.expiresAt != nil:
		return st.Status.Render("Saved login expires " + humanize.Time(*m.expiresAt) + " · ? or /help for keys")
	}
	return st.Help.Render("tab switch pane · ctrl+e emoji · ctrl+t edit channel · /help")
}

// ============================================================================
// Message pane
// ============================================================================

// refreshViewport re-renders the message pane. With pin the view jumps to
// the newest message; otherwise the previous offset is kept where possible.
func (m *Model) refreshViewport(pin bool) {
	offset := m.viewport.YOffset
	m.viewport.SetContent(m.renderMessages())
	if pin {
		m.viewport.GotoBottom()
		return
	}
	m.viewport.SetYOffset(offset)
}

func (m *Model) renderMessages() string {
	st := m.styles
	m.messageLines = m.messageLines[:0]

	switch {
	case m.active.ID == 0:
		return ""
	case m.messagesErr != "":
		return st.Placeholder.Render(st.Error.Render(m.messagesErr))
	case !m.loaded:
		return st.Placeholder.Render("Loading messages...")
	case len(m.messages) == 0:
		return st.Placeholder.Render(msgsync.EmptyPlaceholder)
	}

	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	var blocks []string
	line := 0
	gap := strings.Repeat("\n", st.Density.MessageGap)
	for i, msg := range m.messages {
		block := m.renderMessage(msg, i == m.selected, width)
		m.messageLines = append(m.messageLines, line)
		line += lipgloss.Height(block) + st.Density.MessageGap
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n"+gap)
}

func (m *Model) renderMessage(msg models.Message, selected bool, width int) string {
	st := m.styles

	header := st.Avatar.Render(" "+msg.Author.Initial()+" ") + " " +
		st.Author.Render(msg.Author.DisplayName()) + " " +
		st.Timestamp.Render(formatTime(msg.CreatedAt()))
	if msg.Edited() {
		header += " " + st.Edited.Render("(edited)")
	}

	bodyWidth := width - 2*st.Density.Padding - 4
	if bodyWidth < 10 {
		bodyWidth = 10
	}
	body := lipgloss.NewStyle().Width(bodyWidth).PaddingLeft(4).
		Render(highlightLinks(msg.Content, st.Content, st.Link))

	row := st.Message
	if selected {
		row = st.MessageSelected
	}
	return row.Width(width).Render(header + "\n" + body)
}

func formatTime(t time.Time) string {
	return t.Local().Format("15:04")
}

// highlightLinks styles every http(s) URL in content with link and the rest
// with plain
func highlightLinks(content string, plain, link lipgloss.Style) string {
	matches := urlPattern.FindAllStringIndex(content, -1)
	if len(matches) == 0 {
		return plain.Render(content)
	}

	var b strings.Builder
	last := 0
	for _, loc := range matches {
		if loc[0] > last {
			b.WriteString(plain.Render(content[last:loc[0]]))
		}
		b.WriteString(link.Render(content[loc[0]:loc[1]]))
		last = loc[1]
	}
	if last < len(content) {
		b.WriteString(plain.Render(content[last:]))
	}
	return b.String()
}

// truncate shortens s to width terminal cells
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
