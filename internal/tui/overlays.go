package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/parsascontentcorner/discordlite/internal/models"
)

func (m *Model) closeModal() {
	m.modal = overlayNone
	m.modalErr = ""
	m.editingID = 0
	m.editArea.Blur()
	m.channelName.Blur()
	m.channelTopic.Blur()
}

func (m *Model) selectedMessage() (models.Message, bool) {
	if m.selected < 0 || m.selected >= len(m.messages) {
		return models.Message{}, false
	}
	return m.messages[m.selected], true
}

func (m *Model) openEditMessage() tea.Cmd {
	msg, ok := m.selectedMessage()
	if !ok {
		return nil
	}
	m.modal = overlayEditMessage
	m.modalErr = ""
	m.editingID = msg.ID
	m.editArea.SetValue(msg.Content)
	return m.editArea.Focus()
}

func (m *Model) openDelete() {
	msg, ok := m.selectedMessage()
	if !ok {
		return
	}
	m.modal = overlayDelete
	m.editingID = msg.ID
}

func (m *Model) openEditChannel() tea.Cmd {
	if m.active.ID == 0 {
		return nil
	}
	m.modal = overlayEditChannel
	m.modalErr = ""
	m.channelField = 0
	m.channelName.SetValue(m.active.Name)
	m.channelTopic.SetValue(m.active.TopicText())
	m.channelName.CursorEnd()
	m.channelTopic.CursorEnd()
	m.channelTopic.Blur()
	return m.channelName.Focus()
}

func (m *Model) openEmoji() {
	m.modal = overlayEmoji
	m.emojiIndex = 0
}

func (m *Model) updateModal(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Escape) {
		m.closeModal()
		return nil
	}

	switch m.modal {
	case overlayEditMessage:
		return m.updateEditMessage(msg)
	case overlayEditChannel:
		return m.updateEditChannel(msg)
	case overlayDelete:
		return m.updateDelete(msg)
	case overlayEmoji:
		return m.updateEmoji(msg)
	case overlayHelp, overlaySettings:
		if key.Matches(msg, m.keys.Enter) || msg.String() == "q" {
			m.closeModal()
		}
	}
	return nil
}

func (m *Model) updateEditMessage(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Enter) {
		id, content := m.editingID, m.editArea.Value()
		if strings.TrimSpace(content) == "" {
			m.modalErr = "Message cannot be empty."
			return nil
		}
		ctrl := m.ctrl
		return m.opCmd(opEdit, func(ctx context.Context) error {
			return ctrl.Edit(ctx, id, content)
		})
	}
	var cmd tea.Cmd
	m.editArea, cmd = m.editArea.Update(msg)
	return cmd
}

func (m *Model) updateEditChannel(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Tab), msg.String() == "shift+tab":
		m.channelField = 1 - m.channelField
		if m.channelField == 0 {
			m.channelTopic.Blur()
			return m.channelName.Focus()
		}
		m.channelName.Blur()
		return m.channelTopic.Focus()
	case key.Matches(msg, m.keys.Enter):
		name, topic := m.channelName.Value(), m.channelTopic.Value()
		if strings.TrimSpace(name) == "" {
			m.modalErr = "Channel name cannot be empty."
			return nil
		}
		m.modalErr = ""
		ctrl := m.ctrl
		return m.opCmd(opRename, func(ctx context.Context) error {
			return ctrl.RenameChannel(ctx, name, topic)
		})
	}

	var cmd tea.Cmd
	if m.channelField == 0 {
		m.channelName, cmd = m.channelName.Update(msg)
	} else {
		m.channelTopic, cmd = m.channelTopic.Update(msg)
	}
	return cmd
}

func (m *Model) updateDelete(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "enter":
		id := m.editingID
		m.closeModal()
		ctrl := m.ctrl
		return m.opCmd(opDelete, func(ctx context.Context) error {
			return ctrl.Delete(ctx, id)
		})
	case "n":
		m.closeModal()
	}
	return nil
}

func (m *Model) updateEmoji(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Left):
		if m.emojiIndex > 0 {
			m.emojiIndex--
		}
	case key.Matches(msg, m.keys.Right):
		if m.emojiIndex < len(emojis)-1 {
			m.emojiIndex++
		}
	case key.Matches(msg, m.keys.Up):
		if m.emojiIndex >= emojiColumns {
			m.emojiIndex -= emojiColumns
		}
	case key.Matches(msg, m.keys.Down):
		if m.emojiIndex+emojiColumns < len(emojis) {
			m.emojiIndex += emojiColumns
		}
	case key.Matches(msg, m.keys.Enter):
		m.input.SetValue(m.input.Value() + emojis[m.emojiIndex])
		m.input.CursorEnd()
		m.closeModal()
		return m.setFocus(focusInput)
	}
	return nil
}

// ============================================================================
// Overlay views
// ============================================================================

func (m *Model) viewModal() string {
	st := m.styles
	var title, body string

	switch m.modal {
	case overlayEditMessage:
		title = "Edit message"
		body = m.editArea.View() + "\n" + st.Help.Render("enter save · alt+enter newline · esc cancel")
	case overlayEditChannel:
		title = "Edit channel"
		body = st.Status.Render("Name") + "\n" + m.channelName.View() + "\n\n" +
			st.Status.Render("Topic") + "\n" + m.channelTopic.View() + "\n\n" +
			st.Help.Render("tab switch field · enter save · esc cancel")
	case overlayDelete:
		title = "Delete message"
		preview := ""
		if msg, ok := m.messageByID(m.editingID); ok {
			preview = st.Content.Render(truncate(msg.Content, 50)) + "\n\n"
		}
		body = "Are you sure you want to delete this message?\n\n" + preview +
			st.Help.Render("y delete · n cancel")
	case overlayEmoji:
		title = "Select an emoji"
		body = m.viewEmojiGrid() + "\n" + st.Help.Render("arrows move · enter insert · esc close")
	case overlayHelp:
		title = "Help"
		body = m.help.View(m.keys) + "\n\n" + st.Help.Render(strings.Join([]string{
			"/set <key> <value>  change a setting",
			"/settings           show settings",
			"/refresh            reload messages",
			"/logout             sign out and forget saved credentials",
			"/help               this screen",
			"//text              send text starting with /",
		}, "\n"))
	case overlaySettings:
		title = "Settings"
		body = m.viewSettings()
	}

	if m.modalErr != "" {
		body += "\n\n" + st.Error.Render(m.modalErr)
	}
	return st.Modal.Render(st.ModalTitle.Render(title) + "\n" + body)
}

func (m *Model) viewEmojiGrid() string {
	var b strings.Builder
	for i, e := range emojis {
		cell := lipgloss.NewStyle().Width(4).Align(lipgloss.Center).Render(e)
		if i == m.emojiIndex {
			cell = m.styles.ChannelSelected.Render(cell)
		}
		b.WriteString(cell)
		if (i+1)%emojiColumns == 0 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *Model) viewSettings() string {
	s := m.ctrl.Settings()
	var b strings.Builder
	for _, k := range models.SettingKeys {
		v, _ := s.Get(k)
		if v == "" {
			v = m.styles.Status.Render("(not set)")
		}
		fmt.Fprintf(&b, "%-12s %s\n", k, v)
	}
	b.WriteString("\n" + m.styles.Help.Render("change with /set <key> <value>"))
	return b.String()
}
