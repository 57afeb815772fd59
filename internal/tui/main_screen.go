package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func (m *Model) updateMain(msg tea.KeyMsg) tea.Cmd {
	if m.modal != overlayNone {
		return m.updateModal(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Escape):
		m.setStatus("", false)
		m.selected = -1
		m.refreshViewport(false)
		return nil
	case key.Matches(msg, m.keys.Tab):
		return m.setFocus((m.focus + 1) % focusCount)
	case key.Matches(msg, m.keys.Emoji):
		m.openEmoji()
		return nil
	case key.Matches(msg, m.keys.EditChannel):
		return m.openEditChannel()
	case key.Matches(msg, m.keys.Refresh):
		return m.refreshCmd()
	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}

	switch m.focus {
	case focusChannels:
		return m.updateChannels(msg)
	case focusMessages:
		return m.updateMessages(msg)
	default:
		return m.updateInput(msg)
	}
}

func (m *Model) setFocus(f focusArea) tea.Cmd {
	m.focus = f
	if f == focusMessages && m.selected < 0 && len(m.messages) > 0 {
		m.selected = len(m.messages) - 1
	}
	if f != focusMessages {
		m.selected = -1
	}
	m.refreshViewport(false)
	if f == focusInput {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

func (m *Model) updateChannels(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.channelIndex > 0 {
			m.channelIndex--
		}
	case key.Matches(msg, m.keys.Down):
		if m.channelIndex < len(m.channels)-1 {
			m.channelIndex++
		}
	case key.Matches(msg, m.keys.Enter):
		if m.channelIndex >= len(m.channels) {
			return nil
		}
		id := m.channels[m.channelIndex].ID
		ctrl := m.ctrl
		return m.opCmd(opSelect, func(ctx context.Context) error {
			return ctrl.SelectChannel(ctx, id)
		})
	case key.Matches(msg, m.keys.Help):
		m.modal = overlayHelp
	}
	return nil
}

func (m *Model) updateMessages(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
			m.refreshViewport(false)
			m.scrollToSelected()
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.messages)-1 {
			m.selected++
			m.refreshViewport(false)
			m.scrollToSelected()
		}
	case key.Matches(msg, m.keys.Edit):
		return m.openEditMessage()
	case key.Matches(msg, m.keys.Delete):
		m.openDelete()
	case key.Matches(msg, m.keys.Copy):
		m.copySelected()
	case key.Matches(msg, m.keys.Enter):
		return m.setFocus(focusInput)
	case key.Matches(msg, m.keys.Help):
		m.modal = overlayHelp
	}
	return nil
}

func (m *Model) updateInput(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Enter) {
		return m.submit()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// submit runs a slash command or sends the input. Input starting with "/"
// that names no command is sent as typed, and a leading "//" sends the rest
// with one slash. Blank input does nothing.
func (m *Model) submit() tea.Cmd {
	value := m.input.Value()
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	switch {
	case strings.HasPrefix(trimmed, "//"):
		value = strings.Replace(value, "/", "", 1)
	case strings.HasPrefix(trimmed, "/"):
		if cmd, ok := m.handleSlashCommand(trimmed); ok {
			return cmd
		}
	}

	m.pendingSend = value
	ctrl := m.ctrl
	return m.opCmd(opSend, func(ctx context.Context) error {
		return ctrl.Send(ctx, value)
	})
}

func (m *Model) refreshCmd() tea.Cmd {
	if m.active.ID == 0 {
		return nil
	}
	m.setStatus("Refreshing...", false)
	ctrl := m.ctrl
	return m.opCmd(opRefresh, ctrl.Refresh)
}

func (m *Model) copySelected() {
	msg, ok := m.selectedMessage()
	if !ok {
		return
	}
	if err := m.opts.Clipboard(msg.Content); err != nil {
		m.setStatus("Copy failed: "+err.Error(), true)
		return
	}
	m.setStatus("Copied message to clipboard.", false)
}

// scrollToSelected keeps the selected message inside the viewport
func (m *Model) scrollToSelected() {
	if m.selected < 0 || m.selected >= len(m.messageLines) {
		return
	}
	line := m.messageLines[m.selected]
	switch {
	case line < m.viewport.YOffset:
		m.viewport.SetYOffset(line)
	case line >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(line - m.viewport.Height + 1)
	}
}
