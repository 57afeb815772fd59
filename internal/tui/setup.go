package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const setupFields = 3 // token, server id, remember

func (m *Model) updateSetup(msg tea.KeyMsg) tea.Cmd {
	if m.busy {
		return nil
	}

	switch msg.String() {
	case "tab", "down":
		return m.focusSetupField((m.setupField + 1) % setupFields)
	case "shift+tab", "up":
		return m.focusSetupField((m.setupField + setupFields - 1) % setupFields)
	case " ":
		if m.setupField == 2 {
			m.remember = !m.remember
			return nil
		}
	case "enter":
		m.busy = true
		m.setupErr = ""
		return m.setupCmd(m.tokenInput.Value(), m.guildInput.Value(), m.remember)
	}

	var cmd tea.Cmd
	switch m.setupField {
	case 0:
		m.tokenInput, cmd = m.tokenInput.Update(msg)
	case 1:
		m.guildInput, cmd = m.guildInput.Update(msg)
	}
	return cmd
}

func (m *Model) focusSetupField(field int) tea.Cmd {
	m.setupField = field
	m.tokenInput.Blur()
	m.guildInput.Blur()
	switch field {
	case 0:
		return m.tokenInput.Focus()
	case 1:
		return m.guildInput.Focus()
	}
	return nil
}

func (m *Model) viewSetup() string {
	st := m.styles
	label := func(field int, text string) string {
		if m.setupField == field {
			return st.Author.Render("› " + text)
		}
		return st.Status.Render("  " + text)
	}

	check := "[ ]"
	if m.remember {
		check = "[x]"
	}

	var b strings.Builder
	b.WriteString(st.ModalTitle.Render("Connect to Discord"))
	b.WriteString("\n")
	b.WriteString(label(0, "Bot token") + "\n  " + m.tokenInput.View() + "\n\n")
	b.WriteString(label(1, "Server ID") + "\n  " + m.guildInput.View() + "\n\n")
	b.WriteString(label(2, fmt.Sprintf("%s Remember me for %d days", check, m.opts.RememberDays)) + "\n\n")

	switch {
	case m.busy:
		b.WriteString(st.Status.Render("Connecting..."))
	case m.setupErr != "":
		b.WriteString(st.Error.Render(m.setupErr))
	default:
		b.WriteString(st.Button.Render("Connect"))
	}
	b.WriteString("\n\n")
	b.WriteString(st.Help.Render("tab move · space toggle · enter connect · ctrl+c quit"))

	box := st.Modal.Render(b.String())
	if m.width == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
