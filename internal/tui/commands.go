package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/parsascontentcorner/discordlite/internal/models"
)

// handleSlashCommand runs a /command typed into the message input. ok is
// false when input names no command, so it is sent as a message instead. The
// input is cleared unless the command failed.
func (m *Model) handleSlashCommand(input string) (cmd tea.Cmd, ok bool) {
	cmd, ok, err := m.runSlashCommand(input)
	if !ok {
		return nil, false
	}
	if err != nil {
		m.setStatus(err.Error(), true)
		return nil, true
	}
	m.input.Reset()
	return cmd, true
}

func (m *Model) runSlashCommand(input string) (tea.Cmd, bool, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil, false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "/help":
		m.modal = overlayHelp
		return nil, true, nil
	case "/settings":
		m.modal = overlaySettings
		return nil, true, nil
	case "/set":
		if len(fields) < 2 {
			return nil, true, fmt.Errorf("usage: /set <key> <value> (keys: %s)", strings.Join(models.SettingKeys, ", "))
		}
		key, value := splitSetArgs(input[len(fields[0]):])
		m.setStatus("Saving "+key+"...", false)
		return m.settingCmd(key, value), true, nil
	case "/refresh":
		return m.refreshCmd(), true, nil
	case "/logout":
		ctrl := m.ctrl
		return m.opCmd(opLogout, func(ctx context.Context) error {
			return ctrl.Logout(ctx)
		}), true, nil
	case "/quit", "/exit":
		return tea.Quit, true, nil
	}
	return nil, false, nil
}

// splitSetArgs splits "<key> <value>" keeping the value as typed apart from
// the surrounding whitespace
func splitSetArgs(args string) (key, value string) {
	args = strings.TrimLeft(args, " \t")
	end := strings.IndexAny(args, " \t")
	if end < 0 {
		return args, ""
	}
	return args[:end], strings.TrimSpace(args[end:])
}
