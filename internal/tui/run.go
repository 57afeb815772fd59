package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/parsascontentcorner/discordlite/internal/app"
)

// Session is what Run needs from the controller
type Session interface {
	Controller
	SetPresenter(p app.Presenter)
}

// Run starts the program and blocks until the user quits or ctx ends
func Run(ctx context.Context, session Session, opts Options) error {
	model := New(ctx, session, opts)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	session.SetPresenter(NewBridge(program))
	defer session.SetPresenter(nil)

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run terminal UI: %w", err)
	}
	return nil
}
