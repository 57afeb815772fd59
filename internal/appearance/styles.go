package appearance

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/parsascontentcorner/discordlite/internal/models"
)

// Styles are the lipgloss styles for every region of the UI
type Styles struct {
	Palette Palette
	Density Density

	App     lipgloss.Style
	Sidebar lipgloss.Style
	Header  lipgloss.Style
	Topic   lipgloss.Style

	GuildBadge      lipgloss.Style
	GuildName       lipgloss.Style
	Channel         lipgloss.Style
	ChannelActive   lipgloss.Style
	ChannelSelected lipgloss.Style

	Message         lipgloss.Style
	MessageSelected lipgloss.Style
	Avatar          lipgloss.Style
	Author          lipgloss.Style
	Timestamp       lipgloss.Style
	Content         lipgloss.Style
	Link            lipgloss.Style
	Edited          lipgloss.Style
	Placeholder     lipgloss.Style

	Input        lipgloss.Style
	InputFocused lipgloss.Style
	Modal        lipgloss.Style
	ModalTitle   lipgloss.Style
	Button       lipgloss.Style
	Error        lipgloss.Style
	Status       lipgloss.Style
	Help         lipgloss.Style
}

// NewStyles builds styles for s
func NewStyles(s models.Settings) Styles {
	p := NewPalette(s)
	d := NewDensity(s)
	c := func(hex string) lipgloss.Color { return lipgloss.Color(hex) }

	row := lipgloss.NewStyle().PaddingLeft(d.Padding).PaddingRight(d.Padding)

	return Styles{
		Palette: p,
		Density: d,

		App:     lipgloss.NewStyle().Background(c(p.Background)).Foreground(c(p.Text)),
		Sidebar: lipgloss.NewStyle().Background(c(p.Surface)).Foreground(c(p.Muted)).Padding(0, 1),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(c(p.Text)).
			Background(c(p.Deep)).
			Padding(0, 1),
		Topic: lipgloss.NewStyle().Foreground(c(p.Muted)).Background(c(p.Deep)),

		GuildBadge: lipgloss.NewStyle().
			Bold(true).
			Foreground(c(p.OnAccent)).
			Background(c(p.Accent)).
			Padding(0, 1),
		GuildName:       lipgloss.NewStyle().Bold(true).Foreground(c(p.Text)),
		Channel:         lipgloss.NewStyle().Foreground(c(p.Muted)),
		ChannelActive:   lipgloss.NewStyle().Bold(true).Foreground(c(p.Text)),
		ChannelSelected: lipgloss.NewStyle().Foreground(c(p.OnAccent)).Background(c(p.AccentActive)),

		Message:         row,
		MessageSelected: row.Background(c(p.AccentMuted)),
		Avatar: lipgloss.NewStyle().
			Bold(true).
			Foreground(c(p.OnAccent)).
			Background(c(p.Accent)),
		Author:      lipgloss.NewStyle().Bold(true).Foreground(c(p.AccentHover)),
		Timestamp:   lipgloss.NewStyle().Foreground(c(p.Muted)),
		Content:     lipgloss.NewStyle().Foreground(c(p.Text)),
		Link:        lipgloss.NewStyle().Underline(true).Foreground(c(p.Link)),
		Edited:      lipgloss.NewStyle().Italic(true).Foreground(c(p.Muted)),
		Placeholder: lipgloss.NewStyle().Italic(true).Foreground(c(p.Muted)).Padding(1, 2),

		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c(p.Deep)),
		InputFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c(p.Accent)),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c(p.Accent)).
			Padding(1, 2),
		ModalTitle: lipgloss.NewStyle().Bold(true).Foreground(c(p.Text)).MarginBottom(1),
		Button:     lipgloss.NewStyle().Foreground(c(p.OnAccent)).Background(c(p.Accent)).Padding(0, 2),
		Error:      lipgloss.NewStyle().Foreground(c(p.Error)),
		Status:     lipgloss.NewStyle().Foreground(c(p.Muted)),
		Help:       lipgloss.NewStyle().Foreground(c(p.Muted)),
	}
}
