// Package appearance derives colours, density and lipgloss styles from the
// user's settings.
package appearance

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/parsascontentcorner/discordlite/internal/models"
)

// Lightness shifts applied to the accent for hover and pressed states
const (
	accentHoverShift  = 0.08
	accentActiveShift = -0.10
	accentMutedAlpha  = 0.25
)

// Palette is the set of hex colours the UI draws with
type Palette struct {
	Theme models.Theme

	Background string // message pane
	Surface    string // sidebar
	Deep       string // header bar, inputs
	Text       string
	Muted      string
	Error      string
	Link       string

	Accent       string
	AccentHover  string
	AccentActive string
	// AccentMuted is the accent blended over Background, used for the
	// selected-message highlight
	AccentMuted string
	OnAccent    string
}

type base struct {
	background, surface, deep, text, muted, errorColor, link string
}

var bases = map[models.Theme]base{
	models.ThemeDark: {
		background: "#313338",
		surface:    "#2b2d31",
		deep:       "#1e1f22",
		text:       "#dbdee1",
		muted:      "#949ba4",
		errorColor: "#f23f43",
		link:       "#00b0f4",
	},
	models.ThemeLight: {
		background: "#ffffff",
		surface:    "#f2f3f5",
		deep:       "#e3e5e8",
		text:       "#313338",
		muted:      "#5c5e66",
		errorColor: "#da373c",
		link:       "#006ce7",
	},
}

// NewPalette builds the palette for s. Invalid colours fall back to the
// defaults so a bad saved value never breaks rendering.
func NewPalette(s models.Settings) Palette {
	b, ok := bases[s.Theme]
	if !ok {
		s.Theme = models.ThemeDark
		b = bases[models.ThemeDark]
	}

	accent, err := colorful.Hex(s.AccentColor)
	if err != nil {
		accent, _ = colorful.Hex(models.DefaultAccentColor)
	}
	bg, _ := colorful.Hex(b.background)

	return Palette{
		Theme:        s.Theme,
		Background:   b.background,
		Surface:      b.surface,
		Deep:         b.deep,
		Text:         b.text,
		Muted:        b.muted,
		Error:        b.errorColor,
		Link:         b.link,
		Accent:       accent.Hex(),
		AccentHover:  shiftLightness(accent, accentHoverShift).Hex(),
		AccentActive: shiftLightness(accent, accentActiveShift).Hex(),
		AccentMuted:  bg.BlendRgb(accent, accentMutedAlpha).Clamped().Hex(),
		OnAccent:     contrastText(accent),
	}
}

// shiftLightness moves c's HSL lightness by delta, clamped to [0, 1]
func shiftLightness(c colorful.Color, delta float64) colorful.Color {
	h, s, l := c.Hsl()
	l += delta
	if l < 0 {
		l = 0
	}
	if l > 1 {
		l = 1
	}
	return colorful.Hsl(h, s, l).Clamped()
}

// contrastText picks black or white text for a background
func contrastText(bg colorful.Color) string {
	l, _, _ := bg.Lab()
	if l > 0.6 {
		return "#000000"
	}
	return "#ffffff"
}

// Density controls vertical and horizontal spacing of message rows
type Density struct {
	// MessageGap is the number of blank lines between messages
	MessageGap int
	// Padding is the horizontal padding of message rows in cells
	Padding int
}

// NewDensity derives spacing from compact mode and font size. Terminals
// have no font scale, so the size maps onto padding.
func NewDensity(s models.Settings) Density {
	d := Density{MessageGap: 1, Padding: 1}
	if s.CompactMode {
		d.MessageGap = 0
	}
	switch {
	case s.FontSize <= 13:
		d.Padding = 0
	case s.FontSize >= 18:
		d.Padding = 2
	}
	return d
}
