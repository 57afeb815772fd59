package models

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Theme selects the base palette
type Theme string

// Supported themes
const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Settings defaults and bounds
const (
	DefaultAccentColor = "#5865f2"
	DefaultTheme       = ThemeDark
	DefaultFontSize    = 16
	MinFontSize        = 12
	MaxFontSize        = 24
	MaxDisplayName     = 32
	MaxAboutMe         = 190
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Settings holds presentation preferences. They are stored apart from the
// credentials and survive logout.
type Settings struct {
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
	BannerURL   string `json:"bannerUrl"`
	AboutMe     string `json:"aboutMe"`
	AccentColor string `json:"accentColor"`
	Theme       Theme  `json:"theme"`
	CompactMode bool   `json:"compactMode"`
	FontSize    int    `json:"fontSize"`
}

// DefaultSettings returns the settings used before anything was saved
func DefaultSettings() Settings {
	return Settings{
		AccentColor: DefaultAccentColor,
		Theme:       DefaultTheme,
		CompactMode: false,
		FontSize:    DefaultFontSize,
	}
}

// WithDefaults fills zero fields from DefaultSettings. Stored settings from an
// older revision may lack newer fields.
func (s Settings) WithDefaults() Settings {
	def := DefaultSettings()
	if s.AccentColor == "" {
		s.AccentColor = def.AccentColor
	}
	if s.Theme == "" {
		s.Theme = def.Theme
	}
	if s.FontSize == 0 {
		s.FontSize = def.FontSize
	}
	return s
}

// Validate checks every field and returns the first problem found
func (s Settings) Validate() error {
	if utf8.RuneCountInString(s.DisplayName) > MaxDisplayName {
		return &ValidationError{Field: "displayName", Message: fmt.Sprintf("must be %d characters or fewer", MaxDisplayName)}
	}
	if utf8.RuneCountInString(s.AboutMe) > MaxAboutMe {
		return &ValidationError{Field: "aboutMe", Message: fmt.Sprintf("must be %d characters or fewer", MaxAboutMe)}
	}
	if err := validateURL("avatarUrl", s.AvatarURL); err != nil {
		return err
	}
	if err := validateURL("bannerUrl", s.BannerURL); err != nil {
		return err
	}
	if !hexColorPattern.MatchString(s.AccentColor) {
		return &ValidationError{Field: "accentColor", Message: "must look like #rrggbb"}
	}
	if s.Theme != ThemeDark && s.Theme != ThemeLight {
		return &ValidationError{Field: "theme", Message: "must be dark or light"}
	}
	if s.FontSize < MinFontSize || s.FontSize > MaxFontSize {
		return &ValidationError{Field: "fontSize", Message: fmt.Sprintf("must be between %d and %d", MinFontSize, MaxFontSize)}
	}
	return nil
}

// SettingKeys lists the keys accepted by Set, in display order
var SettingKeys = []string{"displayName", "avatarUrl", "bannerUrl", "aboutMe", "accentColor", "theme", "compactMode", "fontSize"}

// Set applies one textual change and validates the result. The receiver is
// not modified on error.
func (s Settings) Set(key, value string) (Settings, error) {
	value = strings.TrimSpace(value)
	next := s

	switch strings.ToLower(key) {
	case "displayname", "name":
		next.DisplayName = value
	case "avatarurl", "avatar":
		next.AvatarURL = value
	case "bannerurl", "banner":
		next.BannerURL = value
	case "aboutme", "about":
		next.AboutMe = value
	case "accentcolor", "accent", "color":
		if value != "" && !strings.HasPrefix(value, "#") {
			value = "#" + value
		}
		next.AccentColor = strings.ToLower(value)
	case "theme":
		next.Theme = Theme(strings.ToLower(value))
	case "compactmode", "compact":
		b, err := parseToggle(value)
		if err != nil {
			return s, &ValidationError{Field: "compactMode", Message: err.Error()}
		}
		next.CompactMode = b
	case "fontsize", "font":
		n, err := strconv.Atoi(strings.TrimSuffix(value, "px"))
		if err != nil {
			return s, &ValidationError{Field: "fontSize", Message: "must be a number"}
		}
		next.FontSize = n
	default:
		return s, &ValidationError{Field: "key", Message: fmt.Sprintf("unknown setting %q", key)}
	}

	if err := next.Validate(); err != nil {
		return s, err
	}
	return next, nil
}

// Get returns the textual value of one setting
func (s Settings) Get(key string) (string, bool) {
	switch strings.ToLower(key) {
	case "displayname":
		return s.DisplayName, true
	case "avatarurl":
		return s.AvatarURL, true
	case "bannerurl":
		return s.BannerURL, true
	case "aboutme":
		return s.AboutMe, true
	case "accentcolor":
		return s.AccentColor, true
	case "theme":
		return string(s.Theme), true
	case "compactmode":
		return strconv.FormatBool(s.CompactMode), true
	case "fontsize":
		return strconv.Itoa(s.FontSize), true
	}
	return "", false
}

func validateURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: field, Message: "must be an http(s) URL"}
	}
	return nil
}

func parseToggle(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "yes", "y":
		return true, nil
	case "off", "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("must be on or off")
	}
	return b, nil
}
