// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names accepted by NewTheme.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme holds the styled components of the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// Compact forces DensityCompact whatever the width.
	Compact bool

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header    lipgloss.Style
	Brand     lipgloss.Style
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	UserBadge lipgloss.Style

	// ==========================================================================
	// BODY
	// ==========================================================================

	Box       lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Muted     lipgloss.Style
	MenuItem  lipgloss.Style
	Selected  lipgloss.Style
	TableHead lipgloss.Style
	Focused   lipgloss.Style
	Blurred   lipgloss.Style

	// ==========================================================================
	// FOOTER
	// ==========================================================================

	StatusBar lipgloss.Style
	KeyHint   lipgloss.Style
	Countdown lipgloss.Style
}

// NewTheme creates a theme. name is "dark", "light" or "auto"; auto asks the
// terminal for its background.
func NewTheme(name string) *Theme {
	isDark := true
	switch name {
	case ThemeLight:
		isDark = false
	case ThemeDark:
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.Brand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		MarginBottom(1)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.UserBadge = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Padding(0, 1)

	t.Box = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.Label = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Width(22)

	t.Value = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.MenuItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.Selected = lipgloss.NewStyle().
		Foreground(Cyan).
		Background(SelectionBg).
		Bold(true).
		PaddingLeft(1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderTop(false).
		BorderRight(false).
		BorderBottom(false).
		BorderForeground(Cyan)

	t.TableHead = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true).
		Underline(true)

	t.Focused = lipgloss.NewStyle().
		Foreground(Cyan)

	t.Blurred = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.KeyHint = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Countdown = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// CompactWidth is the terminal width below which screens drop their
// padding and key hints.
const CompactWidth = 72

// Density is how much chrome a screen carries around its content.
type Density int

const (
	DensityRegular Density = iota
	DensityCompact
)

// Density returns DensityCompact when Compact is set (ui.compact_mode) or
// the terminal is narrower than CompactWidth.
func (t *Theme) Density() Density {
	if t.Compact || (t.Width > 0 && t.Width < CompactWidth) {
		return DensityCompact
	}
	return DensityRegular
}
