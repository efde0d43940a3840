// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// PRIMARY ACCENT COLORS
// =============================================================================

// Purple - Primary accent, selections
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, info, highlights
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Success states, approved demandes
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Errors, rejected demandes, expired sessions
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, session countdown
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

// Surface - Main background
var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// SurfaceDim - Headers, footers, overlay backdrops
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// Overlay - Borders, separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// SelectionBg - Highlighted row
var SelectionBg = lipgloss.AdaptiveColor{Light: "#BFDBFE", Dark: "#1E3A5F"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Labels
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Hints, timestamps
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// TextInverse - Text on colored backgrounds
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// =============================================================================
// TONES
// =============================================================================

// Tone is the semantic weight of a displayed state.
type Tone int

const (
	ToneNeutral Tone = iota
	ToneInfo
	ToneSuccess
	ToneWarning
	ToneDanger
)

// Color returns the foreground color for a tone.
func (t Tone) Color() lipgloss.AdaptiveColor {
	switch t {
	case ToneInfo:
		return Cyan
	case ToneSuccess:
		return Emerald
	case ToneWarning:
		return Amber
	case ToneDanger:
		return Rose
	default:
		return TextSecondary
	}
}

// Indicator returns the ASCII indicator for a tone.
func (t Tone) Indicator() string {
	switch t {
	case ToneInfo:
		return StatusIndicators.Info
	case ToneSuccess:
		return StatusIndicators.Success
	case ToneWarning:
		return StatusIndicators.Warning
	case ToneDanger:
		return StatusIndicators.Error
	default:
		return StatusIndicators.Pending
	}
}

// =============================================================================
// ACCESSIBILITY
// =============================================================================

// StatusIndicatorSet contains text indicators for status states.
type StatusIndicatorSet struct {
	Success string
	Error   string
	Warning string
	Info    string
	Pending string
	Active  string
}

// StatusIndicators provides ASCII indicators alongside colors.
var StatusIndicators = StatusIndicatorSet{
	Success: "[OK]",
	Error:   "[X]",
	Warning: "[!]",
	Info:    "[i]",
	Pending: "[ ]",
	Active:  "[*]",
}

// RenderTone renders message with the indicator and color of tone.
func RenderTone(tone Tone, message string) string {
	style := lipgloss.NewStyle().
		Foreground(tone.Color()).
		Bold(tone != ToneNeutral)
	return style.Render(tone.Indicator() + " " + message)
}

// RenderSuccess renders a success message.
func RenderSuccess(message string) string {
	return RenderTone(ToneSuccess, message)
}

// RenderError renders an error message.
func RenderError(message string) string {
	return RenderTone(ToneDanger, message)
}

// RenderWarning renders a warning message.
func RenderWarning(message string) string {
	return RenderTone(ToneWarning, message)
}

// RenderInfo renders an info message.
func RenderInfo(message string) string {
	return RenderTone(ToneInfo, message)
}
