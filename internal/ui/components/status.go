// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mmiapp/mmiapp-tui/internal/api"
	"github.com/mmiapp/mmiapp-tui/internal/ui/styles"
)

// StatusTone maps a demande status to its display tone.
func StatusTone(status string) styles.Tone {
	switch status {
	case api.StatusApproved:
		return styles.ToneSuccess
	case api.StatusRejected:
		return styles.ToneDanger
	case api.StatusIncomplete:
		return styles.ToneWarning
	case api.StatusInReview, api.StatusForwarded:
		return styles.ToneInfo
	default:
		return styles.ToneNeutral
	}
}

// StatusBadge renders a status label with its indicator.
func StatusBadge(status string) string {
	tone := StatusTone(status)
	return lipgloss.NewStyle().
		Foreground(tone.Color()).
		Render(tone.Indicator() + " " + api.StatusLabel(status))
}
