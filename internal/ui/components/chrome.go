// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/mmiapp/mmiapp-tui/internal/session"
	"github.com/mmiapp/mmiapp-tui/internal/ui/styles"
)

// KeyHint is one "key action" pair of the status bar.
type KeyHint struct {
	Key    string
	Action string
}

// RenderHeader renders the top bar: brand and title on the left, the
// signed-in user on the right.
func RenderHeader(theme *styles.Theme, title, user string, width int) string {
	left := theme.Brand.Render("MMIAPP")
	if title != "" {
		left += theme.Muted.Render("  " + title)
	}
	right := ""
	if user != "" {
		right = theme.UserBadge.Render(user)
	}
	return theme.Header.Render(spread(left, right, width-2))
}

// RenderStatusBar renders key hints and, while the session is warning,
// the countdown.
func RenderStatusBar(theme *styles.Theme, hints []KeyHint, st session.State, width int) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, h.Key+" "+theme.KeyHint.Render(h.Action))
	}
	left := strings.Join(parts, "  ")

	right := ""
	switch st.Phase {
	case session.Warning:
		right = theme.Countdown.Render("Session " + st.Countdown())
	case session.Expired:
		right = styles.RenderError("Session expirée")
	}
	return theme.StatusBar.Render(spread(left, right, width-2))
}

// spread places left and right at the two ends of width columns.
// left is truncated when both do not fit.
func spread(left, right string, width int) string {
	if width <= 0 {
		return left + " " + right
	}
	lw, rw := lipgloss.Width(left), lipgloss.Width(right)
	if lw+rw+1 > width {
		if right == "" {
			return left
		}
		return truncate.StringWithTail(left, uint(maxInt(width-rw-1, 1)), "…") + " " + right
	}
	return left + strings.Repeat(" ", width-lw-rw) + right
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
