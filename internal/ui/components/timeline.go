// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mmiapp/mmiapp-tui/internal/api"
	"github.com/mmiapp/mmiapp-tui/internal/ui/styles"
)

// TimelineDateFormat is how entry dates are shown.
const TimelineDateFormat = "02/01/2006 15:04"

// RenderTimeline renders the status history of a demande, oldest first,
// as a vertical line of steps. The last step is the current status.
func RenderTimeline(entries []api.TimelineEntry, width int) string {
	if len(entries) == 0 {
		return lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Render("Aucun historique pour cette demande.")
	}
	if width <= 0 {
		width = 80
	}

	rail := lipgloss.NewStyle().Foreground(styles.Overlay)
	date := lipgloss.NewStyle().Foreground(styles.TextMuted)
	who := lipgloss.NewStyle().Foreground(styles.TextSecondary)
	comment := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Italic(true).
		Width(width - 6)

	var b strings.Builder
	for i, e := range entries {
		last := i == len(entries)-1
		tone := StatusTone(e.Status)

		dot := "o"
		if last {
			dot = "@"
		}
		b.WriteString(lipgloss.NewStyle().Foreground(tone.Color()).Bold(last).Render(dot))
		b.WriteString(" ")
		b.WriteString(StatusBadge(e.Status))
		if !e.Date.IsZero() {
			b.WriteString("  ")
			b.WriteString(date.Render(e.Date.Local().Format(TimelineDateFormat)))
		}
		b.WriteString("\n")

		bar := rail.Render("|")
		if last {
			bar = " "
		}
		actor := strings.TrimSpace(strings.Join(nonEmpty(e.Actor, e.Service), " - "))
		if actor != "" {
			b.WriteString(bar + "   " + who.Render(actor) + "\n")
		}
		if c := strings.TrimSpace(e.Comment); c != "" {
			for _, line := range strings.Split(comment.Render(c), "\n") {
				b.WriteString(bar + "   " + line + "\n")
			}
		}
		if !last {
			b.WriteString(bar + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
