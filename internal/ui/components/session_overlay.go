// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmiapp/mmiapp-tui/internal/auth"
	"github.com/mmiapp/mmiapp-tui/internal/session"
	"github.com/mmiapp/mmiapp-tui/internal/ui/styles"
)

// =============================================================================
// SESSION OVERLAY
// =============================================================================

// SessionOverlay mirrors the session monitor state on screen.
// Warning shows a countdown; Expired shows the relogin notice.
type SessionOverlay struct {
	state session.State

	width  int
	height int
}

// NewSessionOverlay creates a hidden overlay.
func NewSessionOverlay() SessionOverlay {
	return SessionOverlay{state: session.IdleState}
}

// SetSize sets the overlay dimensions.
func (o *SessionOverlay) SetSize(width, height int) {
	o.width = width
	o.height = height
}

// SetState follows the monitor. Idle hides the overlay.
func (o *SessionOverlay) SetState(st session.State) {
	o.state = st
}

// State returns the mirrored monitor state.
func (o SessionOverlay) State() session.State {
	return o.state
}

// IsVisible reports whether the overlay covers the screen.
func (o SessionOverlay) IsVisible() bool {
	return o.state.Phase != session.Idle
}

// IsExpired reports whether the expired notice is shown.
func (o SessionOverlay) IsExpired() bool {
	return o.state.Phase == session.Expired
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// SessionExtendMsg asks the monitor to keep the session alive.
type SessionExtendMsg struct{}

// SessionReloginMsg asks to return to the login screen after expiry.
type SessionReloginMsg struct{}

// Update handles messages for the overlay. Any key while warning extends
// the session; any key once expired returns to login. The overlay keeps
// showing its state until the monitor reports a new one.
func (o SessionOverlay) Update(msg tea.Msg) (SessionOverlay, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		o.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch o.state.Phase {
		case session.Warning:
			return o, func() tea.Msg { return SessionExtendMsg{} }
		case session.Expired:
			o.state = session.IdleState
			return o, func() tea.Msg { return SessionReloginMsg{} }
		}
	}
	return o, nil
}

// View renders the overlay, or "" when hidden.
func (o SessionOverlay) View() string {
	switch o.state.Phase {
	case session.Warning:
		return o.place(o.viewWarning(), styles.Amber)
	case session.Expired:
		return o.place(o.viewExpired(), styles.Rose)
	}
	return ""
}

// =============================================================================
// RENDER METHODS
// =============================================================================

func (o SessionOverlay) contentWidth() int {
	w := o.width - 8
	if w < 40 {
		w = 40
	}
	if w > 60 {
		w = 60
	}
	return w
}

func (o SessionOverlay) viewWarning() string {
	maxWidth := o.contentWidth()

	title := lipgloss.NewStyle().
		Foreground(styles.Amber).
		Bold(true).
		Render(styles.StatusIndicators.Warning + " Session bientôt expirée")

	countdown := lipgloss.NewStyle().
		Foreground(styles.Amber).
		Bold(true).
		Render(o.state.Countdown())

	msg := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(maxWidth - 4).
		Align(lipgloss.Center).
		Render("Votre session expire dans " + countdown)

	hint := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Italic(true).
		Render("Appuyez sur une touche pour prolonger la session")

	return lipgloss.JoinVertical(lipgloss.Center, title, "", msg, "", hint)
}

func (o SessionOverlay) viewExpired() string {
	maxWidth := o.contentWidth()

	title := lipgloss.NewStyle().
		Foreground(styles.Rose).
		Bold(true).
		Render(styles.StatusIndicators.Error + " Session expirée")

	msg := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Width(maxWidth - 4).
		Align(lipgloss.Center).
		Render(auth.NoticeSessionExpired)

	hint := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Italic(true).
		Render("Appuyez sur une touche pour revenir à la connexion")

	return lipgloss.JoinVertical(lipgloss.Center, title, "", msg, "", hint)
}

func (o SessionOverlay) place(content string, border lipgloss.AdaptiveColor) string {
	width := o.width
	if width == 0 {
		width = 60
	}
	height := o.height
	if height == 0 {
		height = 24
	}

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(border).
		Padding(1, 3).
		Width(o.contentWidth()).
		Align(lipgloss.Center).
		Render(content)

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
		lipgloss.WithWhitespaceBackground(styles.SurfaceDim),
	)
}
