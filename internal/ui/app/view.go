// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmiapp/mmiapp-tui/internal/auth"
	"github.com/mmiapp/mmiapp-tui/internal/ui/components"
	"github.com/mmiapp/mmiapp-tui/internal/ui/styles"
)

// View renders the current screen. The session overlay covers everything.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.overlay.IsVisible() {
		return m.overlay.View()
	}

	compact := m.theme.Density() == styles.DensityCompact
	header := components.RenderHeader(m.theme, m.title(), m.userLabel(), m.width)
	bodyStyle := lipgloss.NewStyle().Padding(1, 2)
	hints := m.hints()
	if compact {
		bodyStyle = lipgloss.NewStyle().Padding(0, 1)
		hints = nil
	}
	body := bodyStyle.
		Height(m.bodyHeight()).
		MaxHeight(m.bodyHeight() + bodyStyle.GetVerticalPadding()).
		Render(m.body())
	footer := components.RenderStatusBar(m.theme, hints, m.overlay.State(), m.width)

	parts := []string{header, body}
	if toasts := components.RenderToastStack(m.toasts.Toasts(), m.toasts.Now(), m.width); toasts != "" {
		parts = append(parts, toasts)
	}
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) body() string {
	r := m.current()
	if r.protected() && m.checking {
		return m.spinner.View() + " Vérification de la session..."
	}
	if r.protected() && !m.signedIn {
		return ""
	}

	switch r.id {
	case screenLogin:
		return m.loginView()
	case screenDashboard:
		return m.dashboardView()
	case screenDemandes:
		return m.demandesView()
	case screenDemande:
		return m.demandeView()
	case screenNotifications:
		return m.notificationsView()
	case screenUpload:
		return m.uploadView()
	case screenAdminGate:
		return m.adminGateView()
	case screenAdmin:
		return m.adminView()
	}
	return ""
}

func (m Model) title() string {
	switch m.current().id {
	case screenLogin:
		return "Connexion"
	case screenDashboard:
		return "Tableau de bord"
	case screenDemandes, screenDemande:
		return "Demandes"
	case screenNotifications:
		return "Notifications"
	case screenUpload:
		return "Nouvelle demande"
	case screenAdminGate, screenAdmin:
		return "Administration"
	}
	return ""
}

func (m Model) userLabel() string {
	if !m.signedIn {
		return ""
	}
	return m.user.DisplayName() + " - " + auth.RoleName(m.user.RoleID)
}

func (m Model) hints() []components.KeyHint {
	k := m.keys
	var bindings []key.Binding
	switch m.current().id {
	case screenLogin:
		bindings = []key.Binding{k.Select, k.Submit, k.Quit}
	case screenDashboard:
		bindings = []key.Binding{k.Up, k.Down, k.Select, k.Logout, k.Quit}
	case screenDemandes:
		bindings = []key.Binding{k.Select, k.Filter, k.Status, k.NextPage, k.Back, k.Logout}
	case screenDemande, screenAdmin:
		bindings = []key.Binding{k.Up, k.Down, k.Refresh, k.Back, k.Logout}
	case screenNotifications:
		bindings = []key.Binding{k.Select, k.Refresh, k.Back, k.Logout}
	case screenUpload:
		bindings = []key.Binding{k.Submit, k.Back, k.Logout}
	case screenAdminGate:
		bindings = []key.Binding{k.Select, k.Back, k.Logout}
	}
	if m.toasts.HasToasts() {
		bindings = append(bindings, k.Dismiss)
	}
	return hints(bindings...)
}
