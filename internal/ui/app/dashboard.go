// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmiapp/mmiapp-tui/internal/auth"
	"github.com/mmiapp/mmiapp-tui/internal/ui/components"
)

// Dashboard menu entries.
const (
	menuDemandes      = "demandes"
	menuUpload        = "upload"
	menuNotifications = "notifications"
	menuAdmin         = "admin"
	menuLogout        = "logout"
)

type dashboardState struct {
	menu   components.Menu
	unread int
}

// newDashboardState builds the menu a role sees.
func newDashboardState(role int) dashboardState {
	var items []components.MenuItem
	if role == auth.RoleApplicant {
		items = append(items,
			components.MenuItem{ID: menuDemandes, Label: "Mes demandes"},
			components.MenuItem{ID: menuUpload, Label: "Nouvelle demande: permis d'eau minérale"},
		)
	} else {
		items = append(items, components.MenuItem{ID: menuDemandes, Label: "Demandes à traiter"})
	}
	items = append(items, components.MenuItem{ID: menuNotifications, Label: "Notifications"})
	if role == auth.RoleSuperAdmin {
		items = append(items, components.MenuItem{ID: menuAdmin, Label: "Administration"})
	}
	items = append(items, components.MenuItem{ID: menuLogout, Label: "Se déconnecter"})
	return dashboardState{menu: components.NewMenu(items...)}
}

func (m Model) dashboardKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.dash.menu.Up()
	case key.Matches(msg, m.keys.Down):
		m.dash.menu.Down()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.notificationsCmd()
	case key.Matches(msg, m.keys.Select):
		item, ok := m.dash.menu.Selected()
		if !ok {
			return m, nil
		}
		switch item.ID {
		case menuDemandes:
			return m.push(PathDemandes)
		case menuUpload:
			return m.push(PathUpload)
		case menuNotifications:
			return m.push(PathNotifications)
		case menuAdmin:
			return m.push(PathAdmin)
		case menuLogout:
			cmd := m.logoutCmd()
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) dashboardView() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Espace " + auth.RoleName(m.user.RoleID)))
	b.WriteString("\n")
	b.WriteString(m.theme.Subtitle.Render("Bienvenue, " + m.user.DisplayName()))
	b.WriteString("\n\n")

	menu := m.dash.menu
	menu.Items = append([]components.MenuItem(nil), menu.Items...)
	for i := range menu.Items {
		if menu.Items[i].ID == menuNotifications && m.dash.unread > 0 {
			menu.Items[i].Hint = fmt.Sprintf("(%d non lue(s))", m.dash.unread)
		}
	}
	b.WriteString(menu.View(m.theme))
	return b.String()
}
