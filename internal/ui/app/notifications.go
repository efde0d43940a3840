// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmiapp/mmiapp-tui/internal/api"
	"github.com/mmiapp/mmiapp-tui/internal/ui/styles"
	"github.com/mmiapp/mmiapp-tui/internal/util"
)

type notificationsState struct {
	items    []api.Notification
	cursor   int
	open     bool
	viewport viewport.Model
	err      string
}

func newNotificationsState() notificationsState {
	return notificationsState{viewport: viewport.New(78, 16)}
}

func unreadCount(items []api.Notification) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}

func (m Model) notificationsCmd() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		items, err := backend.ListNotifications(context.Background())
		return notificationsLoadedMsg{items: items, err: err}
	}
}

func (m Model) markReadCmd(id int) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		return notificationReadMsg{id: id, err: backend.MarkNotificationRead(context.Background(), id)}
	}
}

func (m Model) notificationsLoaded(msg notificationsLoadedMsg) (Model, tea.Cmd) {
	switch m.current().id {
	case screenDashboard:
		if msg.err == nil {
			m.dash.unread = unreadCount(msg.items)
		}
		return m, nil
	case screenNotifications:
		m.loading = false
		if msg.err != nil {
			m.notifs.err = m.failed(msg.err)
			return m, nil
		}
		m.notifs.err = ""
		m.notifs.items = msg.items
		if m.notifs.cursor >= len(msg.items) {
			m.notifs.cursor = 0
		}
	}
	return m, nil
}

func (m Model) notificationRead(msg notificationReadMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		m.failed(msg.err)
		return m, nil
	}
	for i := range m.notifs.items {
		if m.notifs.items[i].ID == msg.id {
			m.notifs.items[i].Read = true
		}
	}
	return m, nil
}

func (m Model) notificationsKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.notifs.open {
		if key.Matches(msg, m.keys.Back) {
			m.notifs.open = false
			return m, nil
		}
		var cmd tea.Cmd
		m.notifs.viewport, cmd = m.notifs.viewport.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		return m.back()
	case key.Matches(msg, m.keys.Up):
		if m.notifs.cursor > 0 {
			m.notifs.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.notifs.cursor < len(m.notifs.items)-1 {
			m.notifs.cursor++
		}
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, tea.Batch(m.notificationsCmd(), m.spinner.Tick)
	case key.Matches(msg, m.keys.Select):
		if m.notifs.cursor >= len(m.notifs.items) {
			return m, nil
		}
		n := m.notifs.items[m.notifs.cursor]
		m.notifs.open = true
		m.notifs.viewport.SetContent(m.markdown.Render(n.Body, m.notifs.viewport.Width))
		m.notifs.viewport.GotoTop()
		if !n.Read {
			return m, m.markReadCmd(n.ID)
		}
	}
	return m, nil
}

func (m Model) notificationsView() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Notifications"))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " Chargement...")
		return b.String()
	case m.notifs.err != "":
		b.WriteString(styles.RenderError(m.notifs.err))
		return b.String()
	case len(m.notifs.items) == 0:
		b.WriteString(m.theme.Muted.Render("Aucune notification."))
		return b.String()
	}

	if m.notifs.open {
		n := m.notifs.items[m.notifs.cursor]
		b.WriteString(m.theme.Value.Bold(true).Render(n.Title))
		b.WriteString("\n")
		b.WriteString(m.notifs.viewport.View())
		return b.String()
	}

	for i, n := range m.notifs.items {
		marker := styles.StatusIndicators.Active
		if n.Read {
			marker = styles.StatusIndicators.Pending
		}
		date := ""
		if !n.CreatedAt.IsZero() {
			date = "  " + n.CreatedAt.Local().Format("02/01 15:04")
		}
		row := marker + " " + util.TruncateWidth(n.Title, m.width-24) + m.theme.Muted.Render(date)
		if i == m.notifs.cursor {
			b.WriteString(m.theme.Selected.Render(row))
		} else {
			b.WriteString(m.theme.MenuItem.Render(row))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render(unreadSummary(unreadCount(m.notifs.items))))
	return b.String()
}

func unreadSummary(n int) string {
	switch n {
	case 0:
		return "Tout est lu."
	case 1:
		return "1 notification non lue."
	}
	return fmt.Sprintf("%d notifications non lues.", n)
}
