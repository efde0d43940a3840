// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/mmiapp/mmiapp-tui/internal/ui/styles"
)

// MenuItem is one entry of a Menu. ID is returned on selection.
type MenuItem struct {
	ID    string
	Label string
	Hint  string
}

// Menu is a vertical list with a cursor that wraps around.
type Menu struct {
	Items  []MenuItem
	cursor int
}

// NewMenu creates a menu with the cursor on the first item.
func NewMenu(items ...MenuItem) Menu {
	return Menu{Items: items}
}

// Up moves the cursor up.
func (m *Menu) Up() {
	if len(m.Items) == 0 {
		return
	}
	m.cursor = (m.cursor - 1 + len(m.Items)) % len(m.Items)
}

// Down moves the cursor down.
func (m *Menu) Down() {
	if len(m.Items) == 0 {
		return
	}
	m.cursor = (m.cursor + 1) % len(m.Items)
}

// Cursor returns the cursor position.
func (m Menu) Cursor() int {
	return m.cursor
}

// Selected returns the item under the cursor.
func (m Menu) Selected() (MenuItem, bool) {
	if len(m.Items) == 0 {
		return MenuItem{}, false
	}
	return m.Items[m.cursor], true
}

// View renders the menu.
func (m Menu) View(theme *styles.Theme) string {
	lines := make([]string, 0, len(m.Items))
	for i, item := range m.Items {
		label := item.Label
		if item.Hint != "" {
			label += "  " + theme.Muted.Render(item.Hint)
		}
		if i == m.cursor {
			lines = append(lines, theme.Selected.Render(label))
		} else {
			lines = append(lines, theme.MenuItem.Render(label))
		}
	}
	return strings.Join(lines, "\n")
}
