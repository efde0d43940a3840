// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/mmiapp/mmiapp-tui/internal/ui/components"
)

// KeyMap defines the keyboard bindings of the application.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PrevPage key.Binding
	NextPage key.Binding
	Select   key.Binding
	Back     key.Binding
	Filter   key.Binding
	Status   key.Binding
	Refresh  key.Binding
	Submit   key.Binding
	Logout   key.Binding
	Dismiss  key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "haut"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "bas"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "["),
			key.WithHelp("←", "page préc."),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "]"),
			key.WithHelp("→", "page suiv."),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Entrée", "ouvrir"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Échap", "retour"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filtrer"),
		),
		Status: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "statut"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "actualiser"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "envoyer"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "déconnexion"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "fermer l'alerte"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-q", "quitter"),
		),
	}
}

// hints converts bindings into status bar hints.
func hints(bindings ...key.Binding) []components.KeyHint {
	out := make([]components.KeyHint, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, components.KeyHint{Key: h.Key, Action: h.Desc})
	}
	return out
}
