// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmiapp/mmiapp-tui/internal/ui/styles"
)

// FieldSpec describes one input of a Form.
type FieldSpec struct {
	Key         string
	Label       string
	Placeholder string
	Secret      bool
	Required    bool
	CharLimit   int
}

type field struct {
	spec  FieldSpec
	input textinput.Model
}

// Form is a stack of labeled text inputs with one focused at a time.
// Tab and Down move forward, Shift+Tab and Up move back.
type Form struct {
	fields []field
	focus  int
}

// NewForm creates a form focused on its first field.
func NewForm(specs ...FieldSpec) Form {
	f := Form{fields: make([]field, 0, len(specs))}
	for _, spec := range specs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = spec.Placeholder
		ti.CharLimit = spec.CharLimit
		if ti.CharLimit == 0 {
			ti.CharLimit = 256
		}
		if spec.Secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '*'
		}
		f.fields = append(f.fields, field{spec: spec, input: ti})
	}
	if len(f.fields) > 0 {
		f.fields[0].input.Focus()
	}
	return f
}

// Focused returns the key of the focused field.
func (f Form) Focused() string {
	if len(f.fields) == 0 {
		return ""
	}
	return f.fields[f.focus].spec.Key
}

// Value returns the trimmed value of key.
func (f Form) Value(key string) string {
	for _, fl := range f.fields {
		if fl.spec.Key == key {
			if fl.spec.Secret {
				return fl.input.Value()
			}
			return strings.TrimSpace(fl.input.Value())
		}
	}
	return ""
}

// SetValue sets the value of key.
func (f *Form) SetValue(key, value string) {
	for i := range f.fields {
		if f.fields[i].spec.Key == key {
			f.fields[i].input.SetValue(value)
			return
		}
	}
}

// Missing returns the labels of required fields left empty.
func (f Form) Missing() []string {
	var out []string
	for _, fl := range f.fields {
		if fl.spec.Required && strings.TrimSpace(fl.input.Value()) == "" {
			out = append(out, fl.spec.Label)
		}
	}
	return out
}

// Reset empties every field and focuses the first.
func (f *Form) Reset() {
	for i := range f.fields {
		f.fields[i].input.SetValue("")
	}
	f.setFocus(0)
}

// IsLast reports whether the last field has focus.
func (f Form) IsLast() bool {
	return f.focus == len(f.fields)-1
}

func (f *Form) setFocus(i int) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	f.fields[f.focus].input.Blur()
	f.focus = (i + len(f.fields)) % len(f.fields)
	return f.fields[f.focus].input.Focus()
}

// Next focuses the following field.
func (f *Form) Next() tea.Cmd {
	return f.setFocus(f.focus + 1)
}

// Prev focuses the preceding field.
func (f *Form) Prev() tea.Cmd {
	return f.setFocus(f.focus - 1)
}

// Update handles focus keys and forwards the rest to the focused input.
func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	if len(f.fields) == 0 {
		return f, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			cmd := f.Next()
			return f, cmd
		case "shift+tab", "up":
			cmd := f.Prev()
			return f, cmd
		}
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return f, cmd
}

// View renders the form.
func (f Form) View(theme *styles.Theme) string {
	lines := make([]string, 0, len(f.fields))
	for i, fl := range f.fields {
		label := fl.spec.Label
		if fl.spec.Required {
			label += " *"
		}
		style := theme.Blurred
		if i == f.focus {
			style = theme.Focused
		}
		lines = append(lines, style.Width(theme.Label.GetWidth()).Render(label)+" "+fl.input.View())
	}
	return strings.Join(lines, "\n")
}
