// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmiapp/mmiapp-tui/internal/auth"
	"github.com/mmiapp/mmiapp-tui/internal/credential"
	"github.com/mmiapp/mmiapp-tui/internal/session"
	"github.com/mmiapp/mmiapp-tui/internal/ui/styles"
)

// =============================================================================
// GATE
// =============================================================================

type adminGateState struct {
	input  textinput.Model
	busy   bool
	err    string
	locked bool
}

func newAdminGateState() adminGateState {
	ti := textinput.New()
	ti.Prompt = "Code: "
	ti.Placeholder = "000000"
	ti.CharLimit = 16
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'
	return adminGateState{input: ti}
}

func (m Model) adminGateKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.gate.busy {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.back()
	case msg.Type == tea.KeyEnter:
		code := strings.TrimSpace(m.gate.input.Value())
		if code == "" {
			return m, nil
		}
		if m.admin == nil {
			m.gate.err = "Vérification du code indisponible"
			return m, nil
		}
		m.gate.busy = true
		m.gate.err = ""
		gate := m.admin
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
			defer cancel()
			return adminVerifiedMsg{err: gate.Verify(ctx, code)}
		}
	}
	var cmd tea.Cmd
	m.gate.input, cmd = m.gate.input.Update(msg)
	return m, cmd
}

func (m Model) adminVerified(msg adminVerifiedMsg) (Model, tea.Cmd) {
	if m.current().id != screenAdminGate {
		return m, nil
	}
	m.gate.busy = false
	m.gate.input.SetValue("")
	m.gate.locked = errors.Is(msg.err, auth.ErrAdminLocked)
	switch {
	case msg.err == nil:
		m.stack[len(m.stack)-1] = resolve(m.router, PathAdmin)
		return m.enter()
	case errors.Is(msg.err, auth.ErrInvalidAdminCode):
		m.gate.err = "Code d'accès invalide"
	case errors.Is(msg.err, auth.ErrAdminUnavailable):
		m.gate.err = "Vérification du code indisponible"
	case errors.Is(msg.err, auth.ErrAdminLocked):
		m.gate.err = msg.err.Error()
	default:
		if text := errorText(msg.err); text != "" {
			m.gate.err = text
		}
	}
	return m, nil
}

func (m Model) adminGateView() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Accès administrateur"))
	b.WriteString("\n")
	b.WriteString(m.theme.Subtitle.Render("Saisissez le code d'accès à six chiffres."))
	b.WriteString("\n\n")
	b.WriteString(m.gate.input.View())
	b.WriteString("\n\n")
	switch {
	case m.gate.busy:
		b.WriteString(m.spinner.View() + " Vérification...")
	case m.gate.locked:
		b.WriteString(styles.RenderWarning(m.gate.err))
	case m.gate.err != "":
		b.WriteString(styles.RenderError(m.gate.err))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.RenderInfo("entrée: valider  échap: retour"))
	return b.String()
}

// =============================================================================
// ADMIN AREA
// =============================================================================

func (m Model) adminKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.back()
	case msg.String() == "l":
		if m.admin != nil {
			m.admin.Lock()
		}
		return m.back()
	}
	return m, nil
}

func (m Model) adminView() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Administration"))
	b.WriteString("\n")
	b.WriteString(styles.RenderSuccess("Accès déverrouillé pour cette session"))
	b.WriteString("\n\n")

	b.WriteString(m.theme.TableHead.Render("Destinations par rôle"))
	b.WriteString("\n")
	for _, line := range m.router.Routes() {
		b.WriteString(m.theme.MenuItem.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.theme.TableHead.Render("Session"))
	b.WriteString("\n")
	b.WriteString(m.theme.Label.Render("Vérification") + m.sessionCfg.CheckInterval.String() + "\n")
	b.WriteString(m.theme.Label.Render("Alerte avant expiration") + m.sessionCfg.WarningThreshold.String() + "\n")
	b.WriteString(m.theme.Label.Render("État") + m.overlay.State().String() + "\n")
	if rec, err := m.store.Get(); err == nil {
		if exp, err := credential.ExpiresAt(rec.Token); err == nil {
			left := int(exp.Sub(m.clock()).Seconds())
			b.WriteString(m.theme.Label.Render("Expire dans") + session.FormatRemaining(left) + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render("l: verrouiller l'administration"))
	return b.String()
}
