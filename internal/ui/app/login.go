// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmiapp/mmiapp-tui/internal/api"
	"github.com/mmiapp/mmiapp-tui/internal/auth"
	"github.com/mmiapp/mmiapp-tui/internal/ui/components"
	"github.com/mmiapp/mmiapp-tui/internal/ui/styles"
)

type loginState struct {
	form components.Form
	err  string
	busy bool
}

func newLoginState() loginState {
	return loginState{
		form: components.NewForm(
			components.FieldSpec{Key: "email", Label: "Email", Placeholder: "prenom.nom@mmi.gov.mg", Required: true},
			components.FieldSpec{Key: "password", Label: "Mot de passe", Secret: true, Required: true},
		),
	}
}

func (m Model) loginKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.login.busy {
		return m, nil
	}

	submit := key.Matches(msg, m.keys.Submit)
	if msg.Type == tea.KeyEnter {
		if !m.login.form.IsLast() {
			cmd := m.login.form.Next()
			return m, cmd
		}
		submit = true
	}
	if !submit {
		var cmd tea.Cmd
		m.login.form, cmd = m.login.form.Update(msg)
		return m, cmd
	}

	if missing := m.login.form.Missing(); len(missing) > 0 {
		m.login.err = "Champs requis: " + strings.Join(missing, ", ")
		return m, nil
	}
	m.login.err = ""
	m.login.busy = true
	m.loading = true
	return m, tea.Batch(
		m.loginCmd(m.login.form.Value("email"), m.login.form.Value("password")),
		m.spinner.Tick,
	)
}

// loginCmd authenticates and hands the record to the guard, which stores
// it and redirects to the role's landing screen.
func (m Model) loginCmd(email, password string) tea.Cmd {
	backend, guard, router := m.backend, m.guard, m.router
	return func() tea.Msg {
		resp, err := backend.Login(context.Background(), email, password)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		rec := resp.Record()
		if !auth.KnownRole(rec.User.RoleID) {
			return loginDoneMsg{err: fmt.Errorf("rôle %d non pris en charge", rec.User.RoleID)}
		}
		return loginDoneMsg{err: guard.SignIn(rec, router.Destination(rec.User.RoleID))}
	}
}

func (m Model) loginDone(msg loginDoneMsg) (Model, tea.Cmd) {
	m.loading = false
	if m.current().id != screenLogin {
		return m, nil
	}
	m.login.busy = false
	if msg.err == nil {
		return m, nil
	}
	if errors.Is(msg.err, api.ErrInvalidLogin) {
		m.login.err = "Email ou mot de passe incorrect"
	} else {
		m.login.err = "Connexion impossible: " + errorText(msg.err)
	}
	m.login.form.SetValue("password", "")
	return m, nil
}

func (m Model) loginView() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Connexion"))
	b.WriteString("\n")
	b.WriteString(m.theme.Subtitle.Render("Ministère des Mines et de l'Industrie - suivi des demandes"))
	b.WriteString("\n\n")
	b.WriteString(m.login.form.View(m.theme))
	b.WriteString("\n\n")
	switch {
	case m.login.busy:
		b.WriteString(m.spinner.View() + " Connexion en cours...")
	case m.login.err != "":
		b.WriteString(styles.RenderError(m.login.err))
	}
	return b.String()
}
