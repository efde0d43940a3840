// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/mmiapp/mmiapp-tui/internal/api"
	"github.com/mmiapp/mmiapp-tui/internal/auth"
	"github.com/mmiapp/mmiapp-tui/internal/session"
	"github.com/mmiapp/mmiapp-tui/internal/ui/styles"
)

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// =============================================================================
// SESSION OVERLAY
// =============================================================================

func TestSessionOverlay_Warning(t *testing.T) {
	o := NewSessionOverlay()
	o.SetSize(80, 24)
	require.False(t, o.IsVisible())
	require.Empty(t, o.View())

	o.SetState(session.State{Phase: session.Warning, SecondsRemaining: 299})
	require.True(t, o.IsVisible())
	require.False(t, o.IsExpired())

	view := o.View()
	require.Contains(t, view, "4:59")
	require.Contains(t, view, "Votre session expire dans")

	o, cmd := o.Update(keyPress("a"))
	require.NotNil(t, cmd)
	require.IsType(t, SessionExtendMsg{}, cmd())
	// stays until the monitor reports Idle
	require.True(t, o.IsVisible())

	o.SetState(session.IdleState)
	require.Empty(t, o.View())
}

func TestSessionOverlay_Expired(t *testing.T) {
	o := NewSessionOverlay()
	o.SetState(session.ExpiredState)
	require.True(t, o.IsExpired())
	require.Contains(t, o.View(), auth.NoticeSessionExpired)

	o, cmd := o.Update(keyPress("x"))
	require.NotNil(t, cmd)
	require.IsType(t, SessionReloginMsg{}, cmd())
	require.False(t, o.IsVisible())
}

func TestSessionOverlay_IdleIgnoresKeys(t *testing.T) {
	o := NewSessionOverlay()
	_, cmd := o.Update(keyPress("a"))
	require.Nil(t, cmd)
}

// =============================================================================
// TOASTS
// =============================================================================

func TestToastManager(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	m := NewToastManager()
	m.SetClock(func() time.Time { return now })

	id := m.AddError(auth.NoticeSessionExpired)
	require.Equal(t, id, m.AddError(auth.NoticeSessionExpired), "same notice is not stacked")
	m.AddSuccess("Demande envoyée")
	require.Len(t, m.Toasts(), 2)
	require.Equal(t, "Demande envoyée", m.Toasts()[0].Message, "newest first")

	now = now.Add(DefaultToastDuration)
	active := m.Tick()
	require.Len(t, active, 1)
	require.Equal(t, ToastKindError, active[0].Kind)

	now = now.Add(ErrorToastDuration)
	require.Empty(t, m.Tick())
	require.False(t, m.HasToasts())
}

func TestToastManager_LimitAndRemove(t *testing.T) {
	m := NewToastManager()
	for i := 0; i < 8; i++ {
		m.AddStatus(strings.Repeat("x", i+1))
	}
	toasts := m.Toasts()
	require.Len(t, toasts, 5)

	m.Remove(toasts[0].ID)
	require.Len(t, m.Toasts(), 4)

	m.Clear()
	require.False(t, m.HasToasts())
}

func TestRenderToast(t *testing.T) {
	now := time.Now()
	toast := Toast{Message: auth.NoticeSessionExpired, Kind: ToastKindError, CreatedAt: now, Duration: ErrorToastDuration}

	out := RenderToast(toast, now, 100)
	require.Contains(t, out, "[X]")
	require.Contains(t, out, "Session expirée")
	require.Contains(t, out, "8s")

	require.Empty(t, RenderToastStack(nil, now, 100))
	require.Contains(t, RenderToastStack([]Toast{toast}, now, 100), "[X]")
}

// =============================================================================
// STATUS AND TIMELINE
// =============================================================================

func TestStatusTone(t *testing.T) {
	require.Equal(t, styles.ToneSuccess, StatusTone(api.StatusApproved))
	require.Equal(t, styles.ToneDanger, StatusTone(api.StatusRejected))
	require.Equal(t, styles.ToneWarning, StatusTone(api.StatusIncomplete))
	require.Equal(t, styles.ToneInfo, StatusTone(api.StatusInReview))
	require.Equal(t, styles.ToneNeutral, StatusTone("inconnu"))

	require.Contains(t, StatusBadge(api.StatusApproved), "[OK] Approuvée")
}

func TestRenderTimeline(t *testing.T) {
	entries := []api.TimelineEntry{
		{Status: api.StatusSubmitted, Actor: "Rabe Hery", Date: time.Date(2025, 1, 2, 9, 0, 0, 0, time.Local)},
		{Status: api.StatusForwarded, Actor: "Secrétariat", Service: "DGI", Comment: "Transmis pour avis"},
		{Status: api.StatusApproved},
	}
	out := RenderTimeline(entries, 80)

	require.Contains(t, out, "Soumise")
	require.Contains(t, out, "02/01/2025 09:00")
	require.Contains(t, out, "Secrétariat - DGI")
	require.Contains(t, out, "Transmis pour avis")
	require.Contains(t, out, "@")
	require.Less(t, strings.Index(out, "Soumise"), strings.Index(out, "Approuvée"))

	require.Contains(t, RenderTimeline(nil, 80), "Aucun historique")
}

// =============================================================================
// MARKDOWN
// =============================================================================

func TestMarkdownRenderer(t *testing.T) {
	r := NewMarkdownRenderer(MarkdownPlain)
	out := r.Render("# Avis\n\nVotre demande est **approuvée**.", 60)
	require.Contains(t, out, "Avis")
	require.Contains(t, out, "approuvée")

	// cached renderer reused
	require.Equal(t, out, r.Render("# Avis\n\nVotre demande est **approuvée**.", 60))
}

// =============================================================================
// MENU AND FORM
// =============================================================================

func TestMenu(t *testing.T) {
	m := NewMenu(
		MenuItem{ID: "demandes", Label: "Demandes"},
		MenuItem{ID: "notifications", Label: "Notifications"},
	)
	item, ok := m.Selected()
	require.True(t, ok)
	require.Equal(t, "demandes", item.ID)

	m.Up()
	item, _ = m.Selected()
	require.Equal(t, "notifications", item.ID)

	m.Down()
	require.Equal(t, 0, m.Cursor())

	_, ok = NewMenu().Selected()
	require.False(t, ok)
	require.Contains(t, m.View(styles.NewTheme(styles.ThemeDark)), "Notifications")
}

func TestForm(t *testing.T) {
	f := NewForm(
		FieldSpec{Key: "email", Label: "Email", Required: true},
		FieldSpec{Key: "password", Label: "Mot de passe", Secret: true, Required: true},
	)
	require.Equal(t, "email", f.Focused())
	require.Equal(t, []string{"Email", "Mot de passe"}, f.Missing())

	f, _ = f.Update(keyPress("hery@mmi.mg"))
	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, "password", f.Focused())
	require.True(t, f.IsLast())

	f, _ = f.Update(keyPress(" secret "))
	require.Equal(t, "hery@mmi.mg", f.Value("email"))
	require.Equal(t, " secret ", f.Value("password"), "secrets are not trimmed")
	require.Empty(t, f.Missing())

	view := f.View(styles.NewTheme(styles.ThemeDark))
	require.NotContains(t, view, "secret")

	f, _ = f.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, "email", f.Focused())

	f.Reset()
	require.Empty(t, f.Value("email"))
}

// =============================================================================
// CHROME
// =============================================================================

func TestRenderStatusBar(t *testing.T) {
	theme := styles.NewTheme(styles.ThemeDark)
	hints := []KeyHint{{Key: "q", Action: "quitter"}}

	out := RenderStatusBar(theme, hints, session.State{Phase: session.Warning, SecondsRemaining: 65}, 80)
	require.Contains(t, out, "Session 1:05")
	require.Contains(t, out, "quitter")

	require.NotContains(t, RenderStatusBar(theme, hints, session.IdleState, 80), "Session")
}

func TestRenderHeader(t *testing.T) {
	theme := styles.NewTheme(styles.ThemeDark)
	out := RenderHeader(theme, "Tableau de bord", "Hery Rabe - DGI", 100)
	require.Contains(t, out, "MMIAPP")
	require.Contains(t, out, "Hery Rabe - DGI")
}
