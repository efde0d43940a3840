// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmiapp/mmiapp-tui/internal/api"
	"github.com/mmiapp/mmiapp-tui/internal/ui/components"
	"github.com/mmiapp/mmiapp-tui/internal/ui/styles"
	"github.com/mmiapp/mmiapp-tui/internal/util"
)

// statusCycle is the order the status filter steps through. "" is all.
var statusCycle = []string{
	"",
	api.StatusSubmitted,
	api.StatusInReview,
	api.StatusForwarded,
	api.StatusApproved,
	api.StatusRejected,
	api.StatusIncomplete,
}

// =============================================================================
// LIST
// =============================================================================

type demandesState struct {
	page      *api.DemandePage
	pageNum   int
	status    string
	filter    textinput.Model
	filtering bool
	cursor    int
	err       string
}

func newDemandesState() demandesState {
	ti := textinput.New()
	ti.Prompt = "Filtrer: "
	ti.Placeholder = "référence, objet, demandeur..."
	ti.CharLimit = 64
	return demandesState{pageNum: 1, filter: ti}
}

// visible returns the loaded items matching the text filter, accents and
// case ignored.
func (s demandesState) visible() []api.Demande {
	if s.page == nil {
		return nil
	}
	needle := strings.TrimSpace(s.filter.Value())
	if needle == "" {
		return s.page.Items
	}
	var out []api.Demande
	for _, d := range s.page.Items {
		if util.ContainsFold(d.Reference, needle) ||
			util.ContainsFold(d.Subject, needle) ||
			util.ContainsFold(d.Applicant, needle) ||
			util.ContainsFold(d.Service, needle) {
			out = append(out, d)
		}
	}
	return out
}

func (s demandesState) totalPages(pageSize int) int {
	if s.page == nil || s.page.Total <= 0 {
		return 1
	}
	return (s.page.Total + pageSize - 1) / pageSize
}

func (m Model) demandesCmd() tea.Cmd {
	backend := m.backend
	f := api.DemandeFilter{Status: m.list.status, Page: m.list.pageNum, PageSize: m.pageSize}
	return func() tea.Msg {
		page, err := backend.ListDemandes(context.Background(), f)
		return demandesLoadedMsg{page: page, err: err}
	}
}

func (m Model) demandesLoaded(msg demandesLoadedMsg) (Model, tea.Cmd) {
	m.loading = false
	if m.current().id != screenDemandes {
		return m, nil
	}
	if msg.err != nil {
		m.list.err = m.failed(msg.err)
		return m, nil
	}
	m.list.err = ""
	m.list.page = msg.page
	m.list.cursor = 0
	return m, nil
}

func (m Model) reloadDemandes() (Model, tea.Cmd) {
	m.loading = true
	return m, tea.Batch(m.demandesCmd(), m.spinner.Tick)
}

func (m Model) demandesKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.list.filtering {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.list.filtering = false
			m.list.filter.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.list.filter, cmd = m.list.filter.Update(msg)
		m.list.cursor = 0
		return m, cmd
	}

	items := m.list.visible()
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.back()
	case key.Matches(msg, m.keys.Up):
		if m.list.cursor > 0 {
			m.list.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.list.cursor < len(items)-1 {
			m.list.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if m.list.cursor < len(items) {
			return m.push(demandePath(items[m.list.cursor].ID))
		}
	case key.Matches(msg, m.keys.Filter):
		m.list.filtering = true
		cmd := m.list.filter.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Status):
		m.list.status = nextStatus(m.list.status)
		m.list.pageNum = 1
		return m.reloadDemandes()
	case key.Matches(msg, m.keys.PrevPage):
		if m.list.pageNum > 1 {
			m.list.pageNum--
			return m.reloadDemandes()
		}
	case key.Matches(msg, m.keys.NextPage):
		if m.list.pageNum < m.list.totalPages(m.pageSize) {
			m.list.pageNum++
			return m.reloadDemandes()
		}
	case key.Matches(msg, m.keys.Refresh):
		return m.reloadDemandes()
	}
	return m, nil
}

func nextStatus(current string) string {
	for i, s := range statusCycle {
		if s == current {
			return statusCycle[(i+1)%len(statusCycle)]
		}
	}
	return ""
}

func (m Model) demandesView() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Demandes"))
	b.WriteString("\n")

	status := "tous"
	if m.list.status != "" {
		status = api.StatusLabel(m.list.status)
	}
	b.WriteString(m.theme.Muted.Render("Statut: " + status))
	if m.list.filtering || m.list.filter.Value() != "" {
		b.WriteString("   " + m.list.filter.View())
	}
	b.WriteString("\n\n")

	if m.loading {
		b.WriteString(m.spinner.View() + " Chargement des demandes...")
		return b.String()
	}
	if m.list.err != "" {
		b.WriteString(styles.RenderError(m.list.err))
		return b.String()
	}

	items := m.list.visible()
	if len(items) == 0 {
		b.WriteString(m.theme.Muted.Render("Aucune demande."))
		return b.String()
	}

	subjectWidth := m.width - 18 - 26 - 12 - 6
	if subjectWidth < 16 {
		subjectWidth = 16
	}
	b.WriteString(m.theme.TableHead.Render(
		util.PadRight("Référence", 18) + util.PadRight("Objet", subjectWidth) + util.PadRight("Statut", 26) + "Date"))
	b.WriteString("\n")

	for i, d := range items {
		date := ""
		if !d.CreatedAt.IsZero() {
			date = d.CreatedAt.Local().Format("02/01/2006")
		}
		row := util.PadRight(util.TruncateWidth(d.Reference, 17), 18) +
			util.PadRight(util.TruncateWidth(d.Subject, subjectWidth-1), subjectWidth) +
			util.PadRight(api.StatusLabel(d.Status), 26) +
			date
		if i == m.list.cursor {
			b.WriteString(m.theme.Selected.Render(row))
		} else {
			b.WriteString(m.theme.MenuItem.Render(row))
		}
		b.WriteString("\n")
	}

	total := 0
	if m.list.page != nil {
		total = m.list.page.Total
	}
	b.WriteString("\n")
	b.WriteString(m.theme.Muted.Render(fmt.Sprintf("Page %d/%d - %d demande(s)",
		m.list.pageNum, m.list.totalPages(m.pageSize), total)))
	return b.String()
}

// =============================================================================
// DETAIL
// =============================================================================

type demandeState struct {
	id       int
	demande  *api.Demande
	timeline []api.TimelineEntry
	viewport viewport.Model
	err      string
}

func newDemandeState() demandeState {
	return demandeState{viewport: viewport.New(78, 18)}
}

func (m Model) demandeCmd(id int) tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		ctx := context.Background()
		d, err := backend.GetDemande(ctx, id)
		if err != nil {
			return demandeLoadedMsg{id: id, err: err}
		}
		entries, err := backend.Timeline(ctx, id)
		return demandeLoadedMsg{id: id, demande: d, timeline: entries, err: err}
	}
}

func (m Model) demandeLoaded(msg demandeLoadedMsg) (Model, tea.Cmd) {
	m.loading = false
	if r := m.current(); r.id != screenDemande || r.item != msg.id {
		return m, nil
	}
	if msg.err != nil {
		m.detail.err = m.failed(msg.err)
		return m, nil
	}
	m.detail.err = ""
	m.detail.demande = msg.demande
	m.detail.timeline = msg.timeline
	m.detail.viewport.SetContent(m.demandeContent())
	m.detail.viewport.GotoTop()
	return m, nil
}

func (m Model) demandeContent() string {
	d := m.detail.demande
	field := func(label, value string) string {
		if value == "" {
			value = "-"
		}
		return m.theme.Label.Render(label) + m.theme.Value.Render(value)
	}

	lines := []string{
		field("Référence", d.Reference),
		field("Type", d.Type),
		field("Objet", d.Subject),
		field("Demandeur", d.Applicant),
		field("Service", d.Service),
		m.theme.Label.Render("Statut") + components.StatusBadge(d.Status),
	}
	if !d.CreatedAt.IsZero() {
		lines = append(lines, field("Déposée le", d.CreatedAt.Local().Format(components.TimelineDateFormat)))
	}
	lines = append(lines, "", m.theme.TableHead.Render("Historique"), "",
		components.RenderTimeline(m.detail.timeline, m.width-4))
	return strings.Join(lines, "\n")
}

func (m Model) demandeKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.back()
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, tea.Batch(m.demandeCmd(m.detail.id), m.spinner.Tick)
	}
	var cmd tea.Cmd
	m.detail.viewport, cmd = m.detail.viewport.Update(msg)
	return m, cmd
}

func (m Model) demandeView() string {
	title := "Demande"
	if d := m.detail.demande; d != nil {
		title += " " + d.Reference
	}
	head := m.theme.Title.Render(title) + "\n"

	switch {
	case m.loading:
		return head + m.spinner.View() + " Chargement..."
	case m.detail.err != "":
		return head + styles.RenderError(m.detail.err)
	case m.detail.demande == nil:
		return head
	}
	return head + m.detail.viewport.View()
}
