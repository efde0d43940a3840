// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmiapp/mmiapp-tui/internal/api"
	"github.com/mmiapp/mmiapp-tui/internal/ui/components"
	"github.com/mmiapp/mmiapp-tui/internal/ui/styles"
)

type uploadState struct {
	form components.Form
	busy bool
	err  string
}

func newUploadState() uploadState {
	return uploadState{
		form: components.NewForm(
			components.FieldSpec{Key: "societe", Label: "Société", Required: true},
			components.FieldSpec{Key: "nif", Label: "NIF"},
			components.FieldSpec{Key: "nom_source", Label: "Nom de la source", Required: true},
			components.FieldSpec{Key: "localisation", Label: "Localisation", Required: true},
			components.FieldSpec{Key: "region", Label: "Région"},
			components.FieldSpec{Key: "debit", Label: "Débit (m³/h)", Placeholder: "2,5", Required: true, CharLimit: 16},
			components.FieldSpec{Key: "description", Label: "Description", CharLimit: 1024},
			components.FieldSpec{Key: api.AttachmentStatutes, Label: "Statuts (fichier)", Placeholder: "~/documents/statuts.pdf", Required: true, CharLimit: 1024},
			components.FieldSpec{Key: api.AttachmentSiteMap, Label: "Plan de localisation", Placeholder: "~/documents/plan.png", Required: true, CharLimit: 1024},
			components.FieldSpec{Key: api.AttachmentWaterAnalyse, Label: "Analyse de l'eau", Placeholder: "~/documents/analyse.pdf", Required: true, CharLimit: 1024},
		),
	}
}

// permit reads the form into a permit and its attachments.
func (s uploadState) permit() (api.MineralWaterPermit, []api.Attachment, error) {
	raw := strings.ReplaceAll(s.form.Value("debit"), ",", ".")
	flow, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return api.MineralWaterPermit{}, nil, errors.New("débit invalide: " + s.form.Value("debit"))
	}

	form := api.MineralWaterPermit{
		Company:     s.form.Value("societe"),
		NIF:         s.form.Value("nif"),
		SourceName:  s.form.Value("nom_source"),
		Location:    s.form.Value("localisation"),
		Region:      s.form.Value("region"),
		FlowRate:    flow,
		Description: s.form.Value("description"),
	}

	var files []api.Attachment
	for _, field := range api.RequiredPermitAttachments {
		if p := s.form.Value(field); p != "" {
			files = append(files, api.Attachment{Field: field, Path: expandHome(p)})
		}
	}
	return form, files, nil
}

// expandHome resolves a leading ~ to the home directory.
func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return filepath.Clean(p)
}

func (m Model) uploadKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.upload.busy {
		return m, nil
	}
	if key.Matches(msg, m.keys.Back) {
		return m.back()
	}

	submit := key.Matches(msg, m.keys.Submit)
	if msg.Type == tea.KeyEnter {
		if !m.upload.form.IsLast() {
			cmd := m.upload.form.Next()
			return m, cmd
		}
		submit = true
	}
	if !submit {
		var cmd tea.Cmd
		m.upload.form, cmd = m.upload.form.Update(msg)
		return m, cmd
	}

	if missing := m.upload.form.Missing(); len(missing) > 0 {
		m.upload.err = "Champs requis: " + strings.Join(missing, ", ")
		return m, nil
	}
	form, files, err := m.upload.permit()
	if err == nil {
		err = form.Validate(files)
	}
	if err != nil {
		m.upload.err = err.Error()
		return m, nil
	}

	m.upload.err = ""
	m.upload.busy = true
	m.loading = true
	backend := m.backend
	return m, tea.Batch(func() tea.Msg {
		res, err := backend.SubmitMineralWaterPermit(context.Background(), form, files)
		return uploadDoneMsg{result: res, err: err}
	}, m.spinner.Tick)
}

func (m Model) uploadDone(msg uploadDoneMsg) (Model, tea.Cmd) {
	m.loading = false
	m.upload.busy = false
	if m.current().id != screenUpload {
		return m, nil
	}
	if msg.err != nil {
		if text := errorText(msg.err); text != "" {
			m.upload.err = "Envoi impossible: " + text
		}
		return m, nil
	}

	ref := ""
	if msg.result != nil {
		ref = msg.result.Reference
	}
	m.toasts.AddSuccess("Demande enregistrée " + ref)
	m.upload = newUploadState()
	return m.back()
}

func (m Model) uploadView() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Demande de permis d'eau minérale"))
	b.WriteString("\n")
	b.WriteString(m.upload.form.View(m.theme))
	b.WriteString("\n\n")
	b.WriteString(m.theme.Muted.Render("Formats acceptés: PDF, JPG, PNG"))
	b.WriteString("\n")
	switch {
	case m.upload.busy:
		b.WriteString(m.spinner.View() + " Envoi en cours...")
	case m.upload.err != "":
		b.WriteString(styles.RenderError(m.upload.err))
	}
	return b.String()
}
