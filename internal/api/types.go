// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"time"

	"github.com/mmiapp/mmiapp-tui/internal/credential"
)

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Token string          `json:"token"`
	User  credential.User `json:"user"`
}

// Record converts the response into a credential record.
func (r LoginResponse) Record() credential.Record {
	return credential.Record{Token: r.Token, User: r.User}
}

// Demande statuses as reported by the backend.
const (
	StatusSubmitted  = "soumise"
	StatusInReview   = "en_cours"
	StatusForwarded  = "transmise"
	StatusApproved   = "approuvee"
	StatusRejected   = "rejetee"
	StatusIncomplete = "incomplete"
)

var statusLabels = map[string]string{
	StatusSubmitted:  "Soumise",
	StatusInReview:   "En cours d'instruction",
	StatusForwarded:  "Transmise",
	StatusApproved:   "Approuvée",
	StatusRejected:   "Rejetée",
	StatusIncomplete: "Dossier incomplet",
}

// StatusLabel returns the display label of a status.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// Demande is a request filed by an applicant.
type Demande struct {
	ID        int       `json:"id"`
	Reference string    `json:"reference"`
	Type      string    `json:"type"`
	Subject   string    `json:"objet"`
	Status    string    `json:"statut"`
	Applicant string    `json:"demandeur"`
	Service   string    `json:"service,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DemandeFilter narrows ListDemandes.
type DemandeFilter struct {
	Status   string
	Type     string
	Page     int
	PageSize int
}

// DemandePage is one page of demandes.
type DemandePage struct {
	Items []Demande `json:"data"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
}

// TimelineEntry is one step of a demande's status history.
type TimelineEntry struct {
	Status  string    `json:"statut"`
	Comment string    `json:"commentaire"`
	Actor   string    `json:"acteur"`
	Service string    `json:"service,omitempty"`
	Date    time.Time `json:"date"`
}

// Notification is a message addressed to the signed-in user.
// Body is markdown.
type Notification struct {
	ID        int       `json:"id"`
	Title     string    `json:"titre"`
	Body      string    `json:"message"`
	Read      bool      `json:"lu"`
	DemandeID int       `json:"demandeId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// MineralWaterPermit is the form for a mineral water exploitation permit.
type MineralWaterPermit struct {
	Company     string  `json:"societe"`
	NIF         string  `json:"nif"`
	SourceName  string  `json:"nom_source"`
	Location    string  `json:"localisation"`
	Region      string  `json:"region"`
	FlowRate    float64 `json:"debit"`
	Description string  `json:"description,omitempty"`
}

// Attachment is a file uploaded with a form, sent under Field.
type Attachment struct {
	Field string
	Path  string
}

// Required attachment fields for a mineral water permit.
const (
	AttachmentStatutes     = "statuts"
	AttachmentSiteMap      = "plan_localisation"
	AttachmentWaterAnalyse = "analyse_eau"
)

// RequiredPermitAttachments lists the fields every permit must carry.
var RequiredPermitAttachments = []string{AttachmentStatutes, AttachmentSiteMap, AttachmentWaterAnalyse}

// SubmitResult is returned after a successful submission.
type SubmitResult struct {
	ID        int    `json:"id"`
	Reference string `json:"reference"`
}
