// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// allowedUploadExt lists the document types the backend accepts.
var allowedUploadExt = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Validate checks the permit fields and its attachments before upload.
func (p MineralWaterPermit) Validate(files []Attachment) error {
	var problems []string
	if strings.TrimSpace(p.Company) == "" {
		problems = append(problems, "société requise")
	}
	if strings.TrimSpace(p.SourceName) == "" {
		problems = append(problems, "nom de la source requis")
	}
	if strings.TrimSpace(p.Location) == "" {
		problems = append(problems, "localisation requise")
	}
	if p.FlowRate <= 0 {
		problems = append(problems, "débit doit être positif")
	}

	have := make(map[string]bool, len(files))
	for _, f := range files {
		have[f.Field] = true
	}
	for _, field := range RequiredPermitAttachments {
		if !have[field] {
			problems = append(problems, "pièce manquante: "+field)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidForm, strings.Join(problems, "; "))
	}
	return nil
}

// SubmitMineralWaterPermit uploads a permit request with its documents.
func (c *Client) SubmitMineralWaterPermit(ctx context.Context, form MineralWaterPermit, files []Attachment) (*SubmitResult, error) {
	if err := form.Validate(files); err != nil {
		return nil, err
	}

	body, contentType, err := c.buildMultipart(form, files)
	if err != nil {
		return nil, err
	}

	var out SubmitResult
	err = c.call(ctx, callSpec{
		method:      http.MethodPost,
		path:        "/demandes/eau-minerale",
		body:        body,
		contentType: contentType,
		auth:        true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// buildMultipart encodes the form fields and files.
func (c *Client) buildMultipart(form MineralWaterPermit, files []Attachment) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"societe", form.Company},
		{"nif", form.NIF},
		{"nom_source", form.SourceName},
		{"localisation", form.Location},
		{"region", form.Region},
		{"debit", strconv.FormatFloat(form.FlowRate, 'f', -1, 64)},
		{"description", form.Description},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}

	for _, att := range files {
		if err := c.attach(w, att); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finish multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) attach(w *multipart.Writer, att Attachment) error {
	ext := strings.ToLower(filepath.Ext(att.Path))
	if !allowedUploadExt[ext] {
		return fmt.Errorf("%w: %s: type de fichier non accepté (%s)", ErrInvalidForm, filepath.Base(att.Path), ext)
	}

	f, err := os.Open(att.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", att.Path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", att.Path, err)
	}
	if info.Size() > c.maxUpload {
		return fmt.Errorf("%w: %s dépasse %d Mo", ErrInvalidForm, filepath.Base(att.Path), c.maxUpload/(1024*1024))
	}

	part, err := w.CreateFormFile(att.Field, filepath.Base(att.Path))
	if err != nil {
		return fmt.Errorf("create part %s: %w", att.Field, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy %s: %w", att.Path, err)
	}
	return nil
}
