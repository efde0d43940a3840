// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Glamour style names accepted by NewMarkdownRenderer.
const (
	MarkdownDark  = "dark"
	MarkdownLight = "light"
	MarkdownPlain = "notty"
)

// MarkdownRenderer renders notification bodies. Renderers are cached per
// wrap width since glamour fixes the width at construction.
type MarkdownRenderer struct {
	style string

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewMarkdownRenderer creates a renderer using a glamour standard style.
func NewMarkdownRenderer(style string) *MarkdownRenderer {
	if style == "" {
		style = MarkdownDark
	}
	return &MarkdownRenderer{style: style, renderers: make(map[int]*glamour.TermRenderer)}
}

// Render renders body wrapped at width. On failure the body is returned
// unchanged.
func (r *MarkdownRenderer) Render(body string, width int) string {
	if width < 20 {
		width = 20
	}
	tr, err := r.renderer(width)
	if err != nil {
		return body
	}
	out, err := tr.Render(body)
	if err != nil {
		return body
	}
	return strings.Trim(out, "\n")
}

func (r *MarkdownRenderer) renderer(width int) (*glamour.TermRenderer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tr, ok := r.renderers[width]; ok {
		return tr, nil
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	r.renderers[width] = tr
	return tr, nil
}
