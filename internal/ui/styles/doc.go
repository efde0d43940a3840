// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the mmiapp TUI.
//
// Colors are lipgloss.AdaptiveColor values so the same palette works on light
// and dark terminals. Every colored status also carries an ASCII indicator
// ([OK], [X], [!], [i]) so meaning never depends on color alone.
//
// # Usage
//
//	theme := styles.NewTheme("auto")
//	fmt.Println(theme.Title.Render("Tableau de bord"))
//	fmt.Println(styles.RenderWarning("Session expirée"))
//
// # Tones
//
// Components do not pick colors directly for domain states. They map a state
// to a Tone (neutral, info, success, warning, danger) and ask the package for
// the matching color and indicator.
package styles
