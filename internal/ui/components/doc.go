// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable UI components for the mmiapp TUI.
//
// # Components
//
//   - SessionOverlay: expiry warning with an M:SS countdown, and the expired notice
//   - ToastManager: non-blocking notices that auto-dismiss
//   - Menu: vertical menu with a cursor
//   - RenderTimeline: status history of one demande
//   - MarkdownRenderer: notification bodies rendered with glamour
//   - RenderHeader, RenderStatusBar: screen chrome
//
// Components are value types following the Bubble Tea Update/View pattern
// where they hold state, and plain render functions where they do not.
package components
