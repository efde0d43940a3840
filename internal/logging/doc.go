// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the structured logger used across mmiapp.
//
// Logs are JSON lines written to a file so they never interleave with the
// terminal UI. Session lifecycle entries carry a fixed "event" field
// (SESSION_VALIDATED, SESSION_EXPIRED, ...) so they can be grepped.
//
// Tokens must never reach a log line: use the Token field helper, which
// records a short fingerprint, and Redact for free-form text that may embed a
// token (backend error bodies, URLs).
package logging
