// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the client for the MMIAPP backend REST API.
//
// Login is the only unauthenticated call. Every other call goes through an
// Authenticator (the auth Guard), which attaches the bearer token and ends
// the session on a 401. Callers therefore check auth.IsSessionEnded before
// reporting an error: when the session ended the user has already been
// redirected and told.
//
// All calls are bounded by the configured request timeout, throttled by a
// client-side rate limiter and tagged with an X-Request-ID header.
package api
