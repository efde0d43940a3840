// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth guards protected screens and authenticated backend calls.
//
// A Guard checks the stored credential when a protected screen is entered
// (Validate) and attaches the bearer token to outgoing requests (Do). Every
// authentication failure, whatever its cause, ends in the same recovery:
// the credential is cleared, the user is sent to the login destination with
// replace semantics, and, for server rejections and expiry, a notice is shown.
// Recovery runs at most once per credential, so concurrent 401 responses
// produce a single redirect and a single notice.
//
// # Key Types
//
//   - Guard: Validate, Do, SignIn, Logout, Expire
//   - Error: failure with a Kind from the fixed taxonomy
//   - Navigator, Notifier: how the host UI redirects and shows notices
//   - Router: role id to landing destination
//   - AdminGate: access-code gate in front of the administration area
//
// # Usage
//
//	guard := auth.NewGuard(store, nav, notifier, auth.WithLoginPath("/login"))
//	rec, err := guard.Validate(auth.RoleSuperAdmin)
//	if err != nil {
//	    return // already redirected
//	}
//
//	resp, err := guard.Do(req)
//	if auth.IsKind(err, auth.KindServerRejection) {
//	    return // session ended, nothing to render
//	}
package auth
