// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"fmt"
)

// Kind classifies an authentication failure.
type Kind int

const (
	// KindMissingCredential means nothing is stored.
	KindMissingCredential Kind = iota + 1
	// KindMalformedCredential means the stored record or token cannot be decoded.
	KindMalformedCredential
	// KindRoleMismatch means the user's role is not allowed on the screen.
	KindRoleMismatch
	// KindServerRejection means the backend answered 401.
	KindServerRejection
	// KindNetworkFailure means the request never produced a response.
	KindNetworkFailure
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindMissingCredential:
		return "missing_credential"
	case KindMalformedCredential:
		return "malformed_credential"
	case KindRoleMismatch:
		return "role_mismatch"
	case KindServerRejection:
		return "server_rejection"
	case KindNetworkFailure:
		return "network_failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Ends reports whether a failure of this kind ends the session.
func (k Kind) Ends() bool {
	return k != KindNetworkFailure
}

// Error is an authentication failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

// IsSessionEnded reports whether err ended the session.
// Callers use it to stop rendering after a redirect.
func IsSessionEnded(err error) bool {
	k := KindOf(err)
	return k != 0 && k.Ends()
}
