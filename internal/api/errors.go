// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mmiapp/mmiapp-tui/internal/logging"
	"github.com/mmiapp/mmiapp-tui/internal/util"
)

// Errors returned by the client.
var (
	// ErrInvalidLogin indicates the backend refused the email/password pair.
	ErrInvalidLogin = errors.New("email ou mot de passe incorrect")

	// ErrRefreshUnsupported indicates no refresh endpoint is configured.
	ErrRefreshUnsupported = errors.New("token refresh is not configured")

	// ErrResponseTooLarge indicates a body over MaxResponseSize.
	ErrResponseTooLarge = errors.New("response exceeded maximum size")

	// ErrInvalidForm indicates a form that failed client-side checks.
	ErrInvalidForm = errors.New("invalid form")
)

// Error is a non-2xx answer from the backend.
type Error struct {
	Status    int
	Message   string
	RequestID string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error (HTTP %d)", e.Status)
	}
	return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
}

// Temporary reports whether retrying later may succeed.
func (e *Error) Temporary() bool {
	return e.Status >= 500 || e.Status == 429
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// errorBody covers the shapes the backend uses for failures.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newError(status int, body []byte, requestID string) *Error {
	var eb errorBody
	msg := ""
	if err := json.Unmarshal(body, &eb); err == nil {
		msg = eb.Message
		if msg == "" {
			msg = eb.Error
		}
	} else {
		msg = util.TruncateWidth(strings.TrimSpace(string(body)), 200)
	}
	return &Error{Status: status, Message: logging.Redact(msg), RequestID: requestID}
}
