// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error handling and exit codes for the mmiapp commands.
//
// Handlers always return errors; main decides how to display them and
// which exit code to use.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/mmiapp/mmiapp-tui/internal/api"
	"github.com/mmiapp/mmiapp-tui/internal/auth"
	"github.com/mmiapp/mmiapp-tui/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates the session is missing, invalid or ended
	ExitAuthError = 4
	// ExitNetworkError indicates the backend could not be reached
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

var (
	// ErrUnknownCommand is returned for an unrecognized command or subcommand.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrConfig wraps failures to load or save the configuration.
	ErrConfig = errors.New("configuration error")

	// ErrSessionExpired is returned when the stored token has run out.
	ErrSessionExpired = errors.New("session expired")
)

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // e.g. "demandes"
	Action  string // e.g. "show"
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	return msg
}

// NewCommandError wraps err with the command and action that failed.
func NewCommandError(command, action string, err error) error {
	if err == nil {
		return nil
	}
	return &CommandError{Command: command, Action: action, Err: err}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// GetExitCode determines the exit code for err.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var validationErr *ValidationError
	var configErr config.ValidateErrors
	switch {
	case errors.As(err, &validationErr), errors.Is(err, ErrUnknownCommand), errors.Is(err, api.ErrInvalidForm):
		return ExitUsageError
	case errors.As(err, &configErr), errors.Is(err, ErrConfig):
		return ExitConfigError
	case auth.IsKind(err, auth.KindNetworkFailure):
		if isTimeout(err) {
			return ExitTimeoutError
		}
		return ExitNetworkError
	case auth.KindOf(err) != 0, errors.Is(err, ErrSessionExpired), errors.Is(err, api.ErrInvalidLogin),
		errors.Is(err, auth.ErrInvalidAdminCode), errors.Is(err, auth.ErrAdminUnavailable),
		errors.Is(err, auth.ErrAdminLocked):
		return ExitAuthError
	case isTimeout(err):
		return ExitTimeoutError
	}

	switch api.StatusOf(err) {
	case http.StatusNotFound:
		return ExitNotFoundError
	case http.StatusForbidden:
		return ExitAuthError
	}
	return ExitGeneralError
}

// =============================================================================
// DISPLAY
// =============================================================================

// isTimeout reports context deadlines and http.Client timeouts.
func isTimeout(err error) bool {
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
}

// DisplayError writes err for a human, or as a JSON envelope in JSON mode.
// Errors from an ended session were already announced by the guard.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		NewJSONErrorResponse(command, err).Write(w)
		return
	}
	if auth.IsSessionEnded(err) || errors.Is(err, ErrSessionExpired) {
		return
	}
	fmt.Fprintf(w, "%s %s\n", RenderConditional(ErrorStyle, "[ERREUR]"), userMessage(err))
}

// userMessage returns the French message for err.
func userMessage(err error) string {
	var apiErr *api.Error
	switch {
	case errors.Is(err, api.ErrInvalidLogin):
		return "Email ou mot de passe incorrect"
	case errors.Is(err, auth.ErrInvalidAdminCode):
		return "Code d'accès invalide"
	case errors.Is(err, auth.ErrAdminLocked):
		return err.Error()
	case auth.IsKind(err, auth.KindNetworkFailure):
		return "Serveur injoignable: " + err.Error()
	case errors.As(err, &apiErr):
		text := apiErr.Message
		if text == "" {
			text = fmt.Sprintf("erreur du serveur (HTTP %d)", apiErr.Status)
		}
		if apiErr.Temporary() {
			text += ", réessayez plus tard"
		}
		return text
	}
	return err.Error()
}
