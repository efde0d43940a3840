// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mmiapp/mmiapp-tui/internal/credential"
)

// Session lifecycle event names, logged under the "event" key.
const (
	EventSessionValidated       = "SESSION_VALIDATED"
	EventSessionRejected        = "SESSION_REJECTED"
	EventSessionWarning         = "SESSION_WARNING"
	EventSessionExpired         = "SESSION_EXPIRED"
	EventSessionExtended        = "SESSION_EXTENDED"
	EventCredentialDecodeFailed = "CREDENTIAL_DECODE_FAILED"
	EventLogin                  = "LOGIN"
	EventLogout                 = "LOGOUT"
	EventAdminUnlock            = "ADMIN_UNLOCK"
)

// StderrPath selects stderr instead of a log file.
const StderrPath = "-"

// Options configures New.
type Options struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string

	// Path is the log file. Empty disables logging; StderrPath logs to stderr.
	Path string
}

// New builds a JSON logger writing to opts.Path.
func New(opts Options) (*zap.Logger, error) {
	if opts.Path == "" {
		return zap.NewNop(), nil
	}

	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.Set(strings.ToLower(opts.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	output := "stderr"
	if opts.Path != StderrPath {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		output = opts.Path
	}

	cfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:     "message",
			LevelKey:       "level",
			TimeKey:        "ts",
			NameKey:        "logger",
			CallerKey:      "",
			StacktraceKey:  "",
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}
	return cfg.Build()
}

// Event returns the field tagging a log entry with a lifecycle event name.
func Event(name string) zap.Field {
	return zap.String("event", name)
}

// Token returns a field identifying token without exposing it.
func Token(token string) zap.Field {
	return zap.String("token_fp", credential.Fingerprint(token))
}

// jwtPattern matches three base64url segments, the shape of a bearer token.
var jwtPattern = regexp.MustCompile(`[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]*`)

// bearerPattern matches an Authorization header value.
var bearerPattern = regexp.MustCompile(`(?i)bearer\s+\S+`)

// Redact removes anything token-shaped from s.
func Redact(s string) string {
	s = bearerPattern.ReplaceAllString(s, "Bearer [REDACTED]")
	return jwtPattern.ReplaceAllString(s, "[REDACTED]")
}
