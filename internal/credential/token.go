// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed indicates a token that cannot be decoded or carries no expiry.
var ErrMalformed = errors.New("malformed credential token")

// Claims are the token claims the client reads.
// The signature is never checked here; the backend remains the authority.
type Claims struct {
	jwt.RegisteredClaims

	RoleID int `json:"roleId,omitempty"`
}

// Expiry returns the exp claim as a time.
func (c Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Remaining returns the time left before expiry relative to now.
// The result is negative once the token has expired.
func (c Claims) Remaining(now time.Time) time.Duration {
	return c.Expiry().Sub(now)
}

var parser = jwt.NewParser()

// Decode reads the claims of a three-segment token without verifying it.
// Any failure, including a missing exp claim, is reported as ErrMalformed.
func Decode(token string) (Claims, error) {
	if strings.Count(token, ".") != 2 {
		return Claims{}, fmt.Errorf("%w: expected 3 segments", ErrMalformed)
	}

	var claims Claims
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if claims.ExpiresAt == nil {
		return Claims{}, fmt.Errorf("%w: missing exp claim", ErrMalformed)
	}
	return claims, nil
}

// ExpiresAt decodes token and returns its expiry.
func ExpiresAt(token string) (time.Time, error) {
	claims, err := Decode(token)
	if err != nil {
		return time.Time{}, err
	}
	return claims.Expiry(), nil
}

// Fingerprint returns a short, stable identifier for a token, safe for logs.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:6])
}
