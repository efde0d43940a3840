// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Storage keys. Both are written together and cleared together.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Errors returned by stores.
var (
	// ErrNotFound indicates no credential record is stored.
	ErrNotFound = errors.New("no credential stored")

	// ErrIncomplete indicates a record without a token or without a user.
	ErrIncomplete = errors.New("incomplete credential record")
)

// User is the user object returned by the backend on login.
type User struct {
	ID        int    `json:"id"`
	RoleID    int    `json:"roleId"`
	LastName  string `json:"nom"`
	FirstName string `json:"prenom"`
	Email     string `json:"email"`
}

// DisplayName returns "Prenom Nom", falling back to the email.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Record is the token + user pair representing an authenticated session.
type Record struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Validate checks that both halves of the record are present.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Token) == "" {
		return fmt.Errorf("%w: missing token", ErrIncomplete)
	}
	if r.User.RoleID == 0 {
		return fmt.Errorf("%w: missing user role", ErrIncomplete)
	}
	return nil
}

// encodeUser serializes the user half for storage under KeyUser.
func encodeUser(u User) (string, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return "", fmt.Errorf("encode user: %w", err)
	}
	return string(data), nil
}

// decodeUser parses the value stored under KeyUser.
func decodeUser(raw string) (User, error) {
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return User{}, fmt.Errorf("%w: user is not valid JSON: %v", ErrIncomplete, err)
	}
	return u, nil
}
