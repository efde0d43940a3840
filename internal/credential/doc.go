// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package credential holds the credential record of the signed-in user.
//
// A credential record is the bearer token returned by the MMIAPP backend
// plus the user object that came with it. Exactly one record is current at a
// time: it is written wholesale on login and removed wholesale on logout or
// expiry. Readers never see a token without its user or the reverse.
//
// # Key Types
//
//   - Record: token + user pair
//   - Store: Get/Set/Clear over the persisted record
//   - MemoryStore: in-process store for tests and --ephemeral runs
//   - SQLiteStore: on-disk key/value store (~/.mmiapp/session.db)
//   - Claims: the decoded, unverified token payload
//
// # Usage
//
//	store, err := credential.OpenSQLiteStore(path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	rec, err := store.Get()
//	if errors.Is(err, credential.ErrNotFound) {
//	    // not signed in
//	}
//	claims, err := credential.Decode(rec.Token)
package credential
