// Copyright (c) 2025 The MMIAPP Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package credential

import "sync"

// Store persists the current credential record.
//
// Set replaces the whole record and Clear removes it; there is no way to
// write one key without the other. Clear on an empty store is a no-op.
type Store interface {
	Get() (Record, error)
	Set(rec Record) error
	Clear() error
}

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu  sync.RWMutex
	rec *Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the stored record or ErrNotFound.
func (s *MemoryStore) Get() (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rec == nil {
		return Record{}, ErrNotFound
	}
	return *s.rec, nil
}

// Set replaces the stored record.
func (s *MemoryStore) Set(rec Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = &rec
	return nil
}

// Clear removes the stored record.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = nil
	return nil
}
