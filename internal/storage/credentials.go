// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the signed-in user's credentials between runs.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alphastream/alphastream-tui/internal/util"
)

// =============================================================================
// CREDENTIALS
// =============================================================================

// Credentials is the persisted record of a signed-in user.
type Credentials struct {
	User       string    `json:"user"`
	SessionID  string    `json:"session_id"`
	SignedInAt time.Time `json:"signed_in_at"`
}

// Valid reports whether the record names a user and a session.
func (c Credentials) Valid() bool {
	return c.User != "" && c.SessionID != ""
}

// =============================================================================
// CREDENTIAL STORE
// =============================================================================

// ErrNoCredentials is returned when nothing has been persisted.
// Use errors.Is(err, ErrNoCredentials) to check for this error.
var ErrNoCredentials = &StoreError{Message: "no stored credentials"}

// StoreError represents a credential store error.
type StoreError struct {
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing store errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// CredentialStore reads and writes a single JSON credentials file.
type CredentialStore struct {
	// Path is the credentials file. Default: ~/.alphastream/credentials.json
	Path string
}

// NewCredentialStore creates a store under the user's home directory.
func NewCredentialStore() (*CredentialStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewCredentialStoreAt(filepath.Join(homeDir, ".alphastream", "credentials.json")), nil
}

// NewCredentialStoreAt creates a store backed by path.
func NewCredentialStoreAt(path string) *CredentialStore {
	return &CredentialStore{Path: path}
}

// Load returns the persisted credentials.
// A missing file yields ErrNoCredentials; a corrupt file is an error.
func (s *CredentialStore) Load() (Credentials, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials: %w", err)
	}
	if !creds.Valid() {
		return Credentials{}, ErrNoCredentials
	}
	return creds, nil
}

// Save persists creds atomically with owner-only permissions.
func (s *CredentialStore) Save(creds Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(s.Path, data, 0600, 0700); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Clear removes persisted credentials. Clearing an empty store is not an error.
func (s *CredentialStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
