// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/alphastream/alphastream-tui/internal/clock"
	"github.com/alphastream/alphastream-tui/internal/storage"
)

// ErrNotSignedIn is returned when an operation needs a signed-in user.
var ErrNotSignedIn = errors.New("no user is signed in")

// ErrAlreadySignedIn is returned by SignIn while a session is live.
var ErrAlreadySignedIn = errors.New("session already active; sign out first")

// CredentialStore persists the signed-in user between runs.
type CredentialStore interface {
	Load() (storage.Credentials, error)
	Save(storage.Credentials) error
	Clear() error
}

// =============================================================================
// SESSION STATE
// =============================================================================

// State is the process-wide record of who is signed in. It is created once at
// startup, initialised from persisted credentials and handed to whatever needs it.
type State struct {
	mu       sync.RWMutex
	store    CredentialStore
	clock    clock.Clock
	creds    storage.Credentials
	signedIn bool
}

// NewState creates an empty state backed by store.
func NewState(store CredentialStore, clk clock.Clock) *State {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &State{store: store, clock: clk}
}

// Init restores persisted credentials. It reports whether a session was restored.
// Missing credentials are not an error.
func (s *State) Init() (bool, error) {
	creds, err := s.store.Load()
	if errors.Is(err, storage.ErrNoCredentials) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("restore session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	s.signedIn = true
	return true, nil
}

// SignIn starts a session for user and persists it.
func (s *State) SignIn(user string) (storage.Credentials, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return storage.Credentials{}, errors.New("user name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.signedIn {
		return storage.Credentials{}, ErrAlreadySignedIn
	}

	creds := storage.Credentials{
		User:       user,
		SessionID:  newSessionID(),
		SignedInAt: s.clock.Now().UTC(),
	}
	if err := s.store.Save(creds); err != nil {
		return storage.Credentials{}, fmt.Errorf("persist session: %w", err)
	}
	s.creds = creds
	s.signedIn = true
	return creds, nil
}

// SignOut ends the session and clears persisted credentials.
// It returns the credentials of the session that ended.
func (s *State) SignOut() (storage.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.signedIn {
		return storage.Credentials{}, ErrNotSignedIn
	}
	ended := s.creds
	s.creds = storage.Credentials{}
	s.signedIn = false

	if err := s.store.Clear(); err != nil {
		return ended, fmt.Errorf("clear session: %w", err)
	}
	return ended, nil
}

// Current returns the live credentials, if any.
func (s *State) Current() (storage.Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds, s.signedIn
}

// SignedIn reports whether a user is signed in.
func (s *State) SignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signedIn
}

// newSessionID returns sess_<uuid>.
func newSessionID() string {
	return "sess_" + uuid.NewString()
}
