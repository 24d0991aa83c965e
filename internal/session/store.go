// Package session owns the authenticated identity and credential for the whole client.
//
// A single [Store] is created at startup and shared by every view. Views read it through the accessor methods
// and change it only through [Store.Login], [Store.Register], [Store.Logout] and [Store.UpdateIdentity].
// Every change writes the [Persistence] first and swaps the in-memory state only after that succeeds, so the
// persisted pair and the in-memory pair never disagree.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vorplay/internal/models"
	"github.com/desertthunder/vorplay/internal/shared"
)

// Authenticator performs the remote calls the store depends on.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	Register(ctx context.Context, name, email, password string) (*models.AuthResult, error)
	CurrentUser(ctx context.Context, credential string) (*models.Identity, error)
}

// Store holds the session state.
type Store struct {
	auth    Authenticator
	persist Persistence
	logger  *log.Logger

	// writeMu serializes mutations so each persistence write and its memory swap happen as one step.
	writeMu sync.Mutex

	mu           sync.RWMutex
	identity     *models.Identity
	credential   string
	expiresAt    time.Time
	initializing bool

	restoring atomic.Bool
}

// NewStore creates a store in the initializing state. Call [Store.Restore] once before reading it.
func NewStore(auth Authenticator, persist Persistence, logger *log.Logger) *Store {
	return &Store{
		auth:         auth,
		persist:      persist,
		logger:       logger,
		initializing: true,
	}
}

// Identity returns a copy of the current identity, or nil when logged out.
func (s *Store) Identity() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	return s.identity.Clone()
}

// Credential returns the bearer credential, or "" when logged out.
func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// Initializing reports whether the startup restore has not finished yet.
func (s *Store) Initializing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initializing
}

// Authenticated reports whether both an identity and a credential are present.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil && s.credential != ""
}

// ExpiresAt returns the credential's expiry when known.
func (s *Store) ExpiresAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt, !s.expiresAt.IsZero()
}

// Restore rebuilds the session from persistence and verifies it with the API.
//
// Both values stored: the credential is checked with a profile fetch. On success the identity becomes the
// server's profile; on any failure both stored values are erased. Either value missing: nothing is fetched and
// leftovers are erased. Initializing turns false as the last step in every case.
//
// Only [shared.ErrRestoreInProgress] is returned; other failures end in a logged-out session.
func (s *Store) Restore(ctx context.Context) error {
	if !s.restoring.CompareAndSwap(false, true) {
		return shared.ErrRestoreInProgress
	}
	defer s.restoring.Store(false)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.initializing = true
	s.mu.Unlock()

	identity, credential, expiresAt := s.verifyStored(ctx)

	s.mu.Lock()
	s.identity = identity
	s.credential = credential
	s.expiresAt = expiresAt
	s.initializing = false
	s.mu.Unlock()
	return nil
}

func (s *Store) verifyStored(ctx context.Context) (*models.Identity, string, time.Time) {
	credential, raw, err := s.persist.LoadSession(ctx)
	if err != nil {
		s.logger.Warn("could not read stored session", "err", err)
		s.discard(ctx)
		return nil, "", time.Time{}
	}

	var snapshot models.Identity
	if credential == "" || len(raw) == 0 || json.Unmarshal(raw, &snapshot) != nil || snapshot.Validate() != nil {
		if credential != "" || len(raw) > 0 {
			s.logger.Debug("discarding incomplete stored session")
			s.discard(ctx)
		}
		return nil, "", time.Time{}
	}

	identity, err := s.auth.CurrentUser(ctx, credential)
	if err != nil {
		if ctx.Err() != nil {
			s.logger.Debug("session check interrupted", "err", err)
			return nil, "", time.Time{}
		}
		s.logger.Info("stored session rejected", "err", err)
		s.discard(ctx)
		return nil, "", time.Time{}
	}

	data, err := json.Marshal(identity)
	if err == nil {
		err = s.persist.SaveSession(ctx, credential, data)
	}
	if err != nil {
		s.logger.Warn("could not refresh stored profile", "err", err)
		s.discard(ctx)
		return nil, "", time.Time{}
	}

	expiresAt, _ := shared.TokenExpiry(credential)
	s.logger.Debug("session restored", "user_id", identity.ID)
	return identity.Clone(), credential, expiresAt
}

func (s *Store) discard(ctx context.Context) {
	if err := s.persist.ClearSession(ctx); err != nil {
		s.logger.Warn("could not clear stored session", "err", err)
	}
}

// Login exchanges email and password for a session.
//
// On failure the existing session is left as it was. Errors from the API keep the server's message.
func (s *Store) Login(ctx context.Context, email, password string) error {
	result, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return authError("login", err)
	}
	return s.establish(ctx, result)
}

// Register creates an account and starts a session for it.
func (s *Store) Register(ctx context.Context, name, email, password string) error {
	result, err := s.auth.Register(ctx, name, email, password)
	if err != nil {
		return authError("registration", err)
	}
	return s.establish(ctx, result)
}

type serverMessenger interface {
	ServerMessage() string
}

func authError(op string, err error) error {
	var sm serverMessenger
	if errors.As(err, &sm) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", shared.ErrAuthFailed, op, err)
}

func (s *Store) establish(ctx context.Context, result *models.AuthResult) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data, err := json.Marshal(result.User)
	if err != nil {
		return fmt.Errorf("%w: encode identity: %w", shared.ErrPersistence, err)
	}
	if err := s.persist.SaveSession(ctx, result.Token, data); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrPersistence, err)
	}

	var expiresAt time.Time
	if result.ExpiresAt != nil {
		expiresAt = *result.ExpiresAt
	}

	identity := result.User.Clone()
	s.mu.Lock()
	s.identity = identity
	s.credential = result.Token
	s.expiresAt = expiresAt
	s.mu.Unlock()

	s.logger.Info("logged in", "user_id", identity.ID)
	return nil
}

// Logout erases the session from persistence and memory. Calling it while logged out is a no-op.
func (s *Store) Logout(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.persist.ClearSession(ctx); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrPersistence, err)
	}

	s.mu.Lock()
	wasAuthenticated := s.identity != nil
	s.identity = nil
	s.credential = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	if wasAuthenticated {
		s.logger.Info("logged out")
	}
	return nil
}

// UpdateIdentity replaces the identity with a server-confirmed profile of the same user and keeps the credential.
func (s *Store) UpdateIdentity(ctx context.Context, identity models.Identity) error {
	if err := identity.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	current, credential := s.identity, s.credential
	s.mu.RUnlock()

	switch {
	case current == nil || credential == "":
		return shared.ErrNotAuthenticated
	case current.ID != identity.ID:
		return fmt.Errorf("%w: profile belongs to user %d, session is user %d", shared.ErrInvalidInput, identity.ID, current.ID)
	}

	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("%w: encode identity: %w", shared.ErrPersistence, err)
	}
	if err := s.persist.SaveSession(ctx, credential, data); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrPersistence, err)
	}

	s.mu.Lock()
	s.identity = identity.Clone()
	s.mu.Unlock()
	return nil
}
