// Package lock manages the optional journal passcode and the unlocked session.
package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
)

// ErrInvalidCredential is returned when a secret does not match the stored hash.
var ErrInvalidCredential = errors.New("invalid credential")

// SettingsStore is the persistence the session needs.
type SettingsStore interface {
	Settings(ctx context.Context) (*models.AppSettings, error)
	UpdateSettings(ctx context.Context, s models.AppSettings) (*models.AppSettings, error)
}

// Session holds the process-wide authentication state. The credential hash and
// the locked flag live in settings; the session token only lives in memory.
type Session struct {
	store SettingsStore
	cost  int

	mu    sync.RWMutex
	token string
}

// NewSession creates a locked session backed by store.
func NewSession(store SettingsStore) *Session {
	return &Session{store: store, cost: bcrypt.DefaultCost}
}

// HasCredential reports whether a passcode is configured.
func (s *Session) HasCredential(ctx context.Context) (bool, error) {
	st, err := s.store.Settings(ctx)
	if err != nil {
		return false, fmt.Errorf("lock: read settings: %w", err)
	}
	return st.CredentialHash != "", nil
}

// SetCredential stores a hash of secret and locks the journal.
func (s *Session) SetCredential(ctx context.Context, secret string) error {
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("lock: %w: credential must not be blank", apperr.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return fmt.Errorf("lock: hash credential: %w: %w", apperr.ErrValidation, err)
	}
	st, err := s.store.Settings(ctx)
	if err != nil {
		return fmt.Errorf("lock: read settings: %w", err)
	}
	st.CredentialHash = string(hash)
	st.IsLocked = true
	if _, err := s.store.UpdateSettings(ctx, *st); err != nil {
		return fmt.Errorf("lock: save credential: %w", err)
	}
	s.setToken("")
	return nil
}

// ValidateCredential checks secret against the stored hash. On success the
// journal is unlocked and a fresh session token is returned.
func (s *Session) ValidateCredential(ctx context.Context, secret string) (string, error) {
	st, err := s.store.Settings(ctx)
	if err != nil {
		return "", fmt.Errorf("lock: read settings: %w", err)
	}
	if st.CredentialHash == "" {
		return "", fmt.Errorf("lock: %w: no credential configured", apperr.ErrNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(st.CredentialHash), []byte(secret)); err != nil {
		return "", ErrInvalidCredential
	}
	if st.IsLocked {
		st.IsLocked = false
		if _, err := s.store.UpdateSettings(ctx, *st); err != nil {
			return "", fmt.Errorf("lock: unlock: %w", err)
		}
	}
	token := uuid.NewString()
	s.setToken(token)
	return token, nil
}

// RemoveCredential clears the passcode and unlocks the journal.
func (s *Session) RemoveCredential(ctx context.Context) error {
	st, err := s.store.Settings(ctx)
	if err != nil {
		return fmt.Errorf("lock: read settings: %w", err)
	}
	st.CredentialHash = ""
	st.IsLocked = false
	if _, err := s.store.UpdateSettings(ctx, *st); err != nil {
		return fmt.Errorf("lock: remove credential: %w", err)
	}
	s.setToken("")
	return nil
}

// Lock drops the session token and marks the journal locked when a passcode is set.
func (s *Session) Lock(ctx context.Context) error {
	s.setToken("")
	st, err := s.store.Settings(ctx)
	if err != nil {
		return fmt.Errorf("lock: read settings: %w", err)
	}
	if st.CredentialHash == "" || st.IsLocked {
		return nil
	}
	st.IsLocked = true
	if _, err := s.store.UpdateSettings(ctx, *st); err != nil {
		return fmt.Errorf("lock: lock: %w", err)
	}
	return nil
}

// IsLocked reports whether access currently requires the passcode.
func (s *Session) IsLocked(ctx context.Context) (bool, error) {
	st, err := s.store.Settings(ctx)
	if err != nil {
		return false, fmt.Errorf("lock: read settings: %w", err)
	}
	return st.CredentialHash != "" && st.IsLocked, nil
}

// Authorize reports whether token grants access. Without a configured passcode
// every request is allowed.
func (s *Session) Authorize(ctx context.Context, token string) (bool, error) {
	has, err := s.HasCredential(ctx)
	if err != nil {
		return false, err
	}
	if !has {
		return true, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && token == s.token, nil
}

func (s *Session) setToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}
