// Package session models the signed-in identity: who the user is, which
// role they hold, and how that identity survives a restart.
//
// A Session is created once by the composition root and passed to whatever
// needs the current user. It persists a single token under a fixed key in
// its Store.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/swassyman/heart/internal/contracts"
)

const DefaultKey = "heart_user_token"

type Session struct {
	store  Store
	key    string
	logger *slog.Logger

	mu      sync.RWMutex
	current *contracts.User
}

func New(store Store, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{store: store, key: DefaultKey, logger: logger}
}

// WithKey overrides the storage key. Intended for tests and multi-profile
// CLIs.
func (s *Session) WithKey(key string) *Session {
	s.key = key
	return s
}

// Login creates a user for name and role, persists its token and makes it
// current. An empty id is replaced with a fresh uuid.
func (s *Session) Login(ctx context.Context, role contracts.Role, name, id string) (contracts.User, error) {
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}
	user := contracts.User{ID: id, Name: strings.TrimSpace(name), Role: role}
	if err := user.Validate(); err != nil {
		return contracts.User{}, err
	}
	token, err := IssueToken(user)
	if err != nil {
		return contracts.User{}, err
	}
	user.Token = token

	if err := s.store.Set(ctx, s.key, token); err != nil {
		return contracts.User{}, fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	s.current = &user
	s.mu.Unlock()
	return user, nil
}

// Restore loads the persisted identity. A corrupt token is cleared and
// reported as no session; only store failures return an error.
func (s *Session) Restore(ctx context.Context) (contracts.User, bool, error) {
	token, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return contracts.User{}, false, fmt.Errorf("restore session: %w", err)
	}
	if !ok {
		s.set(nil)
		return contracts.User{}, false, nil
	}

	user, err := DecodeToken(token)
	if err != nil {
		s.logger.Warn("discarding corrupt session token", "key", s.key, "error", err)
		if delErr := s.store.Delete(ctx, s.key); delErr != nil {
			s.logger.Warn("failed to clear corrupt session token", "key", s.key, "error", delErr)
		}
		s.set(nil)
		return contracts.User{}, false, nil
	}

	s.set(&user)
	return user, true, nil
}

func (s *Session) Logout(ctx context.Context) error {
	s.set(nil)
	if err := s.store.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Current returns the in-memory identity without touching the store.
func (s *Session) Current() (contracts.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return contracts.User{}, false
	}
	return *s.current, true
}

func (s *Session) set(user *contracts.User) {
	s.mu.Lock()
	s.current = user
	s.mu.Unlock()
}
