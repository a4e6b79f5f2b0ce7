package memory

import (
	"context"
	"errors"
	"sync"

	"servly/internal/domain/user"
)

var ErrUnknownToken = errors.New("memory: unknown token")

// TokenStore maps bearer tokens to profiles. It stands in for the session
// service, which owns authentication and lives outside this application.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]user.Profile
}

func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]user.Profile)}
}

func (s *TokenStore) Grant(token string, p user.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = p
}

func (s *TokenStore) Verify(ctx context.Context, token string) (user.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.tokens[token]
	if !ok {
		return user.Profile{}, ErrUnknownToken
	}
	return p, nil
}
