package stoe

import (
	"context"
	"sync"
	"time"

	"visleg/pkg/platform/sentinel"
)

// InMemoryTokenStore is a slice-backed token store for single-instance
// deployments and tests.
type InMemoryTokenStore struct {
	mu     sync.RWMutex
	tokens []*Token
}

func NewInMemoryTokenStore() *InMemoryTokenStore {
	return &InMemoryTokenStore{}
}

func (s *InMemoryTokenStore) FindValid(_ context.Context, scope string, now time.Time) (*Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, token := range s.tokens {
		if token.Scope == scope && token.Valid(now) {
			cp := *token
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryTokenStore) Create(_ context.Context, token *Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *token
	s.tokens = append(s.tokens, &cp)
	return nil
}

func (s *InMemoryTokenStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.tokens[:0]
	removed := 0
	for _, token := range s.tokens {
		if token.Valid(now) {
			kept = append(kept, token)
		} else {
			removed++
		}
	}
	s.tokens = kept
	return removed, nil
}
