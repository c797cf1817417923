package session

import (
	"context"
	"sync"
	"time"

	"visleg/internal/admin/models"
	"visleg/pkg/platform/sentinel"
)

// InMemory is a map-backed session store. Sessions are lost on process
// restart; all admins must log in again (accepted design for single-instance
// deployments).
type InMemory struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewInMemory() *InMemory {
	return &InMemory{sessions: make(map[string]*models.Session)}
}

func (s *InMemory) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *session
	s.sessions[session.Token] = &cp
	return nil
}

func (s *InMemory) Find(_ context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *session
	return &cp, nil
}

func (s *InMemory) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}

// DeleteExpired removes all sessions whose lifetime passed before now.
func (s *InMemory) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed, nil
}
