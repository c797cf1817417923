package verification

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"visleg/pkg/platform/sentinel"
)

// InMemoryStore is a map-backed session store for single-instance
// deployments and tests. The mutex gives the same conflict-on-duplicate
// semantics the unique constraint gives in PostgreSQL.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*Session)}
}

func (s *InMemoryStore) Create(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.SessionID]; exists {
		return sentinel.ErrConflict
	}

	cp := *session
	s.sessions[session.SessionID] = &cp
	return nil
}

func (s *InMemoryStore) FindBySessionID(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *session
	return &cp, nil
}

func (s *InMemoryStore) MonthlyStats(_ context.Context, organizationID uuid.UUID, month, year int) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, end := monthRange(month, year)

	total, successful := 0, 0
	for _, session := range s.sessions {
		if session.OrganizationID == nil || *session.OrganizationID != organizationID {
			continue
		}
		created := session.CreatedAt.UTC()
		if created.Before(start) || !created.Before(end) {
			continue
		}
		total++
		if session.Verified {
			successful++
		}
	}
	return total, successful, nil
}
