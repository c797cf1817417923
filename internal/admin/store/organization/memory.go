package organization

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"visleg/internal/admin/models"
	"visleg/pkg/platform/sentinel"
)

// InMemory is a map-backed organization store for single-instance
// deployments and tests.
type InMemory struct {
	mu   sync.RWMutex
	orgs map[uuid.UUID]*models.Organization
}

func NewInMemory() *InMemory {
	return &InMemory{orgs: make(map[uuid.UUID]*models.Organization)}
}

func (s *InMemory) Create(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.orgs {
		if strings.EqualFold(existing.Name, org.Name) || existing.MFXID == org.MFXID {
			return sentinel.ErrConflict
		}
	}

	cp := *org
	s.orgs[org.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	org, ok := s.orgs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *org
	return &cp, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Organization, 0, len(s.orgs))
	for _, org := range s.orgs {
		cp := *org
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) Update(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orgs[org.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *org
	s.orgs[org.ID] = &cp
	return nil
}

func (s *InMemory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orgs[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.orgs, id)
	return nil
}
