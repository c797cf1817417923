package user

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"visleg/internal/admin/models"
	"visleg/pkg/platform/sentinel"
)

// InMemory is a map-backed user store for single-instance deployments and tests.
type InMemory struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*models.AdminUser
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[uuid.UUID]*models.AdminUser)}
}

func (s *InMemory) Create(_ context.Context, user *models.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, user.Username) {
			return sentinel.ErrConflict
		}
	}

	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *InMemory) FindByUsername(_ context.Context, username string) (*models.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Username, username) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context) ([]*models.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.AdminUser, 0, len(s.users))
	for _, user := range s.users {
		cp := *user
		out = append(out, &cp)
	}
	sortUsers(out)
	return out, nil
}

func (s *InMemory) ListByOrganization(_ context.Context, organizationID uuid.UUID) ([]*models.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.AdminUser
	for _, user := range s.users {
		if user.OrganizationID == organizationID {
			cp := *user
			out = append(out, &cp)
		}
	}
	sortUsers(out)
	return out, nil
}

func (s *InMemory) Update(_ context.Context, user *models.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *InMemory) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	t := at
	user.LastLogin = &t
	return nil
}

func (s *InMemory) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *InMemory) CountByOrganization(_ context.Context, organizationID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, user := range s.users {
		if user.OrganizationID == organizationID {
			count++
		}
	}
	return count, nil
}

func sortUsers(users []*models.AdminUser) {
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
}
