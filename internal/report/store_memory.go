package report

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"visleg/pkg/platform/sentinel"
)

// InMemoryStore is a map-backed report store for single-instance
// deployments and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*MonthlyReport
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{reports: make(map[uuid.UUID]*MonthlyReport)}
}

func (s *InMemoryStore) Create(_ context.Context, report *MonthlyReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *report
	s.reports[report.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*MonthlyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *report
	return &cp, nil
}

func (s *InMemoryStore) ListByOrganization(_ context.Context, organizationID uuid.UUID) ([]*MonthlyReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*MonthlyReport
	for _, report := range s.reports {
		if report.OrganizationID != organizationID {
			continue
		}
		cp := *report
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) MarkInvoiced(_ context.Context, id uuid.UUID, at time.Time) (*MonthlyReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if !report.IsInvoiced {
		report.IsInvoiced = true
		report.InvoicedAt = &at
	}
	cp := *report
	return &cp, nil
}
