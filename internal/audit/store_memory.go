package audit

import (
	"context"
	"sync"
)

// usernameLookup resolves a user id to a username for Record joins.
// The memory store needs it because it has no SQL join available.
type usernameLookup func(ctx context.Context, entry *Entry) string

// InMemoryStore keeps audit entries in a slice, newest appended last.
type InMemoryStore struct {
	mu       sync.RWMutex
	entries  []*Entry
	username usernameLookup
}

// NewInMemory creates a memory-backed audit store. lookup may be nil, in
// which case records carry an empty username.
func NewInMemory(lookup usernameLookup) *InMemoryStore {
	return &InMemoryStore{username: lookup}
}

func (s *InMemoryStore) Append(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.entries = append(s.entries, &cp)
	return nil
}

func (s *InMemoryStore) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit > n {
		limit = n
	}

	out := make([]*Record, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		record := &Record{Entry: *s.entries[i]}
		if s.username != nil {
			record.Username = s.username(ctx, s.entries[i])
		}
		out = append(out, record)
	}
	return out, nil
}
