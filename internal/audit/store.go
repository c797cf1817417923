package audit

import "context"

// Store is the persistence contract for the audit trail. Entries are
// append-only; there is no update or delete.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	// ListRecent returns the most recent entries joined with usernames,
	// newest first.
	ListRecent(ctx context.Context, limit int) ([]*Record, error)
}
