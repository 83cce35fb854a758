package audit

import "context"

// Repository is the persistence contract for the audit trail. Insert-only.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	Search(ctx context.Context, params SearchParams) ([]*Entry, int, error)
}
