package audit

import "context"

// Repository is the persistence contract for audit entries.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	ListByDonor(ctx context.Context, donorID string, limit, offset int) ([]*Entry, int, error)
}
