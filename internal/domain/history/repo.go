package history

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists medical-history entries.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Entry, int, error)
}
