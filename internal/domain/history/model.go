package history

import (
	"time"

	"github.com/google/uuid"
)

// Entry maps to the medical_history table. Entries are append-only; there is
// no update or delete path.
type Entry struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
