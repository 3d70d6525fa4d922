package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription maps to the prescriptions table. At most one exists per
// appointment and it is immutable once written.
type Prescription struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	Medication    string    `db:"medication" json:"medication"`
	Dosage        string    `db:"dosage" json:"dosage"`
	Instructions  string    `db:"instructions" json:"instructions"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
