package prescription

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists prescriptions. Create must report Conflict when a
// prescription already exists for the appointment.
type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error)
}
