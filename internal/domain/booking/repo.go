package booking

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists appointments. UpdateStatusIfCurrentEquals is the
// conditional write every transition goes through: it changes the status only
// when the stored status still equals expected, and reports whether it won.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatusIfCurrentEquals(ctx context.Context, id uuid.UUID, expected, next string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
}
