package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/clinicdesk/internal/platform/fault"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO prescriptions (id, appointment_id, medication, dosage, instructions)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.AppointmentID, p.Medication, p.Dosage, p.Instructions,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fault.New(fault.Conflict, "a prescription already exists for this appointment")
		}
		return err
	}
	return nil
}

func (r *repoPG) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	var p Prescription
	err := r.pool.QueryRow(ctx, `
		SELECT id, appointment_id, medication, dosage, instructions, created_at
		FROM prescriptions WHERE appointment_id = $1`,
		appointmentID,
	).Scan(&p.ID, &p.AppointmentID, &p.Medication, &p.Dosage, &p.Instructions, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fault.New(fault.NotFound, "prescription not found")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
