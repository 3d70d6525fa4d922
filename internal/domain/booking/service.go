package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/domain/triage"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/fault"
)

type Service struct {
	repo  Repository
	users identity.Repository
}

func NewService(repo Repository, users identity.Repository) *Service {
	return &Service{repo: repo, users: users}
}

// Create books a new PENDING appointment for the calling patient. Only
// patients book; doctors and admins arranging appointments on a patient's
// behalf is deliberately unsupported.
func (s *Service) Create(ctx context.Context, actor auth.Actor, doctorID uuid.UUID, scheduledAt time.Time, priority string) (*Appointment, error) {
	if actor.Role != identity.RolePatient {
		return nil, fault.New(fault.Forbidden, "only patients can book appointments")
	}
	if scheduledAt.IsZero() {
		return nil, fault.New(fault.InvalidInput, "scheduled_at is required")
	}
	if priority == "" {
		priority = triage.PriorityLow
	}
	if !triage.ValidPriority(priority) {
		return nil, fault.Errorf(fault.InvalidInput, "invalid priority: %s", priority)
	}

	doctor, err := s.users.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor.Role != identity.RoleDoctor {
		return nil, fault.New(fault.NotFound, "doctor not found")
	}

	a := &Appointment{
		PatientID:   actor.ID,
		DoctorID:    doctorID,
		ScheduledAt: scheduledAt,
		Status:      StatusPending,
		Priority:    priority,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// canView reports whether the actor may see the appointment at all: the
// owning patient, the assigned doctor, or an admin.
func canView(actor auth.Actor, a *Appointment) bool {
	switch actor.Role {
	case identity.RoleAdmin:
		return true
	case identity.RoleDoctor:
		return a.DoctorID == actor.ID
	case identity.RolePatient:
		return a.PatientID == actor.ID
	}
	return false
}

// Get returns an appointment to an authorized viewer. Unauthorized callers
// get Forbidden even when the appointment exists, so its existence is not
// leaked beyond the parties involved.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, a) {
		return nil, fault.New(fault.Forbidden, "not allowed to view this appointment")
	}
	return a, nil
}

// Transition moves an appointment to the next status on behalf of an actor.
// The write is a conditional update keyed on the status the actor saw, so two
// racing transitions produce exactly one winner; the loser gets
// ConflictingTransition.
func (s *Service) Transition(ctx context.Context, actor auth.Actor, id uuid.UUID, next string) (*Appointment, error) {
	if !ValidStatus(next) {
		return nil, fault.Errorf(fault.InvalidInput, "invalid status: %s", next)
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, a) {
		return nil, fault.New(fault.Forbidden, "not allowed to view this appointment")
	}
	if !transitionDefined(a.Status, next) {
		return nil, fault.Errorf(fault.InvalidTransition, "cannot move appointment from %s to %s", a.Status, next)
	}
	if !transitionAllowed(a.Status, next, actor.ID.String(), actor.Role, a) {
		return nil, fault.Errorf(fault.Forbidden, "role %s may not move appointment from %s to %s", actor.Role, a.Status, next)
	}

	won, err := s.repo.UpdateStatusIfCurrentEquals(ctx, id, a.Status, next)
	if err != nil {
		return nil, err
	}
	if !won {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, fault.New(fault.ConflictingTransition, "appointment status changed concurrently")
	}

	a.Status = next
	return a, nil
}

// ConfirmPayment applies the payment gateway's confirmation. It is the one
// transition path with no human actor, and it is idempotent: confirming an
// already-CONFIRMED appointment is a no-op success so webhook re-deliveries
// never error.
func (s *Service) ConfirmPayment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusConfirmed {
		return a, nil
	}
	if a.Status != StatusPending {
		return nil, fault.Errorf(fault.InvalidTransition, "cannot confirm payment for a %s appointment", a.Status)
	}

	won, err := s.repo.UpdateStatusIfCurrentEquals(ctx, id, StatusPending, StatusConfirmed)
	if err != nil {
		return nil, err
	}
	if !won {
		a, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		// Another delivery confirmed it first; still a success.
		if a.Status == StatusConfirmed {
			return a, nil
		}
		return nil, fault.New(fault.ConflictingTransition, "appointment status changed concurrently")
	}

	a.Status = StatusConfirmed
	return a, nil
}

// ListForActor returns the appointments the actor is a party to; admins see
// everything.
func (s *Service) ListForActor(ctx context.Context, actor auth.Actor, limit, offset int) ([]*Appointment, int, error) {
	switch actor.Role {
	case identity.RoleAdmin:
		return s.repo.List(ctx, limit, offset)
	case identity.RoleDoctor:
		return s.repo.ListByDoctor(ctx, actor.ID, limit, offset)
	default:
		return s.repo.ListByPatient(ctx, actor.ID, limit, offset)
	}
}

// ListAll returns every appointment; reserved for administrators.
func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, limit, offset)
}
