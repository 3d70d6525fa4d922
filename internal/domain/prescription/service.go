package prescription

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/booking"
	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/fault"
)

type Service struct {
	repo         Repository
	appointments booking.Repository
}

func NewService(repo Repository, appointments booking.Repository) *Service {
	return &Service{repo: repo, appointments: appointments}
}

// Create writes the single prescription for an appointment. Only the doctor
// assigned to the appointment may prescribe, and only once the appointment
// has been confirmed (or already completed).
func (s *Service) Create(ctx context.Context, actor auth.Actor, appointmentID uuid.UUID, medication, dosage, instructions string) (*Prescription, error) {
	if actor.Role != identity.RoleDoctor {
		return nil, fault.New(fault.Forbidden, "only doctors can issue prescriptions")
	}
	medication = strings.TrimSpace(medication)
	dosage = strings.TrimSpace(dosage)
	if medication == "" || dosage == "" {
		return nil, fault.New(fault.InvalidInput, "medication and dosage are required")
	}

	a, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if a.DoctorID != actor.ID {
		return nil, fault.New(fault.Forbidden, "only the appointment's doctor can prescribe")
	}
	if a.Status != booking.StatusConfirmed && a.Status != booking.StatusCompleted {
		return nil, fault.Errorf(fault.InvalidTransition, "cannot prescribe for a %s appointment", a.Status)
	}

	p := &Prescription{
		AppointmentID: appointmentID,
		Medication:    medication,
		Dosage:        dosage,
		Instructions:  strings.TrimSpace(instructions),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByAppointment returns the appointment's prescription to a party of the
// appointment: the patient, the assigned doctor, or an admin.
func (s *Service) GetByAppointment(ctx context.Context, actor auth.Actor, appointmentID uuid.UUID) (*Prescription, error) {
	a, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	allowed := actor.Role == identity.RoleAdmin ||
		(actor.Role == identity.RoleDoctor && a.DoctorID == actor.ID) ||
		(actor.Role == identity.RolePatient && a.PatientID == actor.ID)
	if !allowed {
		return nil, fault.New(fault.Forbidden, "not allowed to view this prescription")
	}
	return s.repo.GetByAppointment(ctx, appointmentID)
}
