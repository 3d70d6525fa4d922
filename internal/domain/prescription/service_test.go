package prescription

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/booking"
	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/fault"
)

// -- Mock prescription repository --

type mockRepo struct {
	mu            sync.Mutex
	byAppointment map[uuid.UUID]*Prescription
}

func newMockRepo() *mockRepo {
	return &mockRepo{byAppointment: make(map[uuid.UUID]*Prescription)}
}

func (m *mockRepo) Create(_ context.Context, p *Prescription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byAppointment[p.AppointmentID]; ok {
		return fault.New(fault.Conflict, "a prescription already exists for this appointment")
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.byAppointment[p.AppointmentID] = p
	return nil
}

func (m *mockRepo) GetByAppointment(_ context.Context, appointmentID uuid.UUID) (*Prescription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byAppointment[appointmentID]
	if !ok {
		return nil, fault.New(fault.NotFound, "prescription not found")
	}
	return p, nil
}

// -- Mock appointment repository --

type mockAppointments struct {
	appointments map[uuid.UUID]*booking.Appointment
}

func newMockAppointments() *mockAppointments {
	return &mockAppointments{appointments: make(map[uuid.UUID]*booking.Appointment)}
}

func (m *mockAppointments) add(patientID, doctorID uuid.UUID, status string) *booking.Appointment {
	a := &booking.Appointment{
		ID:        uuid.New(),
		PatientID: patientID,
		DoctorID:  doctorID,
		Status:    status,
		Priority:  "LOW",
	}
	m.appointments[a.ID] = a
	return a
}

func (m *mockAppointments) Create(_ context.Context, a *booking.Appointment) error {
	m.appointments[a.ID] = a
	return nil
}

func (m *mockAppointments) GetByID(_ context.Context, id uuid.UUID) (*booking.Appointment, error) {
	a, ok := m.appointments[id]
	if !ok {
		return nil, fault.New(fault.NotFound, "appointment not found")
	}
	return a, nil
}

func (m *mockAppointments) UpdateStatusIfCurrentEquals(_ context.Context, id uuid.UUID, expected, next string) (bool, error) {
	a, ok := m.appointments[id]
	if !ok || a.Status != expected {
		return false, nil
	}
	a.Status = next
	return true, nil
}

func (m *mockAppointments) List(_ context.Context, limit, offset int) ([]*booking.Appointment, int, error) {
	return nil, 0, nil
}

func (m *mockAppointments) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*booking.Appointment, int, error) {
	return nil, 0, nil
}

func (m *mockAppointments) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*booking.Appointment, int, error) {
	return nil, 0, nil
}

// -- Tests --

type fixture struct {
	svc     *Service
	appts   *mockAppointments
	patient auth.Actor
	doctor  auth.Actor
}

func newFixture() *fixture {
	appts := newMockAppointments()
	patient := auth.Actor{ID: uuid.New(), Role: identity.RolePatient}
	doctor := auth.Actor{ID: uuid.New(), Role: identity.RoleDoctor}
	return &fixture{
		svc:     NewService(newMockRepo(), appts),
		appts:   appts,
		patient: patient,
		doctor:  doctor,
	}
}

func TestCreatePrescription(t *testing.T) {
	f := newFixture()
	a := f.appts.add(f.patient.ID, f.doctor.ID, booking.StatusConfirmed)

	p, err := f.svc.Create(context.Background(), f.doctor, a.ID, "Amoxicillin", "500mg", "twice daily")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.AppointmentID != a.ID {
		t.Error("prescription must reference the appointment")
	}
}

func TestCreatePrescriptionCompletedAppointment(t *testing.T) {
	f := newFixture()
	a := f.appts.add(f.patient.ID, f.doctor.ID, booking.StatusCompleted)

	if _, err := f.svc.Create(context.Background(), f.doctor, a.ID, "Ibuprofen", "200mg", ""); err != nil {
		t.Fatalf("prescribing for a completed appointment should work: %v", err)
	}
}

func TestCreatePrescriptionPendingAppointment(t *testing.T) {
	f := newFixture()
	a := f.appts.add(f.patient.ID, f.doctor.ID, booking.StatusPending)

	_, err := f.svc.Create(context.Background(), f.doctor, a.ID, "Ibuprofen", "200mg", "")
	if fault.KindOf(err) != fault.InvalidTransition {
		t.Errorf("expected InvalidTransition, got %v", err)
	}
}

func TestCreatePrescriptionCancelledAppointment(t *testing.T) {
	f := newFixture()
	a := f.appts.add(f.patient.ID, f.doctor.ID, booking.StatusCancelled)

	_, err := f.svc.Create(context.Background(), f.doctor, a.ID, "Ibuprofen", "200mg", "")
	if fault.KindOf(err) != fault.InvalidTransition {
		t.Errorf("expected InvalidTransition, got %v", err)
	}
}

func TestCreatePrescriptionNonDoctor(t *testing.T) {
	f := newFixture()
	a := f.appts.add(f.patient.ID, f.doctor.ID, booking.StatusConfirmed)

	_, err := f.svc.Create(context.Background(), f.patient, a.ID, "Ibuprofen", "200mg", "")
	if fault.KindOf(err) != fault.Forbidden {
		t.Errorf("expected Forbidden, got %v", err)
	}
}

func TestCreatePrescriptionWrongDoctor(t *testing.T) {
	f := newFixture()
	a := f.appts.add(f.patient.ID, f.doctor.ID, booking.StatusConfirmed)

	other := auth.Actor{ID: uuid.New(), Role: identity.RoleDoctor}
	_, err := f.svc.Create(context.Background(), other, a.ID, "Ibuprofen", "200mg", "")
	if fault.KindOf(err) != fault.Forbidden {
		t.Errorf("expected Forbidden, got %v", err)
	}
}

func TestCreatePrescriptionDuplicate(t *testing.T) {
	f := newFixture()
	a := f.appts.add(f.patient.ID, f.doctor.ID, booking.StatusConfirmed)

	if _, err := f.svc.Create(context.Background(), f.doctor, a.ID, "Amoxicillin", "500mg", ""); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := f.svc.Create(context.Background(), f.doctor, a.ID, "Ibuprofen", "200mg", "")
	if fault.KindOf(err) != fault.Conflict {
		t.Errorf("expected Conflict, got %v", err)
	}
}

func TestCreatePrescriptionMissingFields(t *testing.T) {
	f := newFixture()
	a := f.appts.add(f.patient.ID, f.doctor.ID, booking.StatusConfirmed)

	if _, err := f.svc.Create(context.Background(), f.doctor, a.ID, "", "500mg", ""); fault.KindOf(err) != fault.InvalidInput {
		t.Errorf("expected InvalidInput for empty medication, got %v", err)
	}
	if _, err := f.svc.Create(context.Background(), f.doctor, a.ID, "Amoxicillin", "  ", ""); fault.KindOf(err) != fault.InvalidInput {
		t.Errorf("expected InvalidInput for empty dosage, got %v", err)
	}
}

func TestCreatePrescriptionUnknownAppointment(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), f.doctor, uuid.New(), "Amoxicillin", "500mg", "")
	if fault.KindOf(err) != fault.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestGetPrescriptionAuthorization(t *testing.T) {
	f := newFixture()
	a := f.appts.add(f.patient.ID, f.doctor.ID, booking.StatusConfirmed)
	if _, err := f.svc.Create(context.Background(), f.doctor, a.ID, "Amoxicillin", "500mg", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	admin := auth.Actor{ID: uuid.New(), Role: identity.RoleAdmin}
	for _, actor := range []auth.Actor{f.patient, f.doctor, admin} {
		if _, err := f.svc.GetByAppointment(context.Background(), actor, a.ID); err != nil {
			t.Errorf("role %s should see the prescription: %v", actor.Role, err)
		}
	}

	stranger := auth.Actor{ID: uuid.New(), Role: identity.RolePatient}
	_, err := f.svc.GetByAppointment(context.Background(), stranger, a.ID)
	if fault.KindOf(err) != fault.Forbidden {
		t.Errorf("expected Forbidden, got %v", err)
	}
}
