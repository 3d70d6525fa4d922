package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/internal/platform/fault"
)

// -- Mock appointment repository --

// mockRepo is safe for concurrent use. beforeUpdate, when set, runs inside
// the first UpdateStatusIfCurrentEquals call before the guard is evaluated;
// tests use it to simulate a competing transition landing between a
// service's read and its conditional write.
type mockRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*Appointment
	beforeUpdate func()
}

func newMockRepo() *mockRepo {
	return &mockRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = time.Now()
	cp := *a
	m.appointments[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, fault.New(fault.NotFound, "appointment not found")
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) UpdateStatusIfCurrentEquals(_ context.Context, id uuid.UUID, expected, next string) (bool, error) {
	m.mu.Lock()
	hook := m.beforeUpdate
	m.beforeUpdate = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok || a.Status != expected {
		return false, nil
	}
	a.Status = next
	a.UpdatedAt = time.Now()
	return true, nil
}

// setStatus overwrites the stored status directly, bypassing the guard.
func (m *mockRepo) setStatus(id uuid.UUID, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.appointments[id]; ok {
		a.Status = status
	}
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Appointment
	for _, a := range m.appointments {
		cp := *a
		result = append(result, &cp)
	}
	return result, len(result), nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Appointment
	for _, a := range m.appointments {
		if a.PatientID == patientID {
			cp := *a
			result = append(result, &cp)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Appointment
	for _, a := range m.appointments {
		if a.DoctorID == doctorID {
			cp := *a
			result = append(result, &cp)
		}
	}
	return result, len(result), nil
}

// -- Mock user repository --

type mockUsers struct {
	users map[uuid.UUID]*identity.User
}

func newMockUsers() *mockUsers {
	return &mockUsers{users: make(map[uuid.UUID]*identity.User)}
}

func (m *mockUsers) add(role string) *identity.User {
	u := &identity.User{ID: uuid.New(), Role: role}
	m.users[u.ID] = u
	return u
}

func (m *mockUsers) Create(_ context.Context, u *identity.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUsers) GetByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, fault.New(fault.NotFound, "user not found")
	}
	return u, nil
}

func (m *mockUsers) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	return nil, fault.New(fault.NotFound, "user not found")
}

func (m *mockUsers) Update(_ context.Context, u *identity.User) error { return nil }

func (m *mockUsers) List(_ context.Context, limit, offset int) ([]*identity.User, int, error) {
	return nil, 0, nil
}

func (m *mockUsers) ListByRole(_ context.Context, role string, limit, offset int) ([]*identity.User, int, error) {
	return nil, 0, nil
}

// -- Fixtures --

type fixture struct {
	svc     *Service
	repo    *mockRepo
	users   *mockUsers
	patient auth.Actor
	doctor  auth.Actor
	admin   auth.Actor
}

func newFixture() *fixture {
	repo := newMockRepo()
	users := newMockUsers()
	p := users.add(identity.RolePatient)
	d := users.add(identity.RoleDoctor)
	a := users.add(identity.RoleAdmin)
	return &fixture{
		svc:     NewService(repo, users),
		repo:    repo,
		users:   users,
		patient: auth.Actor{ID: p.ID, Role: identity.RolePatient},
		doctor:  auth.Actor{ID: d.ID, Role: identity.RoleDoctor},
		admin:   auth.Actor{ID: a.ID, Role: identity.RoleAdmin},
	}
}

func (f *fixture) book(t *testing.T) *Appointment {
	t.Helper()
	a, err := f.svc.Create(context.Background(), f.patient, f.doctor.ID, time.Now().Add(24*time.Hour), "HIGH")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return a
}

// -- Create --

func TestCreateAppointment(t *testing.T) {
	f := newFixture()

	a := f.book(t)
	if a.Status != StatusPending {
		t.Errorf("new appointment must be PENDING, got %s", a.Status)
	}
	if a.PatientID != f.patient.ID {
		t.Error("caller must become the appointment's patient")
	}
	if a.Priority != "HIGH" {
		t.Errorf("expected HIGH priority, got %s", a.Priority)
	}
}

func TestCreateAppointmentDefaultsPriorityLow(t *testing.T) {
	f := newFixture()

	a, err := f.svc.Create(context.Background(), f.patient, f.doctor.ID, time.Now().Add(time.Hour), "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if a.Priority != "LOW" {
		t.Errorf("expected LOW priority default, got %s", a.Priority)
	}
}

func TestCreateAppointmentNonPatientForbidden(t *testing.T) {
	f := newFixture()

	for _, actor := range []auth.Actor{f.doctor, f.admin} {
		_, err := f.svc.Create(context.Background(), actor, f.doctor.ID, time.Now().Add(time.Hour), "")
		if fault.KindOf(err) != fault.Forbidden {
			t.Errorf("expected Forbidden for role %s, got %v", actor.Role, err)
		}
	}
}

func TestCreateAppointmentUnknownDoctor(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), f.patient, uuid.New(), time.Now().Add(time.Hour), "")
	if fault.KindOf(err) != fault.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestCreateAppointmentTargetNotADoctor(t *testing.T) {
	f := newFixture()

	other := f.users.add(identity.RolePatient)
	_, err := f.svc.Create(context.Background(), f.patient, other.ID, time.Now().Add(time.Hour), "")
	if fault.KindOf(err) != fault.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestCreateAppointmentInvalidInput(t *testing.T) {
	f := newFixture()

	if _, err := f.svc.Create(context.Background(), f.patient, f.doctor.ID, time.Time{}, ""); fault.KindOf(err) != fault.InvalidInput {
		t.Errorf("expected InvalidInput for zero time, got %v", err)
	}
	if _, err := f.svc.Create(context.Background(), f.patient, f.doctor.ID, time.Now(), "URGENT"); fault.KindOf(err) != fault.InvalidInput {
		t.Errorf("expected InvalidInput for unknown priority, got %v", err)
	}
}

// -- Get --

func TestGetAppointmentAuthorization(t *testing.T) {
	f := newFixture()
	a := f.book(t)

	for _, actor := range []auth.Actor{f.patient, f.doctor, f.admin} {
		if _, err := f.svc.Get(context.Background(), actor, a.ID); err != nil {
			t.Errorf("role %s should see the appointment: %v", actor.Role, err)
		}
	}

	stranger := auth.Actor{ID: uuid.New(), Role: identity.RolePatient}
	_, err := f.svc.Get(context.Background(), stranger, a.ID)
	if fault.KindOf(err) != fault.Forbidden {
		t.Errorf("unauthorized read of an existing appointment must be Forbidden, got %v", err)
	}

	otherDoctor := auth.Actor{ID: uuid.New(), Role: identity.RoleDoctor}
	_, err = f.svc.Get(context.Background(), otherDoctor, a.ID)
	if fault.KindOf(err) != fault.Forbidden {
		t.Errorf("unassigned doctor must get Forbidden, got %v", err)
	}
}

func TestGetAppointmentMissing(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Get(context.Background(), f.admin, uuid.New())
	if fault.KindOf(err) != fault.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

// -- Transition --

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		name  string
		from  string
		to    string
		actor string // which fixture actor attempts it
		want  fault.Kind
	}{
		{"doctor confirms pending", StatusPending, StatusConfirmed, "doctor", 0},
		{"admin confirms pending", StatusPending, StatusConfirmed, "admin", 0},
		{"patient cannot confirm", StatusPending, StatusConfirmed, "patient", fault.Forbidden},
		{"patient cancels pending", StatusPending, StatusCancelled, "patient", 0},
		{"doctor cancels pending", StatusPending, StatusCancelled, "doctor", 0},
		{"doctor cancels confirmed", StatusConfirmed, StatusCancelled, "doctor", 0},
		{"admin cancels confirmed", StatusConfirmed, StatusCancelled, "admin", 0},
		{"patient cannot cancel confirmed", StatusConfirmed, StatusCancelled, "patient", fault.Forbidden},
		{"doctor completes confirmed", StatusConfirmed, StatusCompleted, "doctor", 0},
		{"cannot complete pending", StatusPending, StatusCompleted, "doctor", fault.InvalidTransition},
		{"cancelled is terminal", StatusCancelled, StatusConfirmed, "admin", fault.InvalidTransition},
		{"completed is terminal", StatusCompleted, StatusCancelled, "admin", fault.InvalidTransition},
		{"cannot reset to pending", StatusConfirmed, StatusPending, "admin", fault.InvalidTransition},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			a := f.book(t)
			f.repo.setStatus(a.ID, tc.from)

			actor := f.patient
			switch tc.actor {
			case "doctor":
				actor = f.doctor
			case "admin":
				actor = f.admin
			}

			updated, err := f.svc.Transition(context.Background(), actor, a.ID, tc.to)
			if tc.want == 0 {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				if updated.Status != tc.to {
					t.Errorf("expected status %s, got %s", tc.to, updated.Status)
				}
				return
			}
			if fault.KindOf(err) != tc.want {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
			stored, _ := f.repo.GetByID(context.Background(), a.ID)
			if stored.Status != tc.from {
				t.Errorf("failed transition must leave state unchanged; got %s", stored.Status)
			}
		})
	}
}

func TestTransitionUnassignedDoctorForbidden(t *testing.T) {
	f := newFixture()
	a := f.book(t)

	other := auth.Actor{ID: uuid.New(), Role: identity.RoleDoctor}
	_, err := f.svc.Transition(context.Background(), other, a.ID, StatusConfirmed)
	if fault.KindOf(err) != fault.Forbidden {
		t.Errorf("expected Forbidden, got %v", err)
	}
}

func TestTransitionInvalidStatus(t *testing.T) {
	f := newFixture()
	a := f.book(t)

	_, err := f.svc.Transition(context.Background(), f.doctor, a.ID, "ARCHIVED")
	if fault.KindOf(err) != fault.InvalidInput {
		t.Errorf("expected InvalidInput, got %v", err)
	}
}

// -- Concurrency --

func TestTransitionLosesRace(t *testing.T) {
	f := newFixture()
	a := f.book(t)

	// The webhook confirms between the patient's read and their cancel write.
	f.repo.beforeUpdate = func() {
		f.repo.setStatus(a.ID, StatusConfirmed)
	}

	_, err := f.svc.Transition(context.Background(), f.patient, a.ID, StatusCancelled)
	if fault.KindOf(err) != fault.ConflictingTransition {
		t.Errorf("expected ConflictingTransition, got %v", err)
	}
	stored, _ := f.repo.GetByID(context.Background(), a.ID)
	if stored.Status != StatusConfirmed {
		t.Errorf("winner's status must survive, got %s", stored.Status)
	}
}

func TestConfirmPaymentLosesRaceToCancel(t *testing.T) {
	f := newFixture()
	a := f.book(t)

	// The patient cancels between the webhook's read and its confirm write.
	f.repo.beforeUpdate = func() {
		f.repo.setStatus(a.ID, StatusCancelled)
	}

	_, err := f.svc.ConfirmPayment(context.Background(), a.ID)
	if fault.KindOf(err) != fault.ConflictingTransition {
		t.Errorf("expected ConflictingTransition, got %v", err)
	}
	stored, _ := f.repo.GetByID(context.Background(), a.ID)
	if stored.Status != StatusCancelled {
		t.Errorf("winner's status must survive, got %s", stored.Status)
	}
}

func TestConcurrentTransitionsOneWinner(t *testing.T) {
	f := newFixture()
	a := f.book(t)

	var wg sync.WaitGroup
	results := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.svc.Transition(context.Background(), f.patient, a.ID, StatusCancelled)
		results <- err
	}()
	go func() {
		defer wg.Done()
		_, err := f.svc.ConfirmPayment(context.Background(), a.ID)
		results <- err
	}()
	wg.Wait()
	close(results)

	// A patient cannot cancel a CONFIRMED appointment and a CANCELLED one
	// cannot be confirmed, so whatever the interleaving, exactly one of the
	// two contenders wins.
	var successes int
	for err := range results {
		if err == nil {
			successes++
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one winning transition, got %d", successes)
	}

	stored, _ := f.repo.GetByID(context.Background(), a.ID)
	if stored.Status != StatusCancelled && stored.Status != StatusConfirmed {
		t.Errorf("final status must be one of the two contenders, got %s", stored.Status)
	}
}

// -- ConfirmPayment --

func TestConfirmPayment(t *testing.T) {
	f := newFixture()
	a := f.book(t)

	confirmed, err := f.svc.ConfirmPayment(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("ConfirmPayment failed: %v", err)
	}
	if confirmed.Status != StatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", confirmed.Status)
	}
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	f := newFixture()
	a := f.book(t)

	if _, err := f.svc.ConfirmPayment(context.Background(), a.ID); err != nil {
		t.Fatalf("first ConfirmPayment failed: %v", err)
	}
	again, err := f.svc.ConfirmPayment(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("re-delivered confirmation must succeed: %v", err)
	}
	if again.Status != StatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", again.Status)
	}
}

func TestConfirmPaymentCancelledAppointment(t *testing.T) {
	f := newFixture()
	a := f.book(t)
	f.repo.setStatus(a.ID, StatusCancelled)

	_, err := f.svc.ConfirmPayment(context.Background(), a.ID)
	if fault.KindOf(err) != fault.InvalidTransition {
		t.Errorf("expected InvalidTransition, got %v", err)
	}
}

// -- Listing --

func TestListForActor(t *testing.T) {
	f := newFixture()
	f.book(t)
	f.book(t)

	otherPatient := f.users.add(identity.RolePatient)
	other := auth.Actor{ID: otherPatient.ID, Role: identity.RolePatient}
	if _, err := f.svc.Create(context.Background(), other, f.doctor.ID, time.Now().Add(time.Hour), ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	appts, total, err := f.svc.ListForActor(context.Background(), f.patient, 20, 0)
	if err != nil {
		t.Fatalf("ListForActor failed: %v", err)
	}
	if total != 2 || len(appts) != 2 {
		t.Errorf("patient should see 2 appointments, got %d", total)
	}

	_, total, _ = f.svc.ListForActor(context.Background(), f.doctor, 20, 0)
	if total != 3 {
		t.Errorf("doctor should see 3 appointments, got %d", total)
	}

	_, total, _ = f.svc.ListForActor(context.Background(), f.admin, 20, 0)
	if total != 3 {
		t.Errorf("admin should see all 3 appointments, got %d", total)
	}
}
