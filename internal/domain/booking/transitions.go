package booking

import "github.com/clinicdesk/clinicdesk/internal/domain/identity"

// transitionRule describes who may move an appointment between two statuses.
// Doctors act only on their own appointments and patients only on appointments
// they booked; ADMIN is never owner-gated.
type transitionRule struct {
	roles        map[string]bool
	patientOwner bool // PATIENT allowed only when they own the appointment
	doctorOwner  bool // DOCTOR allowed only when assigned to the appointment
}

type statusPair struct {
	from, to string
}

// The whole authorization policy for status changes lives in this table.
// Payment confirmation does not consult it; the gateway callback is a system
// actor handled by ConfirmPayment.
var transitions = map[statusPair]transitionRule{
	{StatusPending, StatusConfirmed}: {
		roles:       map[string]bool{identity.RoleDoctor: true, identity.RoleAdmin: true},
		doctorOwner: true,
	},
	{StatusPending, StatusCancelled}: {
		roles:        map[string]bool{identity.RolePatient: true, identity.RoleDoctor: true, identity.RoleAdmin: true},
		patientOwner: true,
		doctorOwner:  true,
	},
	{StatusConfirmed, StatusCancelled}: {
		roles:       map[string]bool{identity.RoleDoctor: true, identity.RoleAdmin: true},
		doctorOwner: true,
	},
	{StatusConfirmed, StatusCompleted}: {
		roles:       map[string]bool{identity.RoleDoctor: true, identity.RoleAdmin: true},
		doctorOwner: true,
	},
}

// transitionDefined reports whether from→to exists in the table at all,
// regardless of actor.
func transitionDefined(from, to string) bool {
	_, ok := transitions[statusPair{from, to}]
	return ok
}

// transitionAllowed reports whether the actor may apply from→to on the given
// appointment.
func transitionAllowed(from, to string, actorID string, role string, a *Appointment) bool {
	rule, ok := transitions[statusPair{from, to}]
	if !ok || !rule.roles[role] {
		return false
	}
	switch role {
	case identity.RolePatient:
		return !rule.patientOwner || a.PatientID.String() == actorID
	case identity.RoleDoctor:
		return !rule.doctorOwner || a.DoctorID.String() == actorID
	}
	return true
}
