package history

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk/internal/domain/identity"
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

// resolveSubject decides whose history an operation targets. Patients always
// act on their own record; doctors and admins must name a patient explicitly.
func (s *Service) resolveSubject(ctx context.Context, actor auth.Actor, patientID uuid.UUID) (uuid.UUID, error) {
	switch actor.Role {
	case identity.RolePatient:
		return actor.ID, nil
	case identity.RoleDoctor, identity.RoleAdmin:
		if patientID == uuid.Nil {
			return uuid.Nil, fault.New(fault.InvalidInput, "patient_id is required")
		}
		u, err := s.users.GetByID(ctx, patientID)
		if err != nil {
			return uuid.Nil, err
		}
		if u.Role != identity.RolePatient {
			return uuid.Nil, fault.New(fault.NotFound, "patient not found")
		}
		return patientID, nil
	}
	return uuid.Nil, fault.New(fault.Forbidden, "not allowed to access medical history")
}

// Add appends an entry to a patient's medical history.
func (s *Service) Add(ctx context.Context, actor auth.Actor, patientID uuid.UUID, description string) (*Entry, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fault.New(fault.InvalidInput, "description is required")
	}

	subject, err := s.resolveSubject(ctx, actor, patientID)
	if err != nil {
		return nil, err
	}

	e := &Entry{UserID: subject, Description: description}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// List returns a patient's history, newest first.
func (s *Service) List(ctx context.Context, actor auth.Actor, patientID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	subject, err := s.resolveSubject(ctx, actor, patientID)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.ListByUser(ctx, subject, limit, offset)
}
